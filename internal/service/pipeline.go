package service

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nataliehogg/los-proof-of-concept/internal/cosmology"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/lens"
	"github.com/nataliehogg/los-proof-of-concept/internal/nfw"
)

// LOSService runs the full line-of-sight pipeline: annotate each halo
// with its os-context angular profile and own single-plane lensing, cut
// the problematic population, partition the survivors at the main lens
// plane, aggregate the os/od/ds terms and combine them into the LOS
// correction. The per-halo stages are parallelized across workers; the
// two multi-plane traces run concurrently with each other.
type LOSService struct {
	logger  *zap.Logger
	workers int
}

func NewLOSService(logger *zap.Logger, workers int) *LOSService {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &LOSService{logger: logger, workers: workers}
}

// RunResult is everything one pipeline run produces.
type RunResult struct {
	Surviving *domain.Catalogue
	Discarded *domain.Catalogue
	Record    domain.ShearConvergenceRecord
}

// Run executes the pipeline on a catalogue. The input catalogue is never
// mutated; all derived values land in fresh catalogues. Fatal conditions
// abort the whole run with nothing partially computed.
func (s *LOSService) Run(ctx context.Context, cat *domain.Catalogue, params domain.RunParams) (*RunResult, error) {
	start := time.Now()

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	for i := 0; i < cat.Len(); i++ {
		if cat.Z[i] < params.ZObs || cat.Z[i] >= params.ZSource {
			return nil, fmt.Errorf("%w: row %d: halo z %v outside [%v, %v)",
				domain.ErrRedshiftOrdering, i, cat.Z[i], params.ZObs, params.ZSource)
		}
	}

	cosmo, err := cosmology.New(params.H0, params.OmegaM)
	if err != nil {
		return nil, err
	}
	frame, err := cosmology.NewFrame(cosmo, params.ZObs, params.ZLens, params.ZSource)
	if err != nil {
		return nil, err
	}

	// Own single-plane quantities are always evaluated against the os
	// source plane.
	annotated, err := s.convert(ctx, cat, cosmo, params.ZSource, true)
	if err != nil {
		return nil, err
	}

	surviving, discarded, err := Cut(annotated, params.KappaMax, params.DelMax)
	if err != nil {
		return nil, err
	}

	foreground, background := Partition(surviving, params.ZObs, params.ZLens)

	agg := NewAggregator(frame)

	var os, od lens.PointLensing
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		os, err = agg.OS(surviving)
		return err
	})
	g.Go(func() error {
		// The od system needs the foreground profiles reconverted
		// against the main lens plane; os-context angles would be wrong.
		fgOD, err := s.convert(gctx, foreground, cosmo, params.ZLens, false)
		if err != nil {
			return err
		}
		od, err = agg.OD(fgOD)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds, err := agg.DS(background)
	if err != nil {
		return nil, err
	}

	los := Combine(os, od, ds)

	s.logger.Info("pipeline run completed",
		zap.Int("haloes", cat.Len()),
		zap.Int("surviving", surviving.Len()),
		zap.Int("discarded", discarded.Len()),
		zap.Int("foreground", foreground.Len()),
		zap.Int("background", background.Len()),
		zap.Duration("duration", time.Since(start)),
	)

	return &RunResult{
		Surviving: surviving,
		Discarded: discarded,
		Record: domain.ShearConvergenceRecord{
			Gamma1OS: os.Gamma1, Gamma2OS: os.Gamma2, KappaOS: os.Kappa,
			Alpha1OS: os.Alpha1, Alpha2OS: os.Alpha2,
			Gamma1OD: od.Gamma1, Gamma2OD: od.Gamma2, KappaOD: od.Kappa,
			Alpha1OD: od.Alpha1, Alpha2OD: od.Alpha2,
			Gamma1DS: ds.Gamma1, Gamma2DS: ds.Gamma2, KappaDS: ds.Kappa,
			Gamma1LOS: los.Gamma1, Gamma2LOS: los.Gamma2, KappaLOS: los.Kappa,
		},
	}, nil
}

// convert derives angular profile parameters for every halo against the
// given reference source plane, and optionally the halo's own
// single-plane lensing at the optical axis. Haloes are independent, so
// the loop is chunked across workers; each chunk writes to a disjoint
// index range of the output, keeping results order-insensitive and
// deterministic.
func (s *LOSService) convert(ctx context.Context, cat *domain.Catalogue, cosmo *cosmology.Cosmology, zRefSource float64, withOwn bool) (*domain.Catalogue, error) {
	n := cat.Len()
	out := &domain.Catalogue{
		Z:             cloneFloats(cat.Z),
		Mass:          cloneFloats(cat.Mass),
		Concentration: cloneFloats(cat.Concentration),
		CenterX:       cloneFloats(cat.CenterX),
		CenterY:       cloneFloats(cat.CenterY),
		Del:           cloneFloats(cat.Del),
		Rs:            make([]float64, n),
		AlphaRs:       make([]float64, n),
	}
	if withOwn {
		out.Gamma1Own = make([]float64, n)
		out.Gamma2Own = make([]float64, n)
		out.KappaOwn = make([]float64, n)
	} else {
		out.Gamma1Own = cloneFloats(cat.Gamma1Own)
		out.Gamma2Own = cloneFloats(cat.Gamma2Own)
		out.KappaOwn = cloneFloats(cat.KappaOwn)
	}

	chunk := (n + s.workers - 1) / s.workers
	if chunk < 1 {
		chunk = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				rs, alphaRs, err := nfw.PhysicalToAngle(cosmo, cat.Mass[i], cat.Concentration[i], cat.Z[i], zRefSource)
				if err != nil {
					return fmt.Errorf("row %d: %w", i, err)
				}
				out.Rs[i] = rs
				out.AlphaRs[i] = alphaRs

				if withOwn {
					own, err := lens.SinglePlane(nfw.Profile{
						Rs:      rs,
						AlphaRs: alphaRs,
						CenterX: cat.CenterX[i],
						CenterY: cat.CenterY[i],
					}, 0, 0)
					if err != nil {
						return fmt.Errorf("row %d: %w", i, err)
					}
					out.Gamma1Own[i] = own.Gamma1
					out.Gamma2Own[i] = own.Gamma2
					out.KappaOwn[i] = own.Kappa
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
