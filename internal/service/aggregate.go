package service

import (
	"github.com/nataliehogg/los-proof-of-concept/internal/cosmology"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/lens"
	"github.com/nataliehogg/los-proof-of-concept/internal/nfw"
)

// Aggregator turns annotated halo catalogues into the os, od and ds
// lensing terms. The os and od terms come from genuine multi-plane ray
// tracing over paired NFW/counter-sheet systems; the ds term is a
// deterministic rescaled sum over background haloes' own single-plane
// values. Empty populations yield the zero field, not an error.
type Aggregator struct {
	frame    *cosmology.Frame
	rescaler *Rescaler
}

func NewAggregator(frame *cosmology.Frame) *Aggregator {
	return &Aggregator{frame: frame, rescaler: NewRescaler(frame)}
}

// OS builds the full observer-source multi-plane system: every surviving
// halo contributes one NFW plane (os-context angular parameters) and one
// convergence sheet at the same redshift with kappa = -kappa_own. The
// sheet removes the halo's contribution to the mean line-of-sight
// convergence, so the evaluated field isolates the recursive multi-plane
// effect beyond the single-plane tidal approximation.
func (a *Aggregator) OS(cat *domain.Catalogue) (lens.PointLensing, error) {
	return a.tracePaired(cat, a.frame.ZSource, func(i int) (float64, error) {
		return -cat.KappaOwn[i], nil
	})
}

// OD builds the same paired construction restricted to the foreground
// subset, with the main lens plane as the terminal source. The catalogue
// must carry od-context angular parameters; the counter-sheet kappa is
// the od-rescaled own convergence.
func (a *Aggregator) OD(foreground *domain.Catalogue) (lens.PointLensing, error) {
	return a.tracePaired(foreground, a.frame.ZLens, func(i int) (float64, error) {
		f, err := a.rescaler.CancellationOD(foreground.Z[i])
		if err != nil {
			return 0, err
		}
		return -f * foreground.KappaOwn[i], nil
	})
}

func (a *Aggregator) tracePaired(cat *domain.Catalogue, zSource float64, sheetKappa func(i int) (float64, error)) (lens.PointLensing, error) {
	if cat.Len() == 0 {
		return lens.PointLensing{}, nil
	}

	planes := make([]lens.Plane, 0, 2*cat.Len())
	for i := 0; i < cat.Len(); i++ {
		k, err := sheetKappa(i)
		if err != nil {
			return lens.PointLensing{}, err
		}
		planes = append(planes,
			lens.Plane{
				Kind: lens.PlaneNFW,
				Z:    cat.Z[i],
				Deflector: nfw.Profile{
					Rs:      cat.Rs[i],
					AlphaRs: cat.AlphaRs[i],
					CenterX: cat.CenterX[i],
					CenterY: cat.CenterY[i],
				},
			},
			lens.Plane{
				Kind:      lens.PlaneConvergence,
				Z:         cat.Z[i],
				Deflector: nfw.Sheet{Kappa: k},
			},
		)
	}

	sys, err := lens.NewSystem(a.frame.Cosmo, zSource, planes)
	if err != nil {
		return lens.PointLensing{}, err
	}
	return sys.Evaluate(0, 0), nil
}

// DS sums the background haloes' own single-plane shear and convergence,
// each scaled by the ds distance ratio, in catalogue row order. Row-order
// accumulation keeps the result bit-reproducible across runs.
func (a *Aggregator) DS(background *domain.Catalogue) (lens.PointLensing, error) {
	var out lens.PointLensing
	for i := 0; i < background.Len(); i++ {
		f, err := a.rescaler.FactorDS(background.Z[i])
		if err != nil {
			return lens.PointLensing{}, err
		}
		out = out.Add(lens.PointLensing{
			Gamma1: background.Gamma1Own[i],
			Gamma2: background.Gamma2Own[i],
			Kappa:  background.KappaOwn[i],
		}.Scale(f))
	}
	return out, nil
}

// Combine applies the line-of-sight decomposition
// gamma_LOS = gamma_os + gamma_od - gamma_ds (and likewise for kappa).
// The order of operations is the documented physical decomposition and is
// kept exactly: (os + od) - ds. The deflection components ride along
// component-wise; the ds term carries none.
func Combine(os, od, ds lens.PointLensing) lens.PointLensing {
	return os.Add(od).Sub(ds)
}
