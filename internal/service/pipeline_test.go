package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/nataliehogg/los-proof-of-concept/internal/cosmology"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

func testParams() domain.RunParams {
	return domain.RunParams{
		ZObs:     0,
		ZLens:    0.5,
		ZSource:  1.5,
		KappaMax: 0.5,
		DelMax:   0.1,
		H0:       67.4,
		OmegaM:   0.315,
	}
}

func testService() *LOSService {
	return NewLOSService(zap.NewNop(), 4)
}

func TestLOSService_EmptyCatalogue(t *testing.T) {
	res, err := testService().Run(context.Background(), domain.NewCatalogue(0), testParams())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Surviving.Len() != 0 || res.Discarded.Len() != 0 {
		t.Fatal("expected empty populations")
	}
	if res.Record != (domain.ShearConvergenceRecord{}) {
		t.Fatalf("expected all-zero record, got %+v", res.Record)
	}
}

func TestLOSService_SingleHaloCancellationAttenuates(t *testing.T) {
	// One halo at half the lens redshift, paired with its own
	// counter-sheet: the os convergence must come out attenuated well
	// below the halo's uncancelled single-plane value.
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.25, Mass: 1e12, Concentration: 5, CenterX: 4, CenterY: 3, Del: 0.05},
	})

	res, err := testService().Run(context.Background(), cat, testParams())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Surviving.Len() != 1 {
		t.Fatalf("expected 1 surviving halo, got %d", res.Surviving.Len())
	}

	kappaOwn := res.Surviving.KappaOwn[0]
	if kappaOwn <= 0 {
		t.Fatalf("expected positive own convergence, got %v", kappaOwn)
	}
	if math.Abs(res.Record.KappaOS) >= kappaOwn {
		t.Fatalf("cancellation did not attenuate: |kappa_os| %v >= kappa_own %v",
			math.Abs(res.Record.KappaOS), kappaOwn)
	}
}

func TestLOSService_ThreeHaloScenario(t *testing.T) {
	// One foreground halo, one exactly on the lens plane (background by
	// convention) and one background halo; all pass the cut.
	haloes := []domain.Halo{
		{Z: 0.1, Mass: 5e11, Concentration: 6, CenterX: 3, CenterY: -2, Del: 0.05},
		{Z: 0.5, Mass: 1e12, Concentration: 5, CenterX: -4, CenterY: 1, Del: 0.05},
		{Z: 1.2, Mass: 2e12, Concentration: 4, CenterX: 2, CenterY: 5, Del: 0.05},
	}
	cat := domain.CatalogueFromHaloes(haloes)
	params := testParams()
	svc := testService()
	ctx := context.Background()

	res, err := svc.Run(ctx, cat, params)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Surviving.Len() != 3 {
		t.Fatalf("expected 3 surviving, got %d", res.Surviving.Len())
	}
	if res.Discarded.Len() != 0 {
		t.Fatalf("expected 0 discarded, got %d", res.Discarded.Len())
	}

	// LOS additivity must hold exactly as the documented decomposition.
	rec := res.Record
	if got, want := rec.KappaLOS, (rec.KappaOS+rec.KappaOD)-rec.KappaDS; !closeRel(got, want, 1e-12) {
		t.Fatalf("kappa_los %v != (os + od) - ds %v", got, want)
	}
	if got, want := rec.Gamma1LOS, (rec.Gamma1OS+rec.Gamma1OD)-rec.Gamma1DS; !closeRel(got, want, 1e-12) {
		t.Fatalf("gamma1_los %v != (os + od) - ds %v", got, want)
	}
	if got, want := rec.Gamma2LOS, (rec.Gamma2OS+rec.Gamma2OD)-rec.Gamma2DS; !closeRel(got, want, 1e-12) {
		t.Fatalf("gamma2_los %v != (os + od) - ds %v", got, want)
	}

	// Recompute the three terms independently through the same stages
	// and check the record against them.
	cosmo, err := cosmology.New(params.H0, params.OmegaM)
	if err != nil {
		t.Fatalf("cosmology: %v", err)
	}
	frame, err := cosmology.NewFrame(cosmo, params.ZObs, params.ZLens, params.ZSource)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}

	annotated, err := svc.convert(ctx, cat, cosmo, params.ZSource, true)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	surviving, _, err := Cut(annotated, params.KappaMax, params.DelMax)
	if err != nil {
		t.Fatalf("cut: %v", err)
	}
	fg, bg := Partition(surviving, params.ZObs, params.ZLens)
	if fg.Len() != 1 || bg.Len() != 2 {
		t.Fatalf("expected 1 foreground and 2 background, got %d/%d", fg.Len(), bg.Len())
	}

	agg := NewAggregator(frame)
	os, err := agg.OS(surviving)
	if err != nil {
		t.Fatalf("os: %v", err)
	}
	fgOD, err := svc.convert(ctx, fg, cosmo, params.ZLens, false)
	if err != nil {
		t.Fatalf("od convert: %v", err)
	}
	od, err := agg.OD(fgOD)
	if err != nil {
		t.Fatalf("od: %v", err)
	}
	ds, err := agg.DS(bg)
	if err != nil {
		t.Fatalf("ds: %v", err)
	}

	if !closeRel(rec.KappaOS, os.Kappa, 1e-12) ||
		!closeRel(rec.KappaOD, od.Kappa, 1e-12) ||
		!closeRel(rec.KappaDS, ds.Kappa, 1e-12) {
		t.Fatalf("recomputed terms disagree with record: %+v vs %v %v %v", rec, os.Kappa, od.Kappa, ds.Kappa)
	}
}

func TestLOSService_ThreeHaloScenarioOnAxis(t *testing.T) {
	// Same three haloes placed exactly on the optical axis. Own
	// convergence is then evaluated at the central regularization radius,
	// where the middle halo's kappa_own (about 0.9) exceeds the 0.5
	// threshold, so the cut drops it. The off-axis variant above is the
	// configuration in which all three pass.
	haloes := []domain.Halo{
		{Z: 0.1, Mass: 5e11, Concentration: 6, Del: 0.05},
		{Z: 0.5, Mass: 1e12, Concentration: 5, Del: 0.05},
		{Z: 1.2, Mass: 2e12, Concentration: 4, Del: 0.05},
	}

	res, err := testService().Run(context.Background(), domain.CatalogueFromHaloes(haloes), testParams())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Surviving.Len() != 2 || res.Discarded.Len() != 1 {
		t.Fatalf("expected 2/1 split, got %d/%d", res.Surviving.Len(), res.Discarded.Len())
	}
	if res.Discarded.Z[0] != 0.5 {
		t.Fatalf("wrong halo discarded: z %v", res.Discarded.Z[0])
	}
	if res.Discarded.KappaOwn[0] <= 0.5 {
		t.Fatalf("discarded halo kappa_own %v should exceed the threshold", res.Discarded.KappaOwn[0])
	}
	for i := 0; i < res.Surviving.Len(); i++ {
		if res.Surviving.KappaOwn[i] > 0.5 {
			t.Fatalf("surviving halo %d kappa_own %v above threshold", i, res.Surviving.KappaOwn[i])
		}
	}

	rec := res.Record
	if got, want := rec.KappaLOS, (rec.KappaOS+rec.KappaOD)-rec.KappaDS; !closeRel(got, want, 1e-12) {
		t.Fatalf("kappa_los %v != (os + od) - ds %v", got, want)
	}
}

func TestLOSService_Determinism(t *testing.T) {
	haloes := []domain.Halo{
		{Z: 0.1, Mass: 5e11, Concentration: 6, CenterX: 3, CenterY: -2, Del: 0.05},
		{Z: 0.3, Mass: 8e11, Concentration: 7, CenterX: -1, CenterY: 6, Del: 0.02},
		{Z: 0.5, Mass: 1e12, Concentration: 5, CenterX: -4, CenterY: 1, Del: 0.05},
		{Z: 0.9, Mass: 3e12, Concentration: 5, CenterX: 5, CenterY: 4, Del: 0.08},
		{Z: 1.2, Mass: 2e12, Concentration: 4, CenterX: 2, CenterY: 5, Del: 0.05},
	}
	svc := testService()

	first, err := svc.Run(context.Background(), domain.CatalogueFromHaloes(haloes), testParams())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Run(context.Background(), domain.CatalogueFromHaloes(haloes), testParams())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Record != second.Record {
		t.Fatalf("runs not deterministic:\n%+v\n%+v", first.Record, second.Record)
	}
}

func TestLOSService_ForegroundOnlyHasZeroDS(t *testing.T) {
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.1, Mass: 5e11, Concentration: 6, CenterX: 3, CenterY: -2, Del: 0.05},
		{Z: 0.3, Mass: 8e11, Concentration: 7, CenterX: -1, CenterY: 6, Del: 0.02},
	})

	res, err := testService().Run(context.Background(), cat, testParams())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	rec := res.Record
	if rec.Gamma1DS != 0 || rec.Gamma2DS != 0 || rec.KappaDS != 0 {
		t.Fatalf("expected zero ds term for empty background, got %+v", rec)
	}
	if rec.KappaOS == 0 && rec.Gamma1OS == 0 && rec.Gamma2OS == 0 {
		t.Fatal("expected nonzero os term")
	}
}

func TestLOSService_BackgroundOnlyHasZeroOD(t *testing.T) {
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.9, Mass: 3e12, Concentration: 5, CenterX: 5, CenterY: 4, Del: 0.08},
		{Z: 1.2, Mass: 2e12, Concentration: 4, CenterX: 2, CenterY: 5, Del: 0.05},
	})

	res, err := testService().Run(context.Background(), cat, testParams())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	rec := res.Record
	if rec.Gamma1OD != 0 || rec.Gamma2OD != 0 || rec.KappaOD != 0 ||
		rec.Alpha1OD != 0 || rec.Alpha2OD != 0 {
		t.Fatalf("expected zero od term for empty foreground, got %+v", rec)
	}
}

func TestLOSService_CutDiscardsProblematicHaloes(t *testing.T) {
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.2, Mass: 5e11, Concentration: 6, CenterX: 3, CenterY: -2, Del: 0.05},
		{Z: 0.7, Mass: 1e12, Concentration: 5, CenterX: -4, CenterY: 1, Del: 0.9},
	})

	res, err := testService().Run(context.Background(), cat, testParams())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Surviving.Len() != 1 || res.Discarded.Len() != 1 {
		t.Fatalf("expected 1/1 split, got %d/%d", res.Surviving.Len(), res.Discarded.Len())
	}
	if res.Discarded.Del[0] != 0.9 {
		t.Fatalf("wrong halo discarded: %+v", res.Discarded.Halo(0))
	}
}

func TestLOSService_ContextConversionDiffers(t *testing.T) {
	// The od-context reconversion must produce different deflection
	// normalisations from the os context whenever z_lens != z_source.
	svc := testService()
	ctx := context.Background()
	cosmo, err := cosmology.New(67.4, 0.315)
	if err != nil {
		t.Fatalf("cosmology: %v", err)
	}
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.1, Mass: 5e11, Concentration: 6, CenterX: 3, CenterY: -2, Del: 0.05},
	})

	osCat, err := svc.convert(ctx, cat, cosmo, 1.5, true)
	if err != nil {
		t.Fatalf("os convert: %v", err)
	}
	odCat, err := svc.convert(ctx, cat, cosmo, 0.5, false)
	if err != nil {
		t.Fatalf("od convert: %v", err)
	}

	if osCat.AlphaRs[0] == odCat.AlphaRs[0] {
		t.Fatal("expected os and od context alpha_Rs to differ")
	}
}

func TestLOSService_RedshiftOrderingViolation(t *testing.T) {
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 1.6, Mass: 5e11, Concentration: 6, Del: 0.05},
	})

	_, err := testService().Run(context.Background(), cat, testParams())
	if !errors.Is(err, domain.ErrRedshiftOrdering) {
		t.Fatalf("expected redshift ordering violation, got %v", err)
	}
}

func TestLOSService_InvalidCatalogue(t *testing.T) {
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.3, Mass: math.NaN(), Concentration: 6, Del: 0.05},
	})

	_, err := testService().Run(context.Background(), cat, testParams())
	if !errors.Is(err, domain.ErrInvalidCatalogue) {
		t.Fatalf("expected invalid catalogue, got %v", err)
	}
}

func TestLOSService_BadParams(t *testing.T) {
	cat := domain.NewCatalogue(0)

	params := testParams()
	params.ZLens = 1.6 // beyond the source
	if _, err := testService().Run(context.Background(), cat, params); !errors.Is(err, domain.ErrRedshiftOrdering) {
		t.Fatalf("expected redshift ordering violation, got %v", err)
	}

	params = testParams()
	params.KappaMax = math.NaN()
	if _, err := testService().Run(context.Background(), cat, params); !errors.Is(err, domain.ErrInvalidCatalogue) {
		t.Fatalf("expected invalid threshold error, got %v", err)
	}

	params = testParams()
	params.OmegaM = 2
	if _, err := testService().Run(context.Background(), cat, params); !errors.Is(err, domain.ErrNumericDegeneracy) {
		t.Fatalf("expected degeneracy error, got %v", err)
	}
}

func TestLOSService_InputNotMutated(t *testing.T) {
	cat := domain.CatalogueFromHaloes([]domain.Halo{
		{Z: 0.2, Mass: 5e11, Concentration: 6, CenterX: 3, CenterY: -2, Del: 0.05},
	})

	if _, err := testService().Run(context.Background(), cat, testParams()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cat.Rs[0] != 0 || cat.KappaOwn[0] != 0 {
		t.Fatalf("input catalogue was mutated: %+v", cat.Halo(0))
	}
}

func closeRel(a, b float64, tol float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= tol*scale
}
