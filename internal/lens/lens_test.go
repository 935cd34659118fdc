package lens

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nataliehogg/los-proof-of-concept/internal/cosmology"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/nfw"
)

func testCosmology(t *testing.T) *cosmology.Cosmology {
	t.Helper()
	c, err := cosmology.New(67.4, 0.315)
	require.NoError(t, err)
	return c
}

func testProfile(t *testing.T, c *cosmology.Cosmology, zHalo, zSource, cx, cy float64) nfw.Profile {
	t.Helper()
	rs, alphaRs, err := nfw.PhysicalToAngle(c, 1e13, 5, zHalo, zSource)
	require.NoError(t, err)
	return nfw.Profile{Rs: rs, AlphaRs: alphaRs, CenterX: cx, CenterY: cy}
}

func TestSinglePlane_InvalidProfile(t *testing.T) {
	for _, p := range []nfw.Profile{
		{Rs: 0, AlphaRs: 1},
		{Rs: -2, AlphaRs: 1},
		{Rs: math.NaN(), AlphaRs: 1},
		{Rs: 5, AlphaRs: math.NaN()},
		{Rs: 5, AlphaRs: math.Inf(1)},
	} {
		_, err := SinglePlane(p, 0, 0)
		require.ErrorIs(t, err, domain.ErrNumericDegeneracy, "profile %+v", p)
	}
}

func TestSinglePlane_MatchesProfileFunctions(t *testing.T) {
	c := testCosmology(t)
	p := testProfile(t, c, 0.3, 1.5, 4, -3)

	pl, err := SinglePlane(p, 0, 0)
	require.NoError(t, err)

	g1, g2 := p.Shear(0, 0)
	a1, a2 := p.Deflection(0, 0)
	require.Equal(t, g1, pl.Gamma1)
	require.Equal(t, g2, pl.Gamma2)
	require.Equal(t, p.Convergence(0, 0), pl.Kappa)
	require.Equal(t, a1, pl.Alpha1)
	require.Equal(t, a2, pl.Alpha2)
	require.Greater(t, pl.Kappa, 0.0)
}

func TestSystem_EmptyYieldsZeroField(t *testing.T) {
	c := testCosmology(t)
	sys, err := NewSystem(c, 1.5, nil)
	require.NoError(t, err)
	require.Equal(t, PointLensing{}, sys.Evaluate(0, 0))
}

func TestSystem_RejectsPlaneBeyondSource(t *testing.T) {
	c := testCosmology(t)
	p := testProfile(t, c, 0.3, 1.5, 0, 0)

	_, err := NewSystem(c, 1.5, []Plane{{Kind: PlaneNFW, Z: 1.5, Deflector: p}})
	require.ErrorIs(t, err, domain.ErrRedshiftOrdering)

	_, err = NewSystem(c, 1.5, []Plane{{Kind: PlaneNFW, Z: 2.0, Deflector: p}})
	require.ErrorIs(t, err, domain.ErrRedshiftOrdering)
}

func TestSystem_SinglePlaneReducesToReducedDeflection(t *testing.T) {
	// With a single deflector plane the recursion collapses and the
	// effective deflection theta - beta equals the reduced deflection of
	// the profile, exactly.
	c := testCosmology(t)
	p := testProfile(t, c, 0.3, 1.5, 5, 2)
	sys, err := NewSystem(c, 1.5, []Plane{{Kind: PlaneNFW, Z: 0.3, Deflector: p}})
	require.NoError(t, err)

	a1, a2 := sys.Deflection(0, 0)
	want1, want2 := p.Deflection(0, 0)
	require.InDelta(t, want1, a1, 1e-12)
	require.InDelta(t, want2, a2, 1e-12)
}

func TestSystem_SinglePlaneHessianMatchesAnalytic(t *testing.T) {
	c := testCosmology(t)
	p := testProfile(t, c, 0.3, 1.5, 5, 2)
	sys, err := NewSystem(c, 1.5, []Plane{{Kind: PlaneNFW, Z: 0.3, Deflector: p}})
	require.NoError(t, err)

	got := sys.Evaluate(0, 0)
	require.InEpsilon(t, p.Convergence(0, 0), got.Kappa, 1e-5)

	g1, g2 := p.Shear(0, 0)
	require.InEpsilon(t, g1, got.Gamma1, 1e-5)
	require.InEpsilon(t, g2, got.Gamma2, 1e-5)
}

func TestSystem_SheetCancellationAttenuatesConvergence(t *testing.T) {
	// Pairing a halo with a sheet carrying minus its own axis
	// convergence must attenuate the system convergence well below the
	// uncancelled value.
	c := testCosmology(t)
	p := testProfile(t, c, 0.3, 1.5, 5, 2)
	own, err := SinglePlane(p, 0, 0)
	require.NoError(t, err)
	require.Greater(t, own.Kappa, 0.0)

	sys, err := NewSystem(c, 1.5, []Plane{
		{Kind: PlaneNFW, Z: 0.3, Deflector: p},
		{Kind: PlaneConvergence, Z: 0.3, Deflector: nfw.Sheet{Kappa: -own.Kappa}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, sys.Len())

	got := sys.Evaluate(0, 0)
	require.Less(t, math.Abs(got.Kappa), own.Kappa)
}

func TestSystem_SameRedshiftPlanesActTogether(t *testing.T) {
	// Two deflectors at identical redshift must see the same incoming
	// ray: their deflections add before propagation, so the system
	// deflection is the plain sum, exactly.
	c := testCosmology(t)
	p := testProfile(t, c, 0.3, 1.5, 5, 2)
	s := nfw.Sheet{Kappa: 0.01}

	sys, err := NewSystem(c, 1.5, []Plane{
		{Kind: PlaneNFW, Z: 0.3, Deflector: p},
		{Kind: PlaneConvergence, Z: 0.3, Deflector: s},
	})
	require.NoError(t, err)

	a1, a2 := sys.Deflection(1, -1)
	p1, p2 := p.Deflection(1, -1)
	s1, s2 := s.Deflection(1, -1)
	require.InDelta(t, p1+s1, a1, 1e-12)
	require.InDelta(t, p2+s2, a2, 1e-12)
}

func TestSystem_TwoPlanesDifferFromLinearSuperposition(t *testing.T) {
	// The multi-plane recursion is the quantity of interest: with two
	// haloes at different redshifts the traced deflection must not equal
	// the sum of the individual reduced deflections.
	c := testCosmology(t)
	near := testProfile(t, c, 0.2, 1.5, 3, 1)
	far := testProfile(t, c, 0.8, 1.5, -2, 4)

	sys, err := NewSystem(c, 1.5, []Plane{
		{Kind: PlaneNFW, Z: 0.2, Deflector: near},
		{Kind: PlaneNFW, Z: 0.8, Deflector: far},
	})
	require.NoError(t, err)

	a1, a2 := sys.Deflection(0, 0)
	n1, n2 := near.Deflection(0, 0)
	f1, f2 := far.Deflection(0, 0)

	linear := math.Hypot(n1+f1, n2+f2)
	traced := math.Hypot(a1, a2)
	require.Greater(t, math.Abs(traced-linear), 1e-12*linear)
}

func TestPointLensingArithmetic(t *testing.T) {
	a := PointLensing{Gamma1: 1, Gamma2: 2, Kappa: 3, Alpha1: 4, Alpha2: 5}
	b := PointLensing{Gamma1: 0.5, Gamma2: 1, Kappa: 1.5, Alpha1: 2, Alpha2: 2.5}

	require.Equal(t, PointLensing{Gamma1: 1.5, Gamma2: 3, Kappa: 4.5, Alpha1: 6, Alpha2: 7.5}, a.Add(b))
	require.Equal(t, b, a.Sub(b))
	require.Equal(t, b, a.Scale(0.5))
}
