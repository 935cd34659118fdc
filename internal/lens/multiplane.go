package lens

import (
	"fmt"
	"sort"

	"github.com/nataliehogg/los-proof-of-concept/internal/cosmology"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

// PlaneKind tags the profile kind of one plane entry.
type PlaneKind string

const (
	PlaneNFW         PlaneKind = "NFW"
	PlaneConvergence PlaneKind = "CONVERGENCE"
)

// Plane is one entry of a multi-plane system: a deflector at a redshift.
// Deflection angles of the deflector must be reduced with respect to the
// system's source redshift.
type Plane struct {
	Kind      PlaneKind
	Z         float64
	Deflector Deflector
}

// System is a multi-plane lens configuration: redshift-ordered planes in
// front of a terminal source plane. Rays are traced with the recursive
// deflection formula in comoving coordinates, so the deflection at each
// plane depends on the accumulated deflection of all preceding planes.
type System struct {
	planes []Plane
	chi    []float64 // comoving distance per plane, Mpc
	chiS   float64
}

// NewSystem sorts the planes by redshift and precomputes comoving
// distances. Planes at or beyond the source redshift violate the
// ordering contract.
func NewSystem(c *cosmology.Cosmology, zSource float64, planes []Plane) (*System, error) {
	if zSource <= 0 {
		return nil, fmt.Errorf("%w: source z %v", domain.ErrRedshiftOrdering, zSource)
	}
	sorted := make([]Plane, len(planes))
	copy(sorted, planes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Z < sorted[j].Z })

	s := &System{
		planes: sorted,
		chi:    make([]float64, len(sorted)),
		chiS:   c.ComovingDistance(zSource),
	}
	for i, p := range sorted {
		if p.Z <= 0 || p.Z >= zSource {
			return nil, fmt.Errorf("%w: plane z %v against source z %v", domain.ErrRedshiftOrdering, p.Z, zSource)
		}
		s.chi[i] = c.ComovingDistance(p.Z)
	}
	return s, nil
}

// Len returns the number of plane entries.
func (s *System) Len() int { return len(s.planes) }

// RayShoot traces the angular position (t1, t2) arcsec back to the source
// plane and returns the source-plane position beta. Planes at identical
// redshift act at a single comoving distance: their deflections are summed
// before the ray propagates further.
func (s *System) RayShoot(t1, t2 float64) (b1, b2 float64) {
	// Comoving transverse position and comoving angle. Angles stay in
	// arcsec throughout; the formula is linear in the angle so no unit
	// conversion is needed.
	var x1, x2 float64
	a1, a2 := t1, t2
	chiPrev := 0.0

	for i := 0; i < len(s.planes); {
		chiI := s.chi[i]
		x1 += a1 * (chiI - chiPrev)
		x2 += a2 * (chiI - chiPrev)
		th1, th2 := x1/chiI, x2/chiI

		// Reduced-to-physical conversion for a deflector at chiI with
		// the source at chiS, flat universe.
		conv := s.chiS / (s.chiS - chiI)

		var d1, d2 float64
		j := i
		for ; j < len(s.planes) && s.chi[j] == chiI; j++ {
			ax, ay := s.planes[j].Deflector.Deflection(th1, th2)
			d1 += ax
			d2 += ay
		}
		a1 -= d1 * conv
		a2 -= d2 * conv

		chiPrev = chiI
		i = j
	}

	x1 += a1 * (s.chiS - chiPrev)
	x2 += a2 * (s.chiS - chiPrev)
	return x1 / s.chiS, x2 / s.chiS
}

// Deflection returns the effective deflection alpha = theta - beta.
func (s *System) Deflection(t1, t2 float64) (a1, a2 float64) {
	b1, b2 := s.RayShoot(t1, t2)
	return t1 - b1, t2 - b2
}

// hessianStep is the central-difference step for the effective lensing
// Jacobian, in arcsec. Small against any NFW scale radius of interest,
// large enough to stay clear of float64 cancellation.
const hessianStep = 1e-5

// Evaluate returns the net lensing field of the system at (t1, t2):
// effective deflection, and shear/convergence from the numerical Jacobian
// of the deflection. An empty system yields the zero field.
func (s *System) Evaluate(t1, t2 float64) PointLensing {
	if len(s.planes) == 0 {
		return PointLensing{}
	}

	a1, a2 := s.Deflection(t1, t2)

	d := hessianStep
	axE, ayE := s.Deflection(t1+d, t2)
	axW, ayW := s.Deflection(t1-d, t2)
	axN, ayN := s.Deflection(t1, t2+d)
	axS, ayS := s.Deflection(t1, t2-d)

	daxdx := (axE - axW) / (2 * d)
	daxdy := (axN - axS) / (2 * d)
	daydx := (ayE - ayW) / (2 * d)
	daydy := (ayN - ayS) / (2 * d)

	return PointLensing{
		Kappa:  (daxdx + daydy) / 2,
		Gamma1: (daxdx - daydy) / 2,
		Gamma2: (daxdy + daydx) / 2,
		Alpha1: a1,
		Alpha2: a2,
	}
}
