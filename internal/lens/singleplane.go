// Package lens evaluates lensing quantities at a point, either for a
// single deflector plane or for a multi-plane system traced with the
// recursive deflection formula.
package lens

import (
	"fmt"
	"math"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/nfw"
)

// Deflector is any profile evaluable in angular units.
type Deflector interface {
	Deflection(x, y float64) (ax, ay float64)
	Convergence(x, y float64) float64
	Shear(x, y float64) (g1, g2 float64)
}

// PointLensing is the lensing field of a system at one angular position.
type PointLensing struct {
	Gamma1 float64
	Gamma2 float64
	Kappa  float64
	Alpha1 float64
	Alpha2 float64
}

// Add returns the component-wise sum a + b.
func (a PointLensing) Add(b PointLensing) PointLensing {
	return PointLensing{
		Gamma1: a.Gamma1 + b.Gamma1,
		Gamma2: a.Gamma2 + b.Gamma2,
		Kappa:  a.Kappa + b.Kappa,
		Alpha1: a.Alpha1 + b.Alpha1,
		Alpha2: a.Alpha2 + b.Alpha2,
	}
}

// Sub returns the component-wise difference a - b.
func (a PointLensing) Sub(b PointLensing) PointLensing {
	return PointLensing{
		Gamma1: a.Gamma1 - b.Gamma1,
		Gamma2: a.Gamma2 - b.Gamma2,
		Kappa:  a.Kappa - b.Kappa,
		Alpha1: a.Alpha1 - b.Alpha1,
		Alpha2: a.Alpha2 - b.Alpha2,
	}
}

// Scale returns a scaled by f.
func (a PointLensing) Scale(f float64) PointLensing {
	return PointLensing{
		Gamma1: f * a.Gamma1,
		Gamma2: f * a.Gamma2,
		Kappa:  f * a.Kappa,
		Alpha1: f * a.Alpha1,
		Alpha2: f * a.Alpha2,
	}
}

// SinglePlane evaluates one NFW profile at (x, y) arcsec under a plain
// single-plane lens model. Invalid profile parameters are a computation
// error, never coerced.
func SinglePlane(p nfw.Profile, x, y float64) (PointLensing, error) {
	if math.IsNaN(p.Rs) || p.Rs <= 0 || math.IsNaN(p.AlphaRs) || math.IsInf(p.AlphaRs, 0) {
		return PointLensing{}, fmt.Errorf("%w: Rs %v, alpha_Rs %v", domain.ErrNumericDegeneracy, p.Rs, p.AlphaRs)
	}
	g1, g2 := p.Shear(x, y)
	a1, a2 := p.Deflection(x, y)
	return PointLensing{
		Gamma1: g1,
		Gamma2: g2,
		Kappa:  p.Convergence(x, y),
		Alpha1: a1,
		Alpha2: a2,
	}, nil
}
