// Package nfw implements the lensing properties of a Navarro-Frenk-White
// halo in angular units, plus the uniform convergence sheet used as the
// mean-convergence counter-term in multi-plane systems.
//
// An NFW halo is parametrised by its angular scale radius Rs and the
// deflection alpha_Rs at the scale radius, both in arcsec. The conversion
// from physical (M200c, concentration) follows the standard
// critical-density definition: r200 encloses a mean density of 200 times
// the critical density at the halo redshift.
package nfw

import (
	"fmt"
	"math"

	"github.com/nataliehogg/los-proof-of-concept/internal/cosmology"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

// rMin is the numerical floor on the angular radius, in arcsec. The NFW
// convergence diverges logarithmically at the centre; evaluation exactly
// on a halo centre is clamped to this radius.
const rMin = 1e-6

// overdensity is the mean-density contrast defining r200.
const overdensity = 200.0

// Profile is one halo's angular lensing profile.
type Profile struct {
	Rs      float64 // angular scale radius, arcsec
	AlphaRs float64 // deflection at the scale radius, arcsec
	CenterX float64 // arcsec
	CenterY float64 // arcsec
}

// PhysicalToAngle converts a physical halo (mass in M_sun, dimensionless
// concentration) at zHalo, lensing sources at zRefSource, into angular
// profile parameters. The reference source redshift is part of the
// conversion: the same halo yields different (Rs, alpha_Rs) against
// different source planes, so callers must reconvert per plane context.
func PhysicalToAngle(c *cosmology.Cosmology, mass, concentration, zHalo, zRefSource float64) (rs, alphaRs float64, err error) {
	if mass <= 0 || concentration <= 0 {
		return 0, 0, fmt.Errorf("%w: mass %v, concentration %v", domain.ErrInvalidCatalogue, mass, concentration)
	}
	if zHalo < 0 || zHalo >= zRefSource {
		return 0, 0, fmt.Errorf("%w: halo z %v against source z %v", domain.ErrRedshiftOrdering, zHalo, zRefSource)
	}

	rhoCrit := c.CriticalDensity(zHalo)
	r200 := math.Cbrt(3 * mass / (4 * math.Pi * overdensity * rhoCrit))
	rsPhys := r200 / concentration
	mu := math.Log(1+concentration) - concentration/(1+concentration)
	rho0 := overdensity / 3 * rhoCrit * concentration * concentration * concentration / mu

	dd := c.AngularDiameterDistance(0, zHalo)
	if dd <= 0 {
		return 0, 0, fmt.Errorf("%w: dA(0, %v) = %v", domain.ErrNumericDegeneracy, zHalo, dd)
	}
	sigmaCrit, err := c.SigmaCrit(zHalo, zRefSource)
	if err != nil {
		return 0, 0, err
	}

	rs = rsPhys / dd / cosmology.ArcsecRad
	alphaRs = rho0 * 4 * rsPhys * rsPhys * (1 + math.Log(0.5)) / sigmaCrit / dd / cosmology.ArcsecRad
	return rs, alphaRs, nil
}

// rho0Angle recovers the angular density normalisation from alpha_Rs.
func rho0Angle(p Profile) float64 {
	return p.AlphaRs / (4 * p.Rs * p.Rs * (1 + math.Log(0.5)))
}

// Convergence returns kappa at (x, y) arcsec.
func (p Profile) Convergence(x, y float64) float64 {
	dx, dy := x-p.CenterX, y-p.CenterY
	r := math.Max(math.Hypot(dx, dy), rMin)
	return 2 * rho0Angle(p) * p.Rs * nfwF(r/p.Rs)
}

// Deflection returns the reduced deflection angle at (x, y) arcsec.
func (p Profile) Deflection(x, y float64) (ax, ay float64) {
	dx, dy := x-p.CenterX, y-p.CenterY
	r := math.Hypot(dx, dy)
	if r < rMin {
		// Deflection is antisymmetric about the centre and vanishes there.
		return 0, 0
	}
	u := r / p.Rs
	a := 4 * rho0Angle(p) * p.Rs * nfwG(u) / (u * u)
	return a * dx, a * dy
}

// Shear returns (gamma1, gamma2) at (x, y) arcsec.
func (p Profile) Shear(x, y float64) (g1, g2 float64) {
	dx, dy := x-p.CenterX, y-p.CenterY
	r := math.Max(math.Hypot(dx, dy), rMin)
	u := r / p.Rs
	a := 2 * rho0Angle(p) * p.Rs * (2*nfwG(u)/(u*u) - nfwF(u))
	return a * (dy*dy - dx*dx) / (r * r), -a * 2 * dx * dy / (r * r)
}

// fSeriesWindow bounds |u-1| inside which the closed form for F loses
// precision to cancellation: both the numerator and the u^2-1
// denominator vanish at u=1, so the quotient degrades as 1/(u-1)^2 in
// units of machine epsilon. The Taylor expansion about u=1 is exact to
// O(|u-1|^3) there.
const fSeriesWindow = 1e-3

// nfwF is the projected density shape function: kappa = 2 rho0 Rs F(u).
func nfwF(u float64) float64 {
	if e := u - 1; math.Abs(e) < fSeriesWindow {
		return 1.0/3.0 - 2.0/5.0*e + 13.0/35.0*e*e
	}
	if u < 1 {
		return (1 - 2/math.Sqrt(1-u*u)*math.Atanh(math.Sqrt((1-u)/(1+u)))) / (u*u - 1)
	}
	return (1 - 2/math.Sqrt(u*u-1)*math.Atan(math.Sqrt((u-1)/(u+1)))) / (u*u - 1)
}

// nfwG is the mean enclosed shape function: alpha = 4 rho0 Rs^2 g(u)/u.
func nfwG(u float64) float64 {
	switch {
	case u < 1:
		return math.Log(u/2) + math.Acosh(1/u)/math.Sqrt(1-u*u)
	case u > 1:
		return math.Log(u/2) + math.Acos(1/u)/math.Sqrt(u*u-1)
	default:
		return 1 + math.Log(0.5)
	}
}

// Sheet is a uniform convergence sheet. It carries no shear and deflects
// rays radially about the origin; a negative Kappa cancels the mean
// convergence of a paired halo in a multi-plane system.
type Sheet struct {
	Kappa float64
}

func (s Sheet) Convergence(x, y float64) float64 { return s.Kappa }

func (s Sheet) Deflection(x, y float64) (ax, ay float64) {
	return s.Kappa * x, s.Kappa * y
}

func (s Sheet) Shear(x, y float64) (g1, g2 float64) { return 0, 0 }
