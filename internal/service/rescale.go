package service

import (
	"fmt"

	"github.com/nataliehogg/los-proof-of-concept/internal/cosmology"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

// Rescaler computes the thin-lens distance-ratio factors that move a
// halo's own single-plane convergence/shear to its effective value at
// the od or ds plane. All factors are dimensionless ratios of
// angular-diameter distances and must come out finite and strictly
// positive; anything else is a degenerate configuration and fatal.
type Rescaler struct {
	frame *cosmology.Frame
}

func NewRescaler(frame *cosmology.Frame) *Rescaler {
	return &Rescaler{frame: frame}
}

// FactorOD is the foreground rescale
// dA(z_h, z_lens) * d_os / (d_od * dA(z_h, z_source)).
func (r *Rescaler) FactorOD(zHalo float64) (float64, error) {
	f := r.frame
	dhl := f.Cosmo.AngularDiameterDistance(zHalo, f.ZLens)
	dhs := f.Cosmo.AngularDiameterDistance(zHalo, f.ZSource)
	if dhl <= 0 || dhs <= 0 {
		return 0, fmt.Errorf("%w: od rescale for halo z %v: dA(z_h,z_lens) %v, dA(z_h,z_source) %v",
			domain.ErrNumericDegeneracy, zHalo, dhl, dhs)
	}
	return dhl * f.DOS / (f.DOD * dhs), nil
}

// CancellationOD is the rescale applied to a foreground halo's
// convergence counter-term when the od multi-plane system is built:
// dA(z_h, z_lens) * d_os / (d_od * d_os), which reduces to
// dA(z_h, z_lens) / d_od. It shares its distance ratios with FactorOD so
// the od system keeps a physically consistent mean convergence.
func (r *Rescaler) CancellationOD(zHalo float64) (float64, error) {
	f := r.frame
	dhl := f.Cosmo.AngularDiameterDistance(zHalo, f.ZLens)
	if dhl <= 0 {
		return 0, fmt.Errorf("%w: od cancellation rescale for halo z %v: dA(z_h,z_lens) %v",
			domain.ErrNumericDegeneracy, zHalo, dhl)
	}
	return dhl / f.DOD, nil
}

// FactorDS is the background rescale
// dA(z_lens, z_h) * d_os / (d_ds * dA(z_obs, z_h)).
func (r *Rescaler) FactorDS(zHalo float64) (float64, error) {
	f := r.frame
	dlh := f.Cosmo.AngularDiameterDistance(f.ZLens, zHalo)
	doh := f.Cosmo.AngularDiameterDistance(f.ZObs, zHalo)
	if dlh < 0 || doh <= 0 {
		return 0, fmt.Errorf("%w: ds rescale for halo z %v: dA(z_lens,z_h) %v, dA(z_obs,z_h) %v",
			domain.ErrNumericDegeneracy, zHalo, dlh, doh)
	}
	return dlh * f.DOS / (f.DDS * doh), nil
}
