package domain

import (
	"fmt"
	"math"
)

// Halo is one line-of-sight mass concentration as stored and transported.
// The first six fields come from the input catalogue; the remaining fields
// are derived during a pipeline run (os-context angular profile and own
// single-plane lensing at the optical axis) and are zero until then.
type Halo struct {
	Z             float64 `json:"z"`
	Mass          float64 `json:"mass"`
	Concentration float64 `json:"concentration"`
	CenterX       float64 `json:"center_x"`
	CenterY       float64 `json:"center_y"`
	Del           float64 `json:"del"`

	Rs        float64 `json:"rs,omitempty"`
	AlphaRs   float64 `json:"alpha_rs,omitempty"`
	Gamma1Own float64 `json:"gamma1_own,omitempty"`
	Gamma2Own float64 `json:"gamma2_own,omitempty"`
	KappaOwn  float64 `json:"kappa_own,omitempty"`
}

// Catalogue is a struct-of-arrays halo table. All slices share the same
// length; a halo is one index across all of them. Pipeline stages never
// mutate a catalogue they received; they produce fresh ones.
type Catalogue struct {
	Z             []float64
	Mass          []float64
	Concentration []float64
	CenterX       []float64
	CenterY       []float64
	Del           []float64

	Rs        []float64
	AlphaRs   []float64
	Gamma1Own []float64
	Gamma2Own []float64
	KappaOwn  []float64
}

// NewCatalogue builds an empty catalogue with capacity for n haloes.
func NewCatalogue(n int) *Catalogue {
	return &Catalogue{
		Z:             make([]float64, 0, n),
		Mass:          make([]float64, 0, n),
		Concentration: make([]float64, 0, n),
		CenterX:       make([]float64, 0, n),
		CenterY:       make([]float64, 0, n),
		Del:           make([]float64, 0, n),
		Rs:            make([]float64, 0, n),
		AlphaRs:       make([]float64, 0, n),
		Gamma1Own:     make([]float64, 0, n),
		Gamma2Own:     make([]float64, 0, n),
		KappaOwn:      make([]float64, 0, n),
	}
}

// CatalogueFromHaloes converts a row-oriented halo list into a catalogue.
func CatalogueFromHaloes(haloes []Halo) *Catalogue {
	c := NewCatalogue(len(haloes))
	for _, h := range haloes {
		c.Append(h)
	}
	return c
}

func (c *Catalogue) Len() int { return len(c.Z) }

// Append adds one halo row, derived fields included.
func (c *Catalogue) Append(h Halo) {
	c.Z = append(c.Z, h.Z)
	c.Mass = append(c.Mass, h.Mass)
	c.Concentration = append(c.Concentration, h.Concentration)
	c.CenterX = append(c.CenterX, h.CenterX)
	c.CenterY = append(c.CenterY, h.CenterY)
	c.Del = append(c.Del, h.Del)
	c.Rs = append(c.Rs, h.Rs)
	c.AlphaRs = append(c.AlphaRs, h.AlphaRs)
	c.Gamma1Own = append(c.Gamma1Own, h.Gamma1Own)
	c.Gamma2Own = append(c.Gamma2Own, h.Gamma2Own)
	c.KappaOwn = append(c.KappaOwn, h.KappaOwn)
}

// Halo returns row i as a row-oriented value.
func (c *Catalogue) Halo(i int) Halo {
	return Halo{
		Z:             c.Z[i],
		Mass:          c.Mass[i],
		Concentration: c.Concentration[i],
		CenterX:       c.CenterX[i],
		CenterY:       c.CenterY[i],
		Del:           c.Del[i],
		Rs:            c.Rs[i],
		AlphaRs:       c.AlphaRs[i],
		Gamma1Own:     c.Gamma1Own[i],
		Gamma2Own:     c.Gamma2Own[i],
		KappaOwn:      c.KappaOwn[i],
	}
}

// Haloes returns all rows as a row-oriented slice.
func (c *Catalogue) Haloes() []Halo {
	out := make([]Halo, c.Len())
	for i := range out {
		out[i] = c.Halo(i)
	}
	return out
}

// Select copies the rows at the given indices into a new catalogue,
// preserving their order.
func (c *Catalogue) Select(idx []int) *Catalogue {
	out := NewCatalogue(len(idx))
	for _, i := range idx {
		out.Append(c.Halo(i))
	}
	return out
}

// Validate checks the input columns row by row: redshift, mass,
// concentration, position and Del must be finite, mass and concentration
// strictly positive, redshift non-negative. The first offending row is
// reported; nothing downstream runs on a catalogue that fails here.
func (c *Catalogue) Validate() error {
	for i := 0; i < c.Len(); i++ {
		switch {
		case !isFinite(c.Z[i]) || c.Z[i] < 0:
			return fmt.Errorf("%w: row %d: redshift %v", ErrInvalidCatalogue, i, c.Z[i])
		case !isFinite(c.Mass[i]) || c.Mass[i] <= 0:
			return fmt.Errorf("%w: row %d: mass %v", ErrInvalidCatalogue, i, c.Mass[i])
		case !isFinite(c.Concentration[i]) || c.Concentration[i] <= 0:
			return fmt.Errorf("%w: row %d: concentration %v", ErrInvalidCatalogue, i, c.Concentration[i])
		case !isFinite(c.CenterX[i]) || !isFinite(c.CenterY[i]):
			return fmt.Errorf("%w: row %d: non-finite position", ErrInvalidCatalogue, i)
		case !isFinite(c.Del[i]):
			return fmt.Errorf("%w: row %d: non-finite Del", ErrInvalidCatalogue, i)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
