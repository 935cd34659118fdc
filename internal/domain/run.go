package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunParams are the externally supplied inputs of one pipeline run.
// KappaMax and DelMax have no defaults anywhere in the code; callers must
// provide them. H0 and OmegaM default from config at the API boundary.
type RunParams struct {
	ZObs     float64 `json:"z_obs"`
	ZLens    float64 `json:"z_lens"`
	ZSource  float64 `json:"z_source"`
	KappaMax float64 `json:"kappa_max"`
	DelMax   float64 `json:"del_max"`
	H0       float64 `json:"h0"`
	OmegaM   float64 `json:"omega_m"`
}

// Validate checks the parameter block before any computation starts.
func (p RunParams) Validate() error {
	if !isFinite(p.ZObs) || !isFinite(p.ZLens) || !isFinite(p.ZSource) {
		return fmt.Errorf("%w: non-finite redshift parameter", ErrRedshiftOrdering)
	}
	if p.ZObs < 0 || p.ZLens <= p.ZObs || p.ZSource <= p.ZLens {
		return fmt.Errorf("%w: need z_obs < z_lens < z_source, got %v, %v, %v",
			ErrRedshiftOrdering, p.ZObs, p.ZLens, p.ZSource)
	}
	if !isFinite(p.KappaMax) || !isFinite(p.DelMax) {
		return fmt.Errorf("%w: non-finite cut threshold", ErrInvalidCatalogue)
	}
	if p.H0 <= 0 || p.OmegaM <= 0 || p.OmegaM > 1 {
		return fmt.Errorf("%w: H0 %v, Omega_m %v", ErrNumericDegeneracy, p.H0, p.OmegaM)
	}
	return nil
}

// Run is one executed (or attempted) pipeline run against a stored
// catalogue.
type Run struct {
	ID           uuid.UUID `json:"id"`
	CatalogueID  uuid.UUID `json:"catalogue_id"`
	Params       RunParams `json:"params"`
	Status       RunStatus `json:"status"`
	Error        string    `json:"error,omitempty"`
	NumSurviving int       `json:"num_surviving"`
	NumDiscarded int       `json:"num_discarded"`
	CreatedAt    time.Time `json:"created_at"`
}
