package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CatalogueRecord is the stored metadata of an uploaded halo catalogue.
type CatalogueRecord struct {
	ID        uuid.UUID `json:"id"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

type CatalogueStore interface {
	Create(ctx context.Context, haloes []Halo) (*CatalogueRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CatalogueRecord, error)
	Haloes(ctx context.Context, id uuid.UUID) ([]Halo, error)
}

type RunStore interface {
	Create(ctx context.Context, r *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	SaveResult(ctx context.Context, runID uuid.UUID, rec *ShearConvergenceRecord, surviving []Halo) error
	Result(ctx context.Context, runID uuid.UUID) (*ShearConvergenceRecord, error)
	SurvivingHaloes(ctx context.Context, runID uuid.UUID) ([]Halo, error)
}
