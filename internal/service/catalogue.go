package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/store"
)

var (
	ErrCatalogueEmpty    = errors.New("catalogue has no haloes")
	ErrCatalogueNotFound = errors.New("catalogue not found")
)

// CatalogueService validates and stores uploaded halo catalogues.
// Validation happens before anything touches the database: a catalogue
// that fails is never partially stored.
type CatalogueService struct {
	catalogueStore domain.CatalogueStore
}

func NewCatalogueService(cs domain.CatalogueStore) *CatalogueService {
	return &CatalogueService{catalogueStore: cs}
}

func (s *CatalogueService) Create(ctx context.Context, haloes []domain.Halo) (*domain.CatalogueRecord, error) {
	if len(haloes) == 0 {
		return nil, ErrCatalogueEmpty
	}
	if err := domain.CatalogueFromHaloes(haloes).Validate(); err != nil {
		return nil, err
	}
	return s.catalogueStore.Create(ctx, haloes)
}

func (s *CatalogueService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CatalogueRecord, error) {
	rec, err := s.catalogueStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCatalogueNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *CatalogueService) Haloes(ctx context.Context, id uuid.UUID) ([]domain.Halo, error) {
	haloes, err := s.catalogueStore.Haloes(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCatalogueNotFound
		}
		return nil, err
	}
	return haloes, nil
}
