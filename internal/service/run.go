package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/store"
)

var ErrRunNotFound = errors.New("run not found")

// RunService executes pipeline runs against stored catalogues and
// persists their outcome. A failed run is recorded with its error
// message; no result or surviving-halo rows are written for it.
type RunService struct {
	catalogueStore domain.CatalogueStore
	runStore       domain.RunStore
	pipeline       *LOSService
	logger         *zap.Logger
}

func NewRunService(cs domain.CatalogueStore, rs domain.RunStore, pipeline *LOSService, logger *zap.Logger) *RunService {
	return &RunService{catalogueStore: cs, runStore: rs, pipeline: pipeline, logger: logger}
}

// Execute runs the pipeline synchronously. The returned error carries
// the pipeline failure class for the caller to map; the run row is
// persisted either way.
func (s *RunService) Execute(ctx context.Context, catalogueID uuid.UUID, params domain.RunParams) (*domain.Run, error) {
	haloes, err := s.catalogueStore.Haloes(ctx, catalogueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCatalogueNotFound
		}
		return nil, err
	}

	run := &domain.Run{
		ID:          uuid.New(),
		CatalogueID: catalogueID,
		Params:      params,
		CreatedAt:   time.Now().UTC(),
	}

	result, runErr := s.pipeline.Run(ctx, domain.CatalogueFromHaloes(haloes), params)
	if runErr != nil {
		run.Status = domain.RunStatusFailed
		run.Error = runErr.Error()
		if err := s.runStore.Create(ctx, run); err != nil {
			s.logger.Warn("failed to record failed run", zap.String("run_id", run.ID.String()), zap.Error(err))
		}
		return nil, runErr
	}

	run.Status = domain.RunStatusCompleted
	run.NumSurviving = result.Surviving.Len()
	run.NumDiscarded = result.Discarded.Len()

	if err := s.runStore.Create(ctx, run); err != nil {
		return nil, err
	}
	if err := s.runStore.SaveResult(ctx, run.ID, &result.Record, result.Surviving.Haloes()); err != nil {
		return nil, err
	}
	return run, nil
}

func (s *RunService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	run, err := s.runStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return run, nil
}

func (s *RunService) Result(ctx context.Context, id uuid.UUID) (*domain.ShearConvergenceRecord, error) {
	rec, err := s.runStore.Result(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *RunService) SurvivingHaloes(ctx context.Context, id uuid.UUID) ([]domain.Halo, error) {
	haloes, err := s.runStore.SurvivingHaloes(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return haloes, nil
}
