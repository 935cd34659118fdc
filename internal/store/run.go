package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

type RunStore struct {
	db *pgxpool.Pool
}

func NewRunStore(db *pgxpool.Pool) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Create(ctx context.Context, r *domain.Run) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO runs (id, catalogue_id, z_obs, z_lens, z_source, kappa_max, del_max, h0, omega_m, status, error, num_surviving, num_discarded, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		r.ID, r.CatalogueID,
		r.Params.ZObs, r.Params.ZLens, r.Params.ZSource,
		r.Params.KappaMax, r.Params.DelMax, r.Params.H0, r.Params.OmegaM,
		r.Status, r.Error, r.NumSurviving, r.NumDiscarded, r.CreatedAt,
	)
	return err
}

func (s *RunStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	r := &domain.Run{}
	err := s.db.QueryRow(ctx,
		`SELECT id, catalogue_id, z_obs, z_lens, z_source, kappa_max, del_max, h0, omega_m, status, error, num_surviving, num_discarded, created_at
		 FROM runs WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.CatalogueID,
		&r.Params.ZObs, &r.Params.ZLens, &r.Params.ZSource,
		&r.Params.KappaMax, &r.Params.DelMax, &r.Params.H0, &r.Params.OmegaM,
		&r.Status, &r.Error, &r.NumSurviving, &r.NumDiscarded, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

// SaveResult stores the aggregate record and the annotated surviving
// haloes of a completed run in one transaction.
func (s *RunStore) SaveResult(ctx context.Context, runID uuid.UUID, rec *domain.ShearConvergenceRecord, surviving []domain.Halo) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO run_results (run_id,
			gamma1_os, gamma2_os, kappa_os, alpha1_os, alpha2_os,
			gamma1_od, gamma2_od, kappa_od, alpha1_od, alpha2_od,
			gamma1_ds, gamma2_ds, kappa_ds,
			gamma1_los, gamma2_los, kappa_los)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		runID,
		rec.Gamma1OS, rec.Gamma2OS, rec.KappaOS, rec.Alpha1OS, rec.Alpha2OS,
		rec.Gamma1OD, rec.Gamma2OD, rec.KappaOD, rec.Alpha1OD, rec.Alpha2OD,
		rec.Gamma1DS, rec.Gamma2DS, rec.KappaDS,
		rec.Gamma1LOS, rec.Gamma2LOS, rec.KappaLOS,
	)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, h := range surviving {
		batch.Queue(
			`INSERT INTO run_haloes (run_id, row_idx, z, mass, concentration, center_x, center_y, del, rs, alpha_rs, gamma1_own, gamma2_own, kappa_own)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			runID, i, h.Z, h.Mass, h.Concentration, h.CenterX, h.CenterY, h.Del,
			h.Rs, h.AlphaRs, h.Gamma1Own, h.Gamma2Own, h.KappaOwn,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *RunStore) Result(ctx context.Context, runID uuid.UUID) (*domain.ShearConvergenceRecord, error) {
	rec := &domain.ShearConvergenceRecord{}
	err := s.db.QueryRow(ctx,
		`SELECT gamma1_os, gamma2_os, kappa_os, alpha1_os, alpha2_os,
			gamma1_od, gamma2_od, kappa_od, alpha1_od, alpha2_od,
			gamma1_ds, gamma2_ds, kappa_ds,
			gamma1_los, gamma2_los, kappa_los
		 FROM run_results WHERE run_id = $1`,
		runID,
	).Scan(
		&rec.Gamma1OS, &rec.Gamma2OS, &rec.KappaOS, &rec.Alpha1OS, &rec.Alpha2OS,
		&rec.Gamma1OD, &rec.Gamma2OD, &rec.KappaOD, &rec.Alpha1OD, &rec.Alpha2OD,
		&rec.Gamma1DS, &rec.Gamma2DS, &rec.KappaDS,
		&rec.Gamma1LOS, &rec.Gamma2LOS, &rec.KappaLOS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *RunStore) SurvivingHaloes(ctx context.Context, runID uuid.UUID) ([]domain.Halo, error) {
	if _, err := s.GetByID(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT z, mass, concentration, center_x, center_y, del, rs, alpha_rs, gamma1_own, gamma2_own, kappa_own
		 FROM run_haloes WHERE run_id = $1 ORDER BY row_idx`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var haloes []domain.Halo
	for rows.Next() {
		var h domain.Halo
		if err := rows.Scan(&h.Z, &h.Mass, &h.Concentration, &h.CenterX, &h.CenterY, &h.Del,
			&h.Rs, &h.AlphaRs, &h.Gamma1Own, &h.Gamma2Own, &h.KappaOwn); err != nil {
			return nil, err
		}
		haloes = append(haloes, h)
	}
	return haloes, rows.Err()
}
