package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
)

type CatalogueStore struct {
	db *pgxpool.Pool
}

func NewCatalogueStore(db *pgxpool.Pool) *CatalogueStore {
	return &CatalogueStore{db: db}
}

// Create stores a catalogue and its halo rows in one transaction. Row
// index preserves upload order; it is the halo's identity within the
// catalogue.
func (s *CatalogueStore) Create(ctx context.Context, haloes []domain.Halo) (*domain.CatalogueRecord, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec := &domain.CatalogueRecord{Size: len(haloes)}
	err = tx.QueryRow(ctx,
		`INSERT INTO catalogues (size) VALUES ($1)
		 RETURNING id, created_at`,
		len(haloes),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	batch := &pgx.Batch{}
	for i, h := range haloes {
		batch.Queue(
			`INSERT INTO catalogue_haloes (catalogue_id, row_idx, z, mass, concentration, center_x, center_y, del)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, i, h.Z, h.Mass, h.Concentration, h.CenterX, h.CenterY, h.Del,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *CatalogueStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.CatalogueRecord, error) {
	rec := &domain.CatalogueRecord{}
	err := s.db.QueryRow(ctx,
		`SELECT id, size, created_at FROM catalogues WHERE id = $1`,
		id,
	).Scan(&rec.ID, &rec.Size, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Haloes returns the catalogue rows in upload order.
func (s *CatalogueStore) Haloes(ctx context.Context, id uuid.UUID) ([]domain.Halo, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT z, mass, concentration, center_x, center_y, del
		 FROM catalogue_haloes WHERE catalogue_id = $1 ORDER BY row_idx`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var haloes []domain.Halo
	for rows.Next() {
		var h domain.Halo
		if err := rows.Scan(&h.Z, &h.Mass, &h.Concentration, &h.CenterX, &h.CenterY, &h.Del); err != nil {
			return nil, err
		}
		haloes = append(haloes, h)
	}
	return haloes, rows.Err()
}
