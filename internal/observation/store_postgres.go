package observation

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldnet/pkg/platform/sentinel"
)

// PostgresStore persists observations in PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed observation store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the observations table if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS observations (
			id               UUID PRIMARY KEY,
			category         TEXT NOT NULL,
			latitude         DOUBLE PRECISION NOT NULL,
			longitude        DOUBLE PRECISION NOT NULL,
			image_url        TEXT,
			ai_label         TEXT,
			confidence_score DOUBLE PRECISION,
			user_name        TEXT NOT NULL,
			notes            TEXT,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			verified         BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	if err != nil {
		return fmt.Errorf("ensure observations schema: %w", err)
	}
	return nil
}

const observationColumns = `id, category, latitude, longitude, image_url, ai_label,
	confidence_score, user_name, notes, created_at, verified`

func (s *PostgresStore) Insert(ctx context.Context, o *Observation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO observations
			(id, category, latitude, longitude, image_url, ai_label,
			 confidence_score, user_name, notes, created_at, verified)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, NULLIF($9, ''), $10, $11)`,
		o.ID, o.Category, o.Latitude, o.Longitude, o.ImageURL, o.AILabel,
		o.ConfidenceScore, o.UserName, o.Notes, o.CreatedAt, o.Verified)
	if err != nil {
		return fmt.Errorf("insert observation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Observation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+observationColumns+` FROM observations WHERE id = $1`, id)
	o, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find observation by id: %w", err)
	}
	return o, nil
}

func (s *PostgresStore) FindRecent(ctx context.Context, limit int) ([]*Observation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+observationColumns+`
		 FROM observations
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent observations: %w", err)
	}
	defer rows.Close()

	var out []*Observation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM observations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete observation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetVerified(ctx context.Context, id string, verified bool) (*Observation, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE observations SET verified = $2 WHERE id = $1
		RETURNING `+observationColumns, id, verified)
	o, err := scanObservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("set observation verified: %w", err)
	}
	return o, nil
}

func scanObservation(row pgx.Row) (*Observation, error) {
	var (
		o        Observation
		imageURL *string
		aiLabel  *string
		notes    *string
	)
	err := row.Scan(&o.ID, &o.Category, &o.Latitude, &o.Longitude, &imageURL,
		&aiLabel, &o.ConfidenceScore, &o.UserName, &notes, &o.CreatedAt, &o.Verified)
	if err != nil {
		return nil, err
	}
	if imageURL != nil {
		o.ImageURL = *imageURL
	}
	if aiLabel != nil {
		o.AILabel = *aiLabel
	}
	if notes != nil {
		o.Notes = *notes
	}
	return &o, nil
}
