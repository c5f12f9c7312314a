package mission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldnet/internal/geofence"
	"fieldnet/pkg/platform/sentinel"
)

// PostgresStore persists missions and claims in PostgreSQL via pgx.
//
// Claim insertion uses ON CONFLICT DO NOTHING against the unique
// (mission_id, user_name) index: the "already claimed" fact comes from the
// statement's row count, so no engine error code ever crosses this boundary.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a PostgreSQL-backed mission store.
func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the missions and user_missions tables if missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS missions (
			id            UUID PRIMARY KEY,
			title         TEXT NOT NULL,
			description   TEXT,
			bounty_points INT NOT NULL DEFAULT 10,
			geometry      JSONB NOT NULL,
			created_by    TEXT NOT NULL,
			active        BOOLEAN NOT NULL DEFAULT TRUE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS user_missions (
			id           UUID PRIMARY KEY,
			mission_id   UUID NOT NULL REFERENCES missions(id),
			user_name    TEXT NOT NULL,
			status       TEXT NOT NULL,
			accepted_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ,
			UNIQUE (mission_id, user_name)
		)`)
	if err != nil {
		return fmt.Errorf("ensure missions schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, m *Mission) error {
	geometry, err := json.Marshal(m.Geometry)
	if err != nil {
		return fmt.Errorf("marshal mission geometry: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO missions
			(id, title, description, bounty_points, geometry, created_by, active, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		m.ID, m.Title, m.Description, m.BountyPoints, geometry, m.CreatedBy, m.Active, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert mission: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*Mission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, bounty_points, geometry, created_by, active, created_at
		FROM missions
		WHERE active
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query active missions: %w", err)
	}
	defer rows.Close()

	var (
		out  []*Mission
		ids  []string
		byID = make(map[string]*Mission)
	)
	for rows.Next() {
		var (
			m           Mission
			description *string
			geometry    []byte
		)
		if err := rows.Scan(&m.ID, &m.Title, &description, &m.BountyPoints,
			&geometry, &m.CreatedBy, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		if description != nil {
			m.Description = *description
		}
		var g geofence.Geometry
		if err := json.Unmarshal(geometry, &g); err != nil {
			return nil, fmt.Errorf("decode mission geometry: %w", err)
		}
		m.Geometry = &g
		m.UserMissions = []ClaimSummary{}
		out = append(out, &m)
		ids = append(ids, m.ID)
		byID[m.ID] = &m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	claimRows, err := s.pool.Query(ctx, `
		SELECT mission_id, user_name, status
		FROM user_missions
		WHERE mission_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query claim rosters: %w", err)
	}
	defer claimRows.Close()
	for claimRows.Next() {
		var (
			missionID string
			summary   ClaimSummary
		)
		if err := claimRows.Scan(&missionID, &summary.UserName, &summary.Status); err != nil {
			return nil, fmt.Errorf("scan claim roster: %w", err)
		}
		if m, ok := byID[missionID]; ok {
			m.UserMissions = append(m.UserMissions, summary)
		}
	}
	return out, claimRows.Err()
}

func (s *PostgresStore) CreateClaimIfAbsent(ctx context.Context, c *UserMission) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO user_missions (id, mission_id, user_name, status, accepted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mission_id, user_name) DO NOTHING`,
		c.ID, c.MissionID, c.UserName, c.Status, c.AcceptedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// Foreign key: the mission itself does not exist.
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *PostgresStore) CompleteClaim(ctx context.Context, missionID, userName string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE user_missions
		SET status = $4, completed_at = $3
		WHERE mission_id = $1 AND user_name = $2 AND status = $5`,
		missionID, userName, at, ClaimCompleted, ClaimAccepted)
	if err != nil {
		return false, fmt.Errorf("complete claim: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
