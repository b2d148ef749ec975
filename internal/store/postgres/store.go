// Package postgres is the PostgreSQL position store, built on a pgx pool.
// Records are kept as jsonb in one append-only table.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"signalbot/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	seq        BIGSERIAL   PRIMARY KEY,
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL DEFAULT '',
	ts         BIGINT      NOT NULL,
	data       JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_positions_latest ON positions (collection, ts DESC, seq DESC);
`

// PositionStore implements model.PositionStore on PostgreSQL.
type PositionStore struct {
	pool *pgxpool.Pool
}

// New connects to dsn and ensures the schema exists.
func New(ctx context.Context, dsn string) (*PositionStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres parse dsn: %w", err)
	}
	cfg.MaxConns = 2

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	slog.Debug("postgres store connected", slog.String("component", "store"),
		slog.String("host", cfg.ConnConfig.Host), slog.String("database", cfg.ConnConfig.Database))
	return &PositionStore{pool: pool}, nil
}

// Append inserts rec into collection.
func (s *PositionStore) Append(ctx context.Context, collection string, rec model.PositionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("postgres marshal record: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO positions (collection, id, ts, data) VALUES ($1, $2, $3, $4)`,
		collection, rec.ID, rec.Timestamp, data,
	)
	if err != nil {
		return fmt.Errorf("postgres insert position: %w", err)
	}
	return nil
}

// Latest returns the newest record by timestamp, last inserted on ties.
// Returns nil, nil for an empty collection.
func (s *PositionStore) Latest(ctx context.Context, collection string) (*model.PositionRecord, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM positions
		WHERE collection = $1
		ORDER BY ts DESC, seq DESC
		LIMIT 1`, collection).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres read latest position: %w", err)
	}

	var rec model.PositionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("postgres decode position: %w", err)
	}
	return &rec, nil
}

// Recent returns up to limit records, newest first.
func (s *PositionStore) Recent(ctx context.Context, collection string, limit int) ([]model.PositionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT data FROM positions
		WHERE collection = $1
		ORDER BY ts DESC, seq DESC
		LIMIT $2`, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres query positions: %w", err)
	}

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PositionRecord, error) {
		var data []byte
		var rec model.PositionRecord
		if err := row.Scan(&data); err != nil {
			return rec, err
		}
		return rec, json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("postgres scan positions: %w", err)
	}
	return recs, nil
}

// Close closes the pool.
func (s *PositionStore) Close() error {
	s.pool.Close()
	return nil
}
