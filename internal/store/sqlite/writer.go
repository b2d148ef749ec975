// Package sqlite is the file-backed position store. Records are kept in one
// append-only table; there is no update or delete path.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"signalbot/internal/model"
)

// Config configures the SQLite store.
type Config struct {
	DBPath string // path to SQLite database file, e.g. "data/signals.db"
}

// PositionStore implements model.PositionStore on SQLite.
type PositionStore struct {
	db *sql.DB
}

// DB returns the underlying sql.DB for health checks.
func (s *PositionStore) DB() *sql.DB { return s.db }

// New opens the database with WAL mode and creates the schema.
func New(cfg Config) (*PositionStore, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer; one run per process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Debug("sqlite store opened", slog.String("component", "store"), slog.String("path", cfg.DBPath))
	return &PositionStore{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS positions (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			collection TEXT    NOT NULL,
			id         TEXT    NOT NULL DEFAULT '',
			ts         INTEGER NOT NULL,
			data       TEXT    NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		);

		CREATE INDEX IF NOT EXISTS idx_positions_latest
			ON positions (collection, ts DESC, seq DESC);
	`)
	return err
}

// Append inserts rec into collection.
func (s *PositionStore) Append(ctx context.Context, collection string, rec model.PositionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("sqlite marshal record: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO positions (collection, id, ts, data) VALUES (?, ?, ?, ?)`,
		collection, rec.ID, rec.Timestamp, string(data),
	)
	if err != nil {
		return fmt.Errorf("sqlite insert position: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *PositionStore) Close() error {
	return s.db.Close()
}
