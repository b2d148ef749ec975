package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"signalbot/internal/model"
)

// Latest returns the newest record in collection by timestamp; among equal
// timestamps the last inserted wins. Returns nil, nil for an empty collection.
func (s *PositionStore) Latest(ctx context.Context, collection string) (*model.PositionRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM positions
		WHERE collection = ?
		ORDER BY ts DESC, seq DESC
		LIMIT 1
	`, collection).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite read latest position: %w", err)
	}

	var rec model.PositionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("sqlite decode position: %w", err)
	}
	return &rec, nil
}

// Recent returns up to limit records in collection, newest first.
func (s *PositionStore) Recent(ctx context.Context, collection string, limit int) ([]model.PositionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM positions
		WHERE collection = ?
		ORDER BY ts DESC, seq DESC
		LIMIT ?
	`, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query positions: %w", err)
	}
	defer rows.Close()

	var out []model.PositionRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("sqlite scan position: %w", err)
		}
		var rec model.PositionRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("sqlite decode position: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
