package model

import "context"

// ── Collaborator Port Interfaces ──
// These interfaces decouple the decision cycle from concrete market data,
// storage and notification implementations.

// CandleSource fetches the most recent candles for one instrument.
type CandleSource interface {
	// FetchCandles returns up to count candles for symbol at timeframe
	// (e.g. "15m"), ascending by time.
	FetchCandles(ctx context.Context, symbol, timeframe string, count int) ([]Candle, error)
}

// PositionStore is an append-only record store.
type PositionStore interface {
	// Latest returns the most recent record by timestamp in collection.
	// Returns nil, nil when the collection is empty.
	Latest(ctx context.Context, collection string) (*PositionRecord, error)

	// Append adds a record to collection. Records are never updated.
	Append(ctx context.Context, collection string, rec PositionRecord) error

	// Close releases underlying resources.
	Close() error
}
