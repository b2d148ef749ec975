// Package redis is the Redis-backed position store. Each collection is a
// sorted set "positions:{collection}" scored by record timestamp. Members are
// "{seq}|{record JSON}" where seq comes from INCR on "positions:{collection}:seq",
// zero-padded so equal timestamps order by insertion.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"signalbot/internal/model"
)

// Config configures the Redis store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// PositionStore implements model.PositionStore on Redis.
type PositionStore struct {
	client *goredis.Client
	cb     *CircuitBreaker
}

// Client returns the underlying Redis client for health checks.
func (s *PositionStore) Client() *goredis.Client { return s.client }

// Breaker returns the circuit breaker guarding the client.
func (s *PositionStore) Breaker() *CircuitBreaker { return s.cb }

// New creates a Redis store and pings the server.
func New(cfg Config) (*PositionStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Debug("redis store connected", slog.String("component", "store"), slog.String("addr", cfg.Addr))
	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client) *PositionStore {
	cb := NewCircuitBreaker(3, 10*time.Second)
	cb.IsFailure = func(err error) bool {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, goredis.Nil)
	}
	cb.OnStateChange = func(from, to State) {
		slog.Warn("redis circuit breaker", slog.String("component", "store"),
			slog.String("from", from.String()), slog.String("to", to.String()))
	}
	return &PositionStore{client: client, cb: cb}
}

func key(collection string) string {
	return "positions:" + collection
}

func seqKey(collection string) string {
	return key(collection) + ":seq"
}

// member prefixes data with the zero-padded insertion sequence. Redis orders
// equal scores by member bytes, so the prefix makes ties resolve to the
// record appended last.
func member(seq int64, data []byte) string {
	return fmt.Sprintf("%020d|%s", seq, data)
}

// decodeMember strips the sequence prefix. Members written before the prefix
// existed are bare JSON.
func decodeMember(m string) (model.PositionRecord, error) {
	var rec model.PositionRecord
	if !strings.HasPrefix(m, "{") {
		if _, data, ok := strings.Cut(m, "|"); ok {
			m = data
		}
	}
	if err := json.Unmarshal([]byte(m), &rec); err != nil {
		return rec, fmt.Errorf("redis decode position: %w", err)
	}
	return rec, nil
}

// Append adds rec to the collection's sorted set.
func (s *PositionStore) Append(ctx context.Context, collection string, rec model.PositionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis marshal record: %w", err)
	}

	var seq int64
	err = s.cb.Execute(func() error {
		var err error
		seq, err = s.client.Incr(ctx, seqKey(collection)).Result()
		return err
	})
	if err != nil {
		return fmt.Errorf("redis incr %s: %w", seqKey(collection), err)
	}

	err = s.cb.Execute(func() error {
		return s.client.ZAdd(ctx, key(collection), &goredis.Z{
			Score:  float64(rec.Timestamp),
			Member: member(seq, data),
		}).Err()
	})
	if err != nil {
		return fmt.Errorf("redis zadd %s: %w", key(collection), err)
	}
	return nil
}

// Latest returns the highest-scored record, the last appended on equal
// timestamps. Returns nil, nil when the collection is empty.
func (s *PositionStore) Latest(ctx context.Context, collection string) (*model.PositionRecord, error) {
	recs, err := s.Recent(ctx, collection, 1)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// Recent returns up to limit records, newest first.
func (s *PositionStore) Recent(ctx context.Context, collection string, limit int) ([]model.PositionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	var members []string
	err := s.cb.Execute(func() error {
		var err error
		members, err = s.client.ZRevRange(ctx, key(collection), 0, int64(limit-1)).Result()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("redis zrevrange %s: %w", key(collection), err)
	}

	out := make([]model.PositionRecord, 0, len(members))
	for _, m := range members {
		rec, err := decodeMember(m)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close closes the client.
func (s *PositionStore) Close() error {
	return s.client.Close()
}
