// Package store opens the position store selected by configuration.
package store

import (
	"context"
	"fmt"
	"strings"

	"signalbot/config"
	"signalbot/internal/model"
	"signalbot/internal/store/postgres"
	"signalbot/internal/store/redis"
	"signalbot/internal/store/sqlite"
)

// Store is a position store that can also list history.
type Store interface {
	model.PositionStore

	// Recent returns up to limit records in collection, newest first.
	Recent(ctx context.Context, collection string, limit int) ([]model.PositionRecord, error)
}

// Options selects and configures the backend.
type Options struct {
	Driver        string // sqlite | redis | postgres; inferred when empty
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	PostgresDSN   string
}

// OptionsFrom extracts the store settings from cfg.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Driver:        cfg.StoreDriver,
		SQLitePath:    cfg.SQLitePath,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		PostgresDSN:   cfg.PostgresDSN,
	}
}

// driver returns the backend name, inferring it from whichever connection
// setting is present when Driver is empty (postgres, then redis, then sqlite).
func (o Options) driver() string {
	if o.Driver != "" {
		return strings.ToLower(o.Driver)
	}
	switch {
	case o.PostgresDSN != "":
		return "postgres"
	case o.RedisAddr != "":
		return "redis"
	case o.SQLitePath != "":
		return "sqlite"
	}
	return ""
}

// Open connects to the configured backend. Without a usable store the run
// cannot resolve its state, so a missing setting is a *config.ConfigurationError.
func Open(ctx context.Context, o Options) (Store, error) {
	switch d := o.driver(); d {
	case "sqlite":
		if o.SQLitePath == "" {
			return nil, &config.ConfigurationError{Key: "SQLITE_PATH", Reason: "required for the sqlite store"}
		}
		s, err := sqlite.New(sqlite.Config{DBPath: o.SQLitePath})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		if o.RedisAddr == "" {
			return nil, &config.ConfigurationError{Key: "REDIS_ADDR", Reason: "required for the redis store"}
		}
		s, err := redis.New(redis.Config{Addr: o.RedisAddr, Password: o.RedisPassword})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if o.PostgresDSN == "" {
			return nil, &config.ConfigurationError{Key: "POSTGRES_DSN", Reason: "required for the postgres store"}
		}
		s, err := postgres.New(ctx, o.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "":
		return nil, &config.ConfigurationError{
			Key:    "STORE_DRIVER",
			Reason: "no position store configured (set SQLITE_PATH, REDIS_ADDR or POSTGRES_DSN)",
		}
	default:
		return nil, &config.ConfigurationError{Key: "STORE_DRIVER", Reason: fmt.Sprintf("unknown driver %q", d)}
	}
}
