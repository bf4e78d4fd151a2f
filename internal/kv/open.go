package kv

import (
	"context"
	"fmt"
	"io"

	"github.com/menezmethod/macrofx/internal/config"
	"github.com/menezmethod/macrofx/internal/deps"
)

// Store is a deps.KV that also counts atomically, expires keys and can be
// closed.
type Store interface {
	deps.KV
	deps.Incrementer
	deps.Expirer
	io.Closer
}

// Close implements io.Closer.
func (m *Memory) Close() error { return nil }

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.Store, clock deps.Clock) (Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemory(clock), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.SQLitePath, clock)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		r, err := OpenRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
