package macrofx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/nominal"
)

// CacheConfig configures Cache.
type CacheConfig[A, R any] struct {
	// Name namespaces the default key and labels metrics.
	Name string
	// Key derives the cache key from the argument. Defaults to
	// "cache:<Name>:<json(arg)>".
	Key func(A) string
	// TTL is the entry lifetime. Zero stores without expiry.
	TTL time.Duration
	// Encode and Decode convert results to and from stored bytes. They
	// default to encoding/json, which only returns the first result exactly
	// for types that survive a JSON round trip: unexported fields are lost
	// and numbers held in an interface come back as float64. Set both for
	// anything else.
	Encode func(R) ([]byte, error)
	Decode func([]byte) (R, error)
}

func (c CacheConfig[A, R]) key(arg A) (string, error) {
	if c.Key != nil {
		return c.Key(arg), nil
	}
	b, err := json.Marshal(arg)
	if err != nil {
		return "", fmt.Errorf("cache %s: encode key: %w", c.name(), err)
	}
	return string(nominal.CacheKeyOf("cache", c.name(), string(b))), nil
}

func (c CacheConfig[A, R]) name() string {
	if c.Name == "" {
		return "fn"
	}
	return c.Name
}

func (c CacheConfig[A, R]) encode(v R) ([]byte, error) {
	if c.Encode != nil {
		return c.Encode(v)
	}
	return json.Marshal(v)
}

func (c CacheConfig[A, R]) decode(b []byte) (R, error) {
	if c.Decode != nil {
		return c.Decode(b)
	}
	var v R
	err := json.Unmarshal(b, &v)
	return v, err
}

// Cache memoises fn in deps.KV. A present entry is returned without calling
// fn, whatever its value. On a miss fn runs once and a successful result is
// written through with cfg.TTL. Errors from fn are returned unchanged and
// never stored. A result that cannot be encoded or written is still
// returned; the failure is logged and the next call runs fn again.
func Cache[A, R any](cfg CacheConfig[A, R], fn WithDeps[A, R]) WithDeps[A, R] {
	return func(d deps.Deps) Op[A, R] {
		inner := fn(d)
		return func(ctx context.Context, arg A) (R, error) {
			var zero R

			k, err := cfg.key(arg)
			if err != nil {
				return zero, err
			}

			raw, found, err := d.KV.Get(ctx, k)
			if err != nil {
				return zero, fmt.Errorf("cache %s: read: %w", cfg.name(), err)
			}
			if found {
				hit, err := cfg.decode(raw)
				if err != nil {
					return zero, fmt.Errorf("cache %s: decode: %w", cfg.name(), err)
				}
				cacheRequests.WithLabelValues(cfg.name(), "hit").Inc()
				return hit, nil
			}
			cacheRequests.WithLabelValues(cfg.name(), "miss").Inc()

			out, err := inner(ctx, arg)
			if err != nil {
				return zero, err
			}

			b, err := cfg.encode(out)
			if err != nil {
				d.Log.Error(fmt.Sprintf("cache %s: encode: %v", cfg.name(), err))
				return out, nil
			}
			if err := d.KV.Set(ctx, k, b, cfg.TTL); err != nil {
				d.Log.Error(fmt.Sprintf("cache %s: write: %v", cfg.name(), err))
			}
			return out, nil
		}
	}
}
