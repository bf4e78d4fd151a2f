package macrofx

import (
	"context"
	"time"

	"github.com/menezmethod/macrofx/internal/deps"
)

// RetryConfig configures Retry.
type RetryConfig struct {
	// Name labels metrics.
	Name string
	// Retries is the number of extra attempts after the first.
	Retries int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// ShouldRetry, if set, stops retrying when it returns false.
	ShouldRetry func(error) bool
}

// Retry calls fn up to cfg.Retries+1 times and returns the first success.
// The last error is returned unchanged once attempts run out or ShouldRetry
// rejects it. fn must be safe to call more than once.
func Retry[A, R any](cfg RetryConfig, fn WithDeps[A, R]) WithDeps[A, R] {
	name := cfg.Name
	if name == "" {
		name = "fn"
	}
	return func(d deps.Deps) Op[A, R] {
		inner := fn(d)
		return func(ctx context.Context, arg A) (R, error) {
			attempt := 0
			for {
				out, err := inner(ctx, arg)
				if err == nil {
					return out, nil
				}

				attempt++
				if attempt > cfg.Retries || (cfg.ShouldRetry != nil && !cfg.ShouldRetry(err)) {
					return out, err
				}
				retryAttempts.WithLabelValues(name).Inc()

				if cfg.Delay > 0 {
					if err := sleep(ctx, cfg.Delay); err != nil {
						var zero R
						return zero, err
					}
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
