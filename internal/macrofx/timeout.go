package macrofx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/menezmethod/macrofx/internal/deps"
)

// ErrTimeout is wrapped by the error Timeout returns when the bound elapses.
var ErrTimeout = errors.New("timeout")

type result[R any] struct {
	out R
	err error
}

// Timeout races fn against a timer of length d.
//
// When the timer wins the returned error wraps ErrTimeout. The running call is
// not cancelled: it keeps the caller's context and its result is dropped.
// When fn wins its result and error are returned unchanged.
func Timeout[A, R any](d time.Duration, fn WithDeps[A, R]) WithDeps[A, R] {
	return func(dp deps.Deps) Op[A, R] {
		inner := fn(dp)
		return func(ctx context.Context, arg A) (R, error) {
			done := make(chan result[R], 1)
			go func() {
				out, err := inner(ctx, arg)
				done <- result[R]{out: out, err: err}
			}()

			timer := time.NewTimer(d)
			defer timer.Stop()

			var zero R
			select {
			case r := <-done:
				return r.out, r.err
			case <-timer.C:
				timeouts.Inc()
				return zero, fmt.Errorf("%w after %s", ErrTimeout, d)
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
}
