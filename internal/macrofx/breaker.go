package macrofx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/menezmethod/macrofx/internal/deps"
)

// ErrCircuitOpen is wrapped by the error Breaker returns while rejecting calls.
var ErrCircuitOpen = errors.New("circuit open")

// BreakerConfig configures Breaker.
type BreakerConfig struct {
	Name string
	// Threshold is the number of consecutive failures that opens the circuit.
	Threshold int
	// Cooldown is how long the circuit stays open before a trial call.
	Cooldown time.Duration
	// IsFailure classifies errors. Defaults to every non-nil error except
	// context cancellation.
	IsFailure func(error) bool
}

// Breaker stops calling fn after cfg.Threshold consecutive failures and
// fails fast for cfg.Cooldown. The breaker state belongs to the Op built
// from a bag, so build the Op once and reuse it.
func Breaker[A, R any](cfg BreakerConfig, fn WithDeps[A, R]) WithDeps[A, R] {
	threshold := uint32(1)
	if cfg.Threshold > 1 {
		threshold = uint32(cfg.Threshold)
	}
	isFailure := cfg.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return !errors.Is(err, context.Canceled) }
	}

	return func(d deps.Deps) Op[A, R] {
		inner := fn(d)
		cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    cfg.Name,
			Timeout: cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				d.Log.Log(fmt.Sprintf("circuit %s: %s -> %s", name, from, to))
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !isFailure(err)
			},
		})

		return func(ctx context.Context, arg A) (R, error) {
			var zero R
			out, err := cb.Execute(func() (any, error) {
				return inner(ctx, arg)
			})
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return zero, fmt.Errorf("%w: %s", ErrCircuitOpen, cfg.Name)
			}
			if err != nil {
				return zero, err
			}
			r, _ := out.(R)
			return r, nil
		}
	}
}
