// Package macrofx provides decorators for dependency-injected operations.
//
// An operation is built from a deps.Deps value and then called with a context
// and a single argument (use a struct for several):
//
//	fetch := macrofx.Timeout(2*time.Second,
//		macrofx.Retry(macrofx.RetryConfig{Retries: 2, Delay: 100 * time.Millisecond},
//			macrofx.Cache(macrofx.CacheConfig[deps.TodoRequest, deps.Todo]{Name: "todo", TTL: 15 * time.Second},
//				macrofx.WithDeps[deps.TodoRequest, deps.Todo](deps.FetchTodo(url)))))
//	todo, err := fetch(d)(ctx, req)
//
// Every decorator returns a WithDeps of the same shape, so they compose by
// plain nesting. Order matters: in the example the cache sits inside the
// retry loop, so only a successful attempt is stored.
package macrofx

import (
	"context"

	"github.com/menezmethod/macrofx/internal/deps"
)

// Op is an operation ready to run.
type Op[A, R any] = func(ctx context.Context, arg A) (R, error)

// WithDeps builds an Op from a dependency bag.
type WithDeps[A, R any] func(d deps.Deps) Op[A, R]

// Lift adapts an operation that needs no dependencies.
func Lift[A, R any](op Op[A, R]) WithDeps[A, R] {
	return func(deps.Deps) Op[A, R] { return op }
}
