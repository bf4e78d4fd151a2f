package handler

import (
	"context"
	"errors"

	"github.com/menezmethod/macrofx/internal/config"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/macrofx"
)

// TodoPipeline wraps deps.FetchTodo in the demo's decorators, outermost
// first: trace, event log, timeout, circuit breaker, retry, cache.
//
// The cache sits inside the retry loop so only successes are stored, and the
// breaker counts one failure per exhausted retry loop.
func TodoPipeline(cfg config.Pipeline, upstreamURL string) macrofx.WithDeps[deps.TodoRequest, deps.Todo] {
	fetch := macrofx.WithDeps[deps.TodoRequest, deps.Todo](deps.FetchTodo(upstreamURL))

	cached := macrofx.Cache(macrofx.CacheConfig[deps.TodoRequest, deps.Todo]{Name: "todo", TTL: cfg.CacheTTL}, fetch)
	retried := macrofx.Retry(macrofx.RetryConfig{
		Name:    "todo",
		Retries: cfg.Retries,
		Delay:   cfg.RetryDelay,
		ShouldRetry: func(err error) bool {
			return !errors.Is(err, context.Canceled)
		},
	}, cached)
	guarded := macrofx.Breaker(macrofx.BreakerConfig{
		Name:      "todo",
		Threshold: cfg.BreakerThreshold,
		Cooldown:  cfg.BreakerCooldown,
	}, retried)
	bounded := guarded
	if cfg.Timeout > 0 {
		bounded = macrofx.Timeout(cfg.Timeout, guarded)
	}

	return macrofx.Trace("fetch_todo", func(d deps.Deps) macrofx.Op[deps.TodoRequest, deps.Todo] {
		return macrofx.Observe("todo", macrofx.LogSink(d.Log), bounded)(d)
	})
}
