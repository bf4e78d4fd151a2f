package macrofx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "macrofx",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Cache decorator lookups by operation and result (hit, miss).",
	}, []string{"name", "result"})

	retryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "macrofx",
		Subsystem: "retry",
		Name:      "attempts_total",
		Help:      "Retries scheduled after a failed attempt, by operation.",
	}, []string{"name"})

	timeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "macrofx",
		Name:      "timeouts_total",
		Help:      "Calls abandoned by the timeout decorator.",
	})
)
