package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/version"
)

// readyKey is read by Ready to check the store answers.
const readyKey = "health:ready"

// Health handles liveness checks. It always returns 200 if the server is running.
// Response includes "version" so you can see which build is running.
//
//	GET /health
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": version.Version,
		})
	}
}

// Ready handles readiness checks. It returns 200 only if the key-value store
// answers a read. The store error is logged, not returned.
//
//	GET /health/ready
func Ready(kv deps.KV, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if _, _, err := kv.Get(r.Context(), readyKey); err != nil {
			logger.Error("readiness check failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":  "unavailable",
				"error":   "store unavailable",
				"version": version.Version,
			})
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ready",
			"version": version.Version,
		})
	}
}

// VersionInfo handles version info. Returns JSON with version and optional commit.
//
//	GET /version
func VersionInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		out := map[string]string{"version": version.Version}
		if version.Commit != "" {
			out["commit"] = version.Commit
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
