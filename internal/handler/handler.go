// Package handler implements the demo application's HTTP handlers: an
// htmx page, HAL/HAL-FORMS discovery, a resilient upstream fetch, a quota
// report and a small task board.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/menezmethod/macrofx/internal/config"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/macrofx"
	"github.com/menezmethod/macrofx/internal/router"
)

// Env is the base value every route handler receives.
type Env struct {
	Deps      deps.Deps
	Logger    *slog.Logger
	FetchTodo macrofx.Op[deps.TodoRequest, deps.Todo]
	Tasks     *TaskBoard
	RateLimit config.RateLimit
}

// Ctx is the router context bound to an *Env.
type Ctx = router.Ctx[*Env]

// maxBodyBytes bounds request bodies read by handlers.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
