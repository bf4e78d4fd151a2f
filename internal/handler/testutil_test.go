package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/menezmethod/macrofx/internal/config"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/kv"
	"github.com/menezmethod/macrofx/internal/logging"
	"github.com/menezmethod/macrofx/internal/router"
)

// discardLogger returns a logger that writes to /dev/null.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errStoreDown = errors.New("store down")

// brokenKV fails every call.
type brokenKV struct{}

func (brokenKV) Get(context.Context, string) ([]byte, bool, error) { return nil, false, errStoreDown }
func (brokenKV) Set(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (brokenKV) Delete(context.Context, string) error { return errStoreDown }

var fixedNow = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

// newEnv builds an Env over a memory store and a fixed clock.
func newEnv() *Env {
	clock := deps.ClockFunc(func() time.Time { return fixedNow })
	return &Env{
		Deps: deps.Deps{
			Log:   logging.Discard,
			Clock: clock,
			KV:    kv.NewMemory(clock),
		},
		Logger: discardLogger(),
		FetchTodo: func(_ context.Context, req deps.TodoRequest) (deps.Todo, error) {
			return deps.Todo{ID: int(req.ID), Title: "todo <" + string(req.APIKey) + ">"}, nil
		},
		Tasks:     NewTaskBoard(),
		RateLimit: config.RateLimit{Limit: 5, Window: time.Minute},
	}
}

// call runs a single route handler against env.
func call(env *Env, h router.HandlerFunc[*Env], method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, router.Ctx[*Env]{Base: env, Req: req, URL: req.URL})
	return rec
}

// callThrough runs h behind mw, so context values set by middleware are visible.
func callThrough(env *Env, mw func(http.Handler) http.Handler, h router.HandlerFunc[*Env], method, target string, header map[string]string) *httptest.ResponseRecorder {
	routed := router.New([]router.Route[*Env]{{Method: method, Path: strings.SplitN(target, "?", 2)[0], Handler: h}})(env)
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	mw(routed).ServeHTTP(rec, req)
	return rec
}
