// Package server configures and runs the HTTP server.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/menezmethod/macrofx/internal/auth"
	"github.com/menezmethod/macrofx/internal/config"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/handler"
	"github.com/menezmethod/macrofx/internal/middleware"
	"github.com/menezmethod/macrofx/internal/router"
)

// Registry names.
const (
	MWRequestID  = "requestId"
	MWRecover    = "recover"
	MWMetrics    = "metrics"
	MWLogging    = "logging"
	MWAuth       = "auth"
	MWRate       = "rate"
	MWIdempotent = "idempotent"
	MWAdminOnly  = "adminOnly"
)

// Global is applied to every request, outermost first.
var Global = []string{MWRequestID, MWRecover, MWMetrics, MWLogging}

// Policy lists the registry middleware applied to one method and path.
type Policy struct {
	Method string
	Path   string
	Names  []string
}

// Policies are the per-route middleware compositions. Routes without a
// policy are served bare.
var Policies = []Policy{
	{Method: http.MethodPost, Path: "/echo", Names: []string{MWIdempotent}},
	{Method: http.MethodGet, Path: "/ext", Names: []string{MWAuth, MWRate}},
	{Method: http.MethodGet, Path: "/admin", Names: []string{MWAuth, MWAdminOnly}},
	{Method: http.MethodGet, Path: "/quota", Names: []string{MWAuth, MWRate}},
	{Method: http.MethodGet, Path: "/tasks", Names: []string{MWAuth, MWRate}},
	{Method: http.MethodPost, Path: "/tasks", Names: []string{MWAuth, MWAdminOnly, MWIdempotent}},
}

// Routes is the demo's route table.
func Routes() []router.Route[*handler.Env] {
	std := router.Std[*handler.Env]
	ready := func(w http.ResponseWriter, c handler.Ctx) {
		handler.Ready(c.Base.Deps.KV, c.Base.Logger)(w, c.Req)
	}
	return []router.Route[*handler.Env]{
		{Method: http.MethodGet, Path: "/health", Handler: std(handler.Health())},
		{Method: http.MethodGet, Path: "/health/ready", Handler: ready},
		{Method: http.MethodGet, Path: "/version", Handler: std(handler.VersionInfo())},
		{Method: http.MethodGet, Path: "/metrics", Handler: std(promhttp.Handler())},
		{Method: http.MethodGet, Path: "/openapi.yaml", Handler: std(handler.OpenAPI())},
		{Method: http.MethodGet, Path: "/docs", Handler: std(handler.SwaggerUI())},
		{Method: http.MethodGet, Path: "/", Handler: handler.Index},
		{Method: http.MethodGet, Path: "/time", Handler: handler.Time},
		{Method: http.MethodPost, Path: "/echo", Handler: handler.Echo},
		{Method: http.MethodGet, Path: "/ext", Handler: handler.Ext},
		{Method: http.MethodGet, Path: "/.well-known/hal", Handler: handler.Discovery},
		{Method: http.MethodGet, Path: "/forms", Handler: handler.Forms},
		{Method: http.MethodGet, Path: "/admin", Handler: handler.Admin},
		{Method: http.MethodGet, Path: "/quota", Handler: handler.Quota},
		{Method: http.MethodGet, Path: "/tasks", Handler: handler.ListTasks},
		{Method: http.MethodPost, Path: "/tasks", Handler: handler.CreateTask},
	}
}

// NewRegistry builds the named middleware for cfg. In keystore mode ks
// supplies both key validation and roles; in header mode any well-formed
// X-Api-Key is accepted and roles come from X-Roles.
func NewRegistry(cfg config.Config, d deps.Deps, ks *auth.KeyStore, logger *slog.Logger) middleware.Registry {
	verify := middleware.Verifier(middleware.APIKeyPresent)
	resolve := middleware.UserResolver(middleware.UserFromHeaders)
	if cfg.Auth.Mode == "keystore" && ks != nil {
		verify = middleware.KeyStoreVerifier(ks)
		resolve = middleware.UserFromKeyStore(ks)
	}
	seen, remember := middleware.KVIdempotency(d.KV)

	return middleware.DefineRegistry(middleware.Registry{
		MWRequestID: middleware.RequestID(),
		MWRecover:   middleware.Recover(logger),
		MWMetrics:   middleware.Metrics(),
		MWLogging:   middleware.Logging(logger),
		MWAuth: func(next http.Handler) http.Handler {
			return middleware.Chain(next, middleware.Auth(verify), middleware.WithUser(resolve))
		},
		MWRate: middleware.RateLimit(
			cfg.RateLimit.Limit,
			cfg.RateLimit.Window,
			middleware.FixedWindowBucket(d.Clock, cfg.RateLimit.Window),
			middleware.KVIncrWindow(d, cfg.RateLimit.Window),
		),
		MWIdempotent: middleware.Idempotency(middleware.IdempotencyHeader, seen, remember, cfg.Idempotency.TTL),
		MWAdminOnly:  middleware.RequireRole("admin"),
	})
}

// Handler builds the full request handler: the Global stack, per-route
// compositions from Policies, then the router.
func Handler(cfg config.Config, d deps.Deps, ks *auth.KeyStore, logger *slog.Logger) http.Handler {
	env := &handler.Env{
		Deps:      d,
		Logger:    logger,
		FetchTodo: handler.TodoPipeline(cfg.Pipeline, cfg.Upstream.URL)(d),
		Tasks:     handler.NewTaskBoard(),
		RateLimit: cfg.RateLimit,
	}
	base := router.New(Routes())(env)
	reg := NewRegistry(cfg, d, ks, logger)

	composed := make(map[string]http.Handler, len(Policies))
	for _, p := range Policies {
		composed[p.Method+" "+p.Path] = middleware.ComposeNamed(reg, p.Names...)(base)
	}
	dispatch := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := composed[r.Method+" "+r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		base.ServeHTTP(w, r)
	})

	return middleware.ComposeNamed(reg, Global...)(dispatch)
}

// New creates a configured *http.Server with all routes and middleware wired.
func New(cfg config.Config, d deps.Deps, ks *auth.KeyStore, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      Handler(cfg, d, ks, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

// Shutdown gracefully shuts down the server with the given context.
func Shutdown(ctx context.Context, srv *http.Server, logger *slog.Logger) {
	logger.Info("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}
}
