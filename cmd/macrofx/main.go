package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/menezmethod/macrofx/internal/auth"
	"github.com/menezmethod/macrofx/internal/config"
	"github.com/menezmethod/macrofx/internal/deps"
	"github.com/menezmethod/macrofx/internal/httpclient"
	"github.com/menezmethod/macrofx/internal/kv"
	"github.com/menezmethod/macrofx/internal/logging"
	"github.com/menezmethod/macrofx/internal/observability"
	"github.com/menezmethod/macrofx/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional, env vars work without it)")
	flag.Parse()

	// Load configuration: defaults -> YAML file -> env vars.
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(os.Stdout,
		logging.ParseLevel(cfg.Log.Level),
		cfg.Log.Format,
		cfg.Log.CloudFormat,
		cfg.Observability.OTelServiceName,
	)
	slog.SetDefault(logger)

	// API keys are only loaded when the key store decides who gets in.
	var ks *auth.KeyStore
	if cfg.Auth.Mode == "keystore" {
		ks, err = auth.NewKeyStore(cfg.Auth.KeysFile)
		if err != nil {
			logger.Error("failed to load API keys", "err", err)
			os.Exit(1)
		}
		logger.Info("api keys loaded", "count", ks.Count())
	}

	ctx := context.Background()
	store, err := kv.Open(ctx, cfg.Store, deps.SystemClock)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Store.Driver, "err", err)
		os.Exit(1)
	}
	logger.Info("store opened", "driver", cfg.Store.Driver)

	d := deps.Deps{
		Log:   logging.NewPort(logger),
		HTTP:  httpclient.New(cfg.Upstream.Timeout),
		Clock: deps.SystemClock,
		KV:    store,
	}

	srv := server.New(cfg, d, ks, logger)

	tp, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		logger.Error("otel tracer provider failed", "err", err)
		os.Exit(1)
	}
	if tp != nil {
		srv.Handler = observability.HTTPHandler(srv.Handler, cfg.Observability.OTelServiceName)
		logger.Info("opentelemetry tracing enabled", "endpoint", cfg.Observability.OTelEndpoint)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr(), "auth_mode", cfg.Auth.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-stop
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	server.Shutdown(shutdownCtx, srv, logger)
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown error", "err", err)
	}
	if err := store.Close(); err != nil {
		logger.Error("store close error", "err", err)
	}
	logger.Info("server stopped")
}
