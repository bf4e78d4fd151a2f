// Package logging builds the process logger and adapts it to the Logger port.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// severityByLevel maps slog levels to GCP Cloud Logging severity strings.
// https://cloud.google.com/logging/docs/structured-logging#special-payload-fields
var severityByLevel = map[slog.Level]string{
	slog.LevelDebug: "DEBUG",
	slog.LevelInfo:  "INFO",
	slog.LevelWarn:  "WARNING",
	slog.LevelError: "ERROR",
}

// GCPHandler wraps a slog.Handler and adds "severity" (and optionally
// "resource") so JSON logs are parsed natively by GCP Cloud Logging.
type GCPHandler struct {
	inner   slog.Handler
	service string // empty disables the resource block
}

// NewGCPHandler returns a handler that adds severity to every record.
// A non-empty service also adds a generic_task resource labelled with it.
func NewGCPHandler(inner slog.Handler, service string) *GCPHandler {
	return &GCPHandler{inner: inner, service: service}
}

// Enabled reports whether the inner handler would log this level.
func (h *GCPHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds severity (and optionally resource) then forwards to the inner handler.
func (h *GCPHandler) Handle(ctx context.Context, r slog.Record) error {
	sev := severityByLevel[r.Level]
	if sev == "" {
		sev = "DEFAULT"
	}
	r.AddAttrs(slog.String("severity", sev))
	if h.service != "" {
		r.AddAttrs(slog.Any("resource", map[string]any{
			"type":   "generic_task",
			"labels": map[string]string{"service": h.service},
		}))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes.
func (h *GCPHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &GCPHandler{inner: h.inner.WithAttrs(attrs), service: h.service}
}

// WithGroup returns a new handler for the given group.
func (h *GCPHandler) WithGroup(name string) slog.Handler {
	return &GCPHandler{inner: h.inner.WithGroup(name), service: h.service}
}

// ParseLevel maps "debug", "warn", "error" to their slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a *slog.Logger for the given format ("json" or "text")
// and cloud mode: "" (none), "gcp" (severity) or "gcp_with_resource"
// (severity plus a resource labelled with service).
func NewLogger(w io.Writer, level slog.Level, format, cloudFormat, service string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	if format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}
	switch cloudFormat {
	case "gcp":
		base = NewGCPHandler(base, "")
	case "gcp_with_resource":
		base = NewGCPHandler(base, service)
	}
	return slog.New(base)
}
