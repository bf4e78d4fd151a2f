package logging

import (
	"log/slog"

	"github.com/menezmethod/macrofx/internal/deps"
)

// Port adapts a *slog.Logger to deps.Logger.
type Port struct {
	l *slog.Logger
}

var _ deps.Logger = Port{}

// NewPort wraps l. A nil l uses slog.Default().
func NewPort(l *slog.Logger) Port {
	if l == nil {
		l = slog.Default()
	}
	return Port{l: l}
}

// Log writes msg at info level.
func (p Port) Log(msg string) { p.l.Info(msg) }

// Error writes msg at error level.
func (p Port) Error(msg string) { p.l.Error(msg) }

// Discard is a deps.Logger that drops everything.
var Discard deps.Logger = discard{}

type discard struct{}

func (discard) Log(string)   {}
func (discard) Error(string) {}
