package macrofx

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/menezmethod/macrofx/internal/deps"
)

// Event is emitted by Observe.
type Event struct {
	Type string
	At   time.Time
	Data any
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// LogSink writes events through the Logger port. Failure events go to Error.
func LogSink(l deps.Logger) Sink {
	return SinkFunc(func(e Event) {
		msg := fmt.Sprintf("[sink %s] %s", e.At.UTC().Format(time.RFC3339Nano), e.Type)
		if e.Data != nil {
			msg += fmt.Sprintf(" %v", e.Data)
		}
		if strings.HasSuffix(e.Type, ".failure") {
			l.Error(msg)
			return
		}
		l.Log(msg)
	})
}

func eventName(name, kind string) string {
	if name == "" {
		name = "fn"
	}
	return name + "." + kind
}

// Observe emits "<name>.start" before each call and "<name>.success" or
// "<name>.failure" after it, timestamped by deps.Clock.
func Observe[A, R any](name string, sink Sink, fn WithDeps[A, R]) WithDeps[A, R] {
	return func(d deps.Deps) Op[A, R] {
		inner := fn(d)
		return func(ctx context.Context, arg A) (R, error) {
			sink.Emit(Event{Type: eventName(name, "start"), At: d.Clock.Now(), Data: arg})
			out, err := inner(ctx, arg)
			if err != nil {
				sink.Emit(Event{Type: eventName(name, "failure"), At: d.Clock.Now(), Data: err.Error()})
				return out, err
			}
			sink.Emit(Event{Type: eventName(name, "success"), At: d.Clock.Now()})
			return out, nil
		}
	}
}
