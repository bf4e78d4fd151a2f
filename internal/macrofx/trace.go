package macrofx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/menezmethod/macrofx/internal/deps"
)

const tracerName = "github.com/menezmethod/macrofx/internal/macrofx"

// Trace runs each call of fn inside a span named name. Errors are recorded
// on the span and returned unchanged. With no tracer provider installed the
// global no-op provider makes this free.
func Trace[A, R any](name string, fn WithDeps[A, R]) WithDeps[A, R] {
	return func(d deps.Deps) Op[A, R] {
		inner := fn(d)
		return func(ctx context.Context, arg A) (R, error) {
			ctx, span := otel.Tracer(tracerName).Start(ctx, name)
			defer span.End()

			out, err := inner(ctx, arg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.Bool("macrofx.failed", true))
				return out, err
			}
			span.SetStatus(codes.Ok, "")
			return out, nil
		}
	}
}
