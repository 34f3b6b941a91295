// Copyright © 2026 The tangolint authors

package analyzer

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/davejwalsh/tangolint/analyzer"

// startRunSpan opens the span covering one analyzer run.
func startRunSpan(ctx context.Context, inv Invocation) (context.Context, trace.Span) {
	ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx, "tangolint.analyze")
	span.SetAttributes(
		semconv.CodeFilepath(inv.File),
		attribute.String("tangolint.interpreter", inv.Interpreter),
		attribute.String("tangolint.script", inv.Script),
		attribute.Int("tangolint.disabled_rules", len(inv.Args)/2),
	)
	return ctx, span
}

// endRunSpan records the outcome of a run and ends span.
func endRunSpan(span trace.Span, res Result, diagnostics int, err error) {
	span.SetAttributes(
		attribute.Int("tangolint.exit_code", res.ExitCode),
		attribute.Int("tangolint.diagnostics", diagnostics),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
