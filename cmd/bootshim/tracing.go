// Tracing instrumentation for the boot pipeline.
package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vinayprograms/bootshim/internal/logging"
)

const tracerName = "github.com/vinayprograms/bootshim"

// startStageSpan starts a span for one pipeline stage.
func startStageSpan(ctx context.Context, stage, runID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "stage."+stage)
	span.SetAttributes(
		attribute.String("stage.name", stage),
		attribute.String("run.id", runID),
	)
	return ctx, span
}

// endStageSpan ends the stage span with result info.
func endStageSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// stage runs fn inside a span and brackets it with stage log lines.
func stage(ctx context.Context, logger *logging.Logger, name, runID string, fn func(context.Context) error) error {
	ctx, span := startStageSpan(ctx, name, runID)
	logger.StageStart(name)
	start := time.Now()

	err := fn(ctx)

	logger.StageComplete(name, time.Since(start), err)
	endStageSpan(span, err)
	return err
}
