package ygggo_db

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName    = "github.com/yggai/ygggo_db"
	instrumentationVersion = "v0.1.0"
)

var tracer = otel.Tracer(instrumentationName, trace.WithInstrumentationVersion(instrumentationVersion))

// instruments holds the metric instruments recorded per statement.
type instruments struct {
	statementsTotal   metric.Int64Counter
	statementDuration metric.Float64Histogram
}

// EnableTelemetry enables or disables OpenTelemetry tracing for statements
// executed through this builder.
func (b *Builder) EnableTelemetry(enabled bool) {
	if b == nil {
		return
	}
	b.telemetryEnabled = enabled
}

// EnableMetrics enables or disables statement metrics collection.
func (b *Builder) EnableMetrics(enabled bool) {
	if b == nil {
		return
	}
	b.metricsEnabled = enabled
	if enabled && b.instruments == nil {
		b.initInstruments()
	}
}

func (b *Builder) initInstruments() {
	meter := otel.Meter(instrumentationName)
	b.instruments = &instruments{}
	b.instruments.statementsTotal, _ = meter.Int64Counter(
		"ygggo_db_statements_total",
		metric.WithDescription("Total number of executed statements"),
	)
	b.instruments.statementDuration, _ = meter.Float64Histogram(
		"ygggo_db_statement_duration_seconds",
		metric.WithDescription("Duration of executed statements"),
		metric.WithUnit("s"),
	)
}

// recordStatement records metrics and a span for one finished statement.
func (b *Builder) recordStatement(ctx context.Context, kind string, duration time.Duration, err error) {
	if b == nil {
		return
	}
	if b.metricsEnabled && b.instruments != nil {
		status := "success"
		if err != nil {
			status = "error"
			var e *Error
			if errors.As(err, &e) && e.Kind == ErrKindTimeout {
				status = "timeout"
			}
		}
		attrs := []attribute.KeyValue{
			attribute.String("kind", kind),
			attribute.String("status", status),
		}
		b.instruments.statementsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		b.instruments.statementDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if b.telemetryEnabled {
		// statement work already happened; record it as a completed span
		_, span := tracer.Start(ctx, "ygggo_db."+kind,
			trace.WithTimestamp(time.Now().Add(-duration)))
		span.SetAttributes(
			attribute.String("db.system", b.flavor.String()),
			attribute.String("db.operation", kind),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}
