package ygggo_db

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

var defaultLogger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// EnableLogging enables or disables structured statement logging.
func (b *Builder) EnableLogging(enabled bool) {
	if b == nil {
		return
	}
	b.loggingEnabled = enabled
	if enabled && b.logger == nil {
		b.logger = defaultLogger
	}
}

// SetLogger sets a custom logger for this builder.
func (b *Builder) SetLogger(logger *slog.Logger) {
	if b == nil {
		return
	}
	b.logger = logger
}

// logStatement emits exactly one line per executed statement: success at
// Info with the metric breakdown, the ambiguous timeout/cancel condition at
// Warn (it is frequently an intentional cancellation), everything else at
// Error with the correlation code.
func (b *Builder) logStatement(ctx context.Context, kind, code, sqlText string, params []any, m *Metric, err error) {
	if b == nil || !b.loggingEnabled || b.logger == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("kind", kind),
		slog.String("sql", sqlText),
		slog.String("timing", m.Message()),
	}
	if jobID := JobIDFromContext(ctx); jobID != "" {
		attrs = append(attrs, slog.String("job_id", jobID))
	}
	if b.opts.LogParameters && len(params) > 0 {
		attrs = append(attrs, slog.Any("params", params))
	}

	if err == nil {
		b.logger.LogAttrs(ctx, slog.LevelInfo, "statement executed", attrs...)
		return
	}
	attrs = append(attrs,
		slog.String("error", err.Error()),
		slog.String("error_code", code),
	)
	var e *Error
	if errors.As(err, &e) && e.Kind == ErrKindTimeout {
		b.logger.LogAttrs(ctx, slog.LevelWarn, "statement timed out or was cancelled", attrs...)
		return
	}
	b.logger.LogAttrs(ctx, slog.LevelError, "statement failed", attrs...)
}

// logQuiet records a swallowed quiet-mode DDL failure at Debug; quiet mode
// discards the error but the log still tells the story.
func (b *Builder) logQuiet(ctx context.Context, code, sqlText string, m *Metric, err error) {
	if b == nil || !b.loggingEnabled || b.logger == nil {
		return
	}
	b.logger.LogAttrs(ctx, slog.LevelDebug, "quiet ddl failure ignored",
		slog.String("sql", sqlText),
		slog.String("timing", m.Message()),
		slog.String("error", err.Error()),
		slog.String("error_code", code),
	)
}

// logTransaction logs the terminal commit or rollback of a unit of work.
func (b *Builder) logTransaction(ctx context.Context, event string, err error) {
	if b == nil || !b.loggingEnabled || b.logger == nil {
		return
	}
	attrs := []slog.Attr{slog.String("event", event)}
	if jobID := JobIDFromContext(ctx); jobID != "" {
		attrs = append(attrs, slog.String("job_id", jobID))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		b.logger.LogAttrs(ctx, slog.LevelError, "transaction finished", attrs...)
		return
	}
	b.logger.LogAttrs(ctx, slog.LevelDebug, "transaction finished", attrs...)
}
