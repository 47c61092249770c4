// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Init installs the default logger: human-readable text at debug level in
// development, JSON at info level everywhere else.
func Init(w io.Writer, dev bool) *slog.Logger {
	var h slog.Handler
	if dev {
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// From returns the default logger annotated with the trace and span ids of
// the span in ctx, if any.
func From(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		logger = logger.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return logger
}
