// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func restoreDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInit_JSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Init(&buf, false)

	slog.Debug("hidden")
	slog.Info("shown", "k", "v")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["msg"] != "shown" || rec["k"] != "v" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestInit_DevText(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Init(&buf, true)

	slog.Debug("visible in dev")
	if !strings.Contains(buf.String(), "msg=\"visible in dev\"") {
		t.Errorf("expected text debug record, got %q", buf.String())
	}
}

func TestFrom_AddsTraceIDs(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Init(&buf, false)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	From(ctx).Info("traced")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not JSON: %v", err)
	}
	if rec["trace_id"] != traceID.String() || rec["span_id"] != spanID.String() {
		t.Errorf("trace fields missing: %v", rec)
	}
}

func TestFrom_NoSpan(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Init(&buf, false)

	From(context.Background()).Info("plain")
	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("unexpected trace id: %q", buf.String())
	}
}
