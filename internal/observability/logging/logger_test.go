package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"newsparser/internal/handler/http/requestid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

/* ───────── ヘルパ ───────── */

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

/* ───────── テスト ───────── */

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "")

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown", slog.Int("n", 1))
	m := decodeLine(t, &buf)
	assert.Equal(t, "shown", m["msg"])
	assert.Equal(t, float64(1), m["n"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "text").Info("hello")

	assert.True(t, strings.Contains(buf.String(), "msg=hello"))
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", "")

	WithRequestID(context.Background(), base).Info("no id")
	assert.NotContains(t, decodeLine(t, &buf), "request_id")

	buf.Reset()
	ctx := requestid.WithRequestID(context.Background(), "req-1")
	WithRequestID(ctx, base).Info("with id")
	assert.Equal(t, "req-1", decodeLine(t, &buf)["request_id"])
}

func TestWithTrace(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "info", "")

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(requestid.WithRequestID(context.Background(), "req-2"), sc)

	WithTrace(ctx, base).Info("traced")
	m := decodeLine(t, &buf)
	assert.Equal(t, "req-2", m["request_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", m["trace_id"])
}

func TestLoggerContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	assert.Same(t, logger, FromContext(WithLogger(context.Background(), logger)))
}
