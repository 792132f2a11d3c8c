package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerAddsTraceID(t *testing.T) {
	t.Parallel()

	buf := bytes.Buffer{}

	h, err := NewHandler(&buf, "ticketgate", "v1.2.3", "info")
	require.NoError(t, err)

	log := slog.New(h).With(slog.String("component", "test"))
	log.InfoContext(WithTraceID(context.Background(), "trace-1"), "rpc call", slog.String("method", "get_ticket"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "rpc call", rec["msg"])
	require.Equal(t, "ticketgate", rec["service"])
	require.Equal(t, "v1.2.3", rec["version"])
	require.Equal(t, "test", rec["component"])
	require.Equal(t, "trace-1", rec["trace_id"])
	require.Equal(t, "get_ticket", rec["method"])
}

func TestHandlerLevel(t *testing.T) {
	t.Parallel()

	buf := bytes.Buffer{}

	h, err := NewHandler(&buf, "ticketgate", "dev", "WARN")
	require.NoError(t, err)

	log := slog.New(h)
	log.Info("hidden")
	require.Empty(t, buf.String())

	log.Warn("shown")
	require.Contains(t, buf.String(), `"msg":"shown"`)
	require.NotContains(t, buf.String(), "trace_id")
}

func TestHandlerUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := NewHandler(&bytes.Buffer{}, "ticketgate", "dev", "verbose")
	require.EqualError(t, err, "unknown log level: verbose")
}

func TestTraceIDMissing(t *testing.T) {
	t.Parallel()

	require.Empty(t, TraceID(context.Background()))
	require.Equal(t, "x", TraceID(WithTraceID(context.Background(), "x")))
}
