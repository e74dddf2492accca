package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNew_LevelFallback(t *testing.T) {
	log := NewWithOutput(&bytes.Buffer{}, "nonsense", true)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log = NewWithOutput(&bytes.Buffer{}, "debug", true)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestFromContext_AddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "info", true)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-1")
	ctx = ContextWithSessionID(ctx, "sess-1")

	FromContext(ctx, log).Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "sess-1", entry["session_id"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestFromContext_NoFields(t *testing.T) {
	log := Discard()
	assert.Equal(t, log, FromContext(context.Background(), log))
}
