package logger

import (
	"context"
	"io"
	"os"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey int

const sessionIDKey ctxKey = iota

// New builds the process logger. Unknown levels fall back to info.
func New(level string, json bool) *logrus.Logger {
	return NewWithOutput(os.Stderr, level, json)
}

func NewWithOutput(out io.Writer, level string, json bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	if json {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext decorates base with the request id, shopper session and the
// trace/span ids of the active span, when present.
func FromContext(ctx context.Context, base logrus.FieldLogger) logrus.FieldLogger {
	fields := logrus.Fields{}
	if id := middleware.GetReqID(ctx); id != "" {
		fields["request_id"] = id
	}
	if id := SessionID(ctx); id != "" {
		fields["session_id"] = id
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields["trace_id"] = sc.TraceID().String()
		fields["span_id"] = sc.SpanID().String()
	}
	if len(fields) == 0 {
		return base
	}
	return base.WithFields(fields)
}

// Discard is a logger for tests and for components built without one.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
