package observability

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sunuchoix/search-backend/pkg/config"
	"go.opentelemetry.io/otel/trace"
)

type searchLoggerKey struct{}

// InitLogger initializes the global zerolog logger. Pretty console output
// and the level are explicit configuration knobs; an unparseable level
// falls back to info.
func InitLogger(serviceName string, cfg *config.LoggingConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).Level(level).With().
			Timestamp().
			Str("service", serviceName).
			Logger()
		return
	}

	log.Logger = zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger()
}

// WithSearch returns a context carrying a request-scoped logger with the
// search fields attached. Every pipeline stage that logs through
// LoggerFromContext then carries the query and session of the request.
func WithSearch(ctx context.Context, sessionID, query string) context.Context {
	builder := log.With()
	if query != "" {
		builder = builder.Str("query", query)
	}
	if sessionID != "" {
		builder = builder.Str("session_id", sessionID)
	}
	return context.WithValue(ctx, searchLoggerKey{}, builder.Logger())
}

// LoggerFromContext returns the request logger: the search-scoped logger
// when one was attached via WithSearch, enriched with trace context when a
// span is recording.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := log.With().Logger()
	if scoped, ok := ctx.Value(searchLoggerKey{}).(zerolog.Logger); ok {
		logger = scoped
	}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		logger = logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return &logger
}

// GetLogger returns the global logger
func GetLogger() *zerolog.Logger {
	return &log.Logger
}
