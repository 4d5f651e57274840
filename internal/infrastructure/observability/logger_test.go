package observability_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
	"github.com/sunuchoix/search-backend/pkg/config"
)

func TestInitLoggerParsesLevel(t *testing.T) {
	observability.InitLogger("search-backend-test", &config.LoggingConfig{Level: "warn"})
	assert.Equal(t, zerolog.WarnLevel, observability.GetLogger().GetLevel())
}

func TestInitLoggerFallsBackToInfo(t *testing.T) {
	observability.InitLogger("search-backend-test", &config.LoggingConfig{Level: "verbose"})
	assert.Equal(t, zerolog.InfoLevel, observability.GetLogger().GetLevel())
}

func TestWithSearchAttachesRequestFields(t *testing.T) {
	observability.InitLogger("search-backend-test", &config.LoggingConfig{Level: "debug"})
	ctx := observability.WithSearch(context.Background(), "sess-1", "assurance auto")

	var buf bytes.Buffer
	logger := observability.LoggerFromContext(ctx).Output(&buf)
	logger.Info().Msg("stage complete")

	out := buf.String()
	assert.Contains(t, out, `"query":"assurance auto"`)
	assert.Contains(t, out, `"session_id":"sess-1"`)
	assert.Contains(t, out, `"service":"search-backend-test"`)
}

func TestWithSearchSkipsEmptyFields(t *testing.T) {
	observability.InitLogger("search-backend-test", &config.LoggingConfig{Level: "debug"})
	ctx := observability.WithSearch(context.Background(), "", "")

	var buf bytes.Buffer
	logger := observability.LoggerFromContext(ctx).Output(&buf)
	logger.Info().Msg("stage complete")

	out := buf.String()
	assert.NotContains(t, out, `"query"`)
	assert.NotContains(t, out, `"session_id"`)
}

func TestLoggerFromContextWithoutScope(t *testing.T) {
	observability.InitLogger("search-backend-test", &config.LoggingConfig{Level: "debug"})

	var buf bytes.Buffer
	logger := observability.LoggerFromContext(context.Background()).Output(&buf)
	logger.Info().Msg("stage complete")

	assert.NotContains(t, buf.String(), `"query"`)
}
