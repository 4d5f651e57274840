package repositories

import (
	"context"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

// AnalyticsRepository persists search interaction events for offline tuning.
type AnalyticsRepository interface {
	// LogEvent appends an analytics event.
	LogEvent(ctx context.Context, event *entities.AnalyticsEvent) error

	// ZeroResultQueries returns the latest searches that produced no results.
	ZeroResultQueries(ctx context.Context, limit int) ([]*entities.AnalyticsEvent, error)
}
