package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/sunuchoix/search-backend/pkg/errors"
)

// AnalyticsAdapter implements AnalyticsRepository over PostgreSQL.
type AnalyticsAdapter struct {
	client *postgres.Client
}

// NewAnalyticsAdapter creates a new analytics adapter
func NewAnalyticsAdapter(client *postgres.Client) repositories.AnalyticsRepository {
	return &AnalyticsAdapter{client: client}
}

// LogEvent appends an analytics event
func (a *AnalyticsAdapter) LogEvent(ctx context.Context, event *entities.AnalyticsEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO search_events
		(id, event_type, query, session_id, user_id, country, result_count, response_time_ms, product_id, position, conversion_type, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.Query,
		event.SessionID,
		event.UserID,
		event.Country,
		event.ResultCount,
		event.ResponseTimeMs,
		event.ProductID,
		event.Position,
		event.ConversionType,
		event.Value,
		event.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to log search event", err)
	}

	return nil
}

// ZeroResultQueries returns the latest searches that produced no results
func (a *AnalyticsAdapter) ZeroResultQueries(ctx context.Context, limit int) ([]*entities.AnalyticsEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, event_type, query, session_id, user_id, country, result_count, response_time_ms, product_id, position, conversion_type, value, created_at
		FROM search_events
		WHERE event_type = 'search' AND result_count = 0
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := a.client.DB().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get zero result queries", err)
	}
	defer rows.Close()

	var events []*entities.AnalyticsEvent
	for rows.Next() {
		e := &entities.AnalyticsEvent{}
		err := rows.Scan(
			&e.ID,
			&e.Type,
			&e.Query,
			&e.SessionID,
			&e.UserID,
			&e.Country,
			&e.ResultCount,
			&e.ResponseTimeMs,
			&e.ProductID,
			&e.Position,
			&e.ConversionType,
			&e.Value,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan search event", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
