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

// InteractionAdapter implements InteractionRepository over PostgreSQL.
type InteractionAdapter struct {
	client *postgres.Client
}

// NewInteractionAdapter creates a new interaction adapter
func NewInteractionAdapter(client *postgres.Client) repositories.InteractionRepository {
	return &InteractionAdapter{client: client}
}

// RecentInteractions returns the user's latest interactions, newest first
func (a *InteractionAdapter) RecentInteractions(ctx context.Context, userID string, limit int) ([]*entities.Interaction, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, user_id, product_id, kind, created_at
		FROM user_interactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := a.client.DB().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get recent interactions", err)
	}
	defer rows.Close()

	var interactions []*entities.Interaction
	for rows.Next() {
		i := &entities.Interaction{}
		if err := rows.Scan(&i.ID, &i.UserID, &i.ProductID, &i.Kind, &i.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan interaction", err)
		}
		interactions = append(interactions, i)
	}

	return interactions, rows.Err()
}

// SavedSearches returns the user's saved search queries, newest first
func (a *InteractionAdapter) SavedSearches(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT query
		FROM saved_searches
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := a.client.DB().QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get saved searches", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, apperrors.NewInternalError("failed to scan saved search", err)
		}
		queries = append(queries, q)
	}

	return queries, rows.Err()
}

// LogInteraction appends an interaction event
func (a *InteractionAdapter) LogInteraction(ctx context.Context, interaction *entities.Interaction) error {
	if interaction.ID == "" {
		interaction.ID = uuid.New().String()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO user_interactions (id, user_id, product_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := a.client.DB().ExecContext(ctx, query,
		interaction.ID,
		interaction.UserID,
		interaction.ProductID,
		interaction.Kind,
		interaction.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to log interaction", err)
	}

	return nil
}
