package repositories

import (
	"context"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

// InteractionRepository provides read access to a user's past interaction
// events and saved searches.
type InteractionRepository interface {
	// RecentInteractions returns the user's latest interactions, newest first.
	RecentInteractions(ctx context.Context, userID string, limit int) ([]*entities.Interaction, error)

	// SavedSearches returns the user's saved search queries, newest first.
	SavedSearches(ctx context.Context, userID string, limit int) ([]string, error)

	// LogInteraction appends an interaction event.
	LogInteraction(ctx context.Context, interaction *entities.Interaction) error
}
