package entities

import "time"

// InteractionKind is the kind of a user-catalog interaction.
type InteractionKind string

const (
	InteractionView     InteractionKind = "view"
	InteractionCompare  InteractionKind = "compare"
	InteractionFavorite InteractionKind = "favorite"
)

// Interaction is one past user interaction with a catalog entry.
type Interaction struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	ProductID string          `json:"product_id" db:"product_id"`
	Kind      InteractionKind `json:"kind" db:"kind"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
