package entities

// SuggestionType is the kind of a smart suggestion.
type SuggestionType string

const (
	SuggestionProduct  SuggestionType = "product"
	SuggestionBrand    SuggestionType = "brand"
	SuggestionCategory SuggestionType = "category"
	SuggestionRecent   SuggestionType = "recent"
	SuggestionTrending SuggestionType = "trending"
)

// SmartSuggestion is a ranked textual suggestion for a partial query.
// Suggestions are ephemeral and regenerated per request. The payload fields
// are variant-specific: ProductID is set for product suggestions, Sector for
// category suggestions.
type SmartSuggestion struct {
	Text       string         `json:"text"`
	Type       SuggestionType `json:"type"`
	Confidence float64        `json:"confidence"` // [0,1]
	ProductID  string         `json:"product_id,omitempty"`
	Sector     string         `json:"sector,omitempty"`
}
