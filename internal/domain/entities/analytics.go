package entities

import "time"

// AnalyticsEventType partitions the rolling event logs.
type AnalyticsEventType string

const (
	EventSearch     AnalyticsEventType = "search"
	EventClick      AnalyticsEventType = "click"
	EventConversion AnalyticsEventType = "conversion"
)

// AnalyticsEvent is one append-only search interaction record.
type AnalyticsEvent struct {
	ID             string             `json:"id" db:"id"`
	Type           AnalyticsEventType `json:"type" db:"event_type"`
	Query          string             `json:"query" db:"query"`
	SessionID      string             `json:"session_id,omitempty" db:"session_id"`
	UserID         string             `json:"user_id,omitempty" db:"user_id"`
	Country        string             `json:"country,omitempty" db:"country"`
	ResultCount    int                `json:"result_count" db:"result_count"`
	ResponseTimeMs float64            `json:"response_time_ms" db:"response_time_ms"`
	ProductID      string             `json:"product_id,omitempty" db:"product_id"`
	Position       int                `json:"position,omitempty" db:"position"`
	ConversionType string             `json:"conversion_type,omitempty" db:"conversion_type"`
	Value          float64            `json:"value,omitempty" db:"value"`
	Metadata       map[string]string  `json:"metadata,omitempty" db:"-"`
	CreatedAt      time.Time          `json:"created_at" db:"created_at"`
}

// PopularQuery is a frequency summary over the search log.
type PopularQuery struct {
	Query    string    `json:"query"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// Intent is a coarse classification of a query's purpose.
type Intent string

const (
	IntentTransactional Intent = "transactional"
	IntentCommercial    Intent = "commercial"
	IntentInformational Intent = "informational"
	IntentNavigational  Intent = "navigational"
)

// IntentAnalysis is the outcome of classifying a query.
type IntentAnalysis struct {
	Intent           Intent   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	SuggestedActions []string `json:"suggested_actions"`
}
