package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/sunuchoix/search-backend/pkg/errors"
)

// SortBy enumerates the supported sort keys.
type SortBy string

const (
	SortByPrice      SortBy = "price"
	SortByRating     SortBy = "rating"
	SortByPopularity SortBy = "popularity"
	SortByNewest     SortBy = "newest"
)

// SortOrder enumerates sort directions.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Availability enumerates stock states. The zero value means "any".
type Availability string

const (
	AvailabilityAny         Availability = ""
	AvailabilityInStock     Availability = "in_stock"
	AvailabilityOnOrder     Availability = "on_order"
	AvailabilityUnavailable Availability = "unavailable"
)

// PriceRange bounds a price filter. Min <= Max, both non-negative.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SearchFilters holds the structured filters of a search request.
// Empty slices and zero values impose no restriction.
type SearchFilters struct {
	PriceRange   *PriceRange  `json:"price_range,omitempty"`
	MinRating    float64      `json:"min_rating,omitempty"`
	Location     string       `json:"location,omitempty"`
	Availability Availability `json:"availability,omitempty"`
	Brands       []string     `json:"brands,omitempty"`
	Features     []string     `json:"features,omitempty"`
	Warranty     string       `json:"warranty,omitempty"`
	DeliveryTime string       `json:"delivery_time,omitempty"`
	Sectors      []string     `json:"sectors,omitempty"`
	Countries    []string     `json:"countries,omitempty"`
}

// SearchCriteria is a full search request.
type SearchCriteria struct {
	Query     string        `json:"query"`
	Category  string        `json:"category,omitempty"`
	SortBy    SortBy        `json:"sort_by,omitempty"`
	SortOrder SortOrder     `json:"sort_order,omitempty"`
	Filters   SearchFilters `json:"filters"`
}

// Validate checks the criteria invariants.
func (c *SearchCriteria) Validate() error {
	if pr := c.Filters.PriceRange; pr != nil {
		if pr.Min < 0 || pr.Max < 0 {
			return apperrors.NewValidationError("price range bounds must be non-negative")
		}
		if pr.Min > pr.Max {
			return apperrors.NewValidationError("price range min must not exceed max")
		}
	}
	if c.Filters.MinRating < 0 || c.Filters.MinRating > 5 {
		return apperrors.NewValidationError("minimum rating must be between 0 and 5")
	}
	return nil
}

// Normalized returns a copy with the query lowercased and trimmed, filter
// slices sorted and deduplicated, and defaults applied to omitted fields.
// Two criteria that differ only in array ordering or omitted-vs-default
// fields normalize to the same value.
func (c SearchCriteria) Normalized() SearchCriteria {
	n := c
	n.Query = strings.ToLower(strings.TrimSpace(c.Query))
	n.Category = strings.ToLower(strings.TrimSpace(c.Category))
	if n.SortBy == "" {
		n.SortBy = SortByNewest
	}
	if n.SortOrder == "" {
		n.SortOrder = SortDesc
	}
	n.Filters.Brands = sortedUnique(c.Filters.Brands)
	n.Filters.Features = sortedUnique(c.Filters.Features)
	n.Filters.Sectors = sortedUnique(c.Filters.Sectors)
	n.Filters.Countries = sortedUnique(c.Filters.Countries)
	n.Filters.Location = strings.ToLower(strings.TrimSpace(c.Filters.Location))
	n.Filters.Warranty = strings.TrimSpace(c.Filters.Warranty)
	n.Filters.DeliveryTime = strings.TrimSpace(c.Filters.DeliveryTime)
	return n
}

// CacheKey derives a deterministic content-addressed key for the criteria and
// page. Field ordering and omitted optional fields do not affect the key.
func (c SearchCriteria) CacheKey(page int) string {
	n := c.Normalized()

	priceMin, priceMax := 0.0, 0.0
	if n.Filters.PriceRange != nil {
		priceMin = n.Filters.PriceRange.Min
		priceMax = n.Filters.PriceRange.Max
	}

	parts := []string{
		"q=" + n.Query,
		"cat=" + n.Category,
		"sort=" + string(n.SortBy) + ":" + string(n.SortOrder),
		fmt.Sprintf("price=%.2f-%.2f", priceMin, priceMax),
		fmt.Sprintf("rating=%.1f", n.Filters.MinRating),
		"loc=" + n.Filters.Location,
		"avail=" + string(n.Filters.Availability),
		"brands=" + strings.Join(n.Filters.Brands, ","),
		"features=" + strings.Join(n.Filters.Features, ","),
		"warranty=" + n.Filters.Warranty,
		"delivery=" + n.Filters.DeliveryTime,
		"sectors=" + strings.Join(n.Filters.Sectors, ","),
		"countries=" + strings.Join(n.Filters.Countries, ","),
		fmt.Sprintf("page=%d", page),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "search:" + hex.EncodeToString(sum[:])
}

func sortedUnique(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
