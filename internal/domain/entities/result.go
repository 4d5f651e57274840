package entities

import "time"

// Provider describes the company offering a catalog entry.
type Provider struct {
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// SearchResult is an immutable projection of a catalog entry. A new search
// produces new result values; results are never mutated after creation.
type SearchResult struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Category           string       `json:"category"`
	Sector             string       `json:"sector"`
	ProductType        string       `json:"product_type,omitempty"`
	Price              float64      `json:"price"`
	Currency           string       `json:"currency"`
	Rating             float64      `json:"rating"`
	ReviewCount        int          `json:"review_count"`
	Availability       Availability `json:"availability"`
	Brand              string       `json:"brand,omitempty"`
	Provider           Provider     `json:"provider"`
	Country            string       `json:"country"`
	AvailableCountries []string     `json:"available_countries,omitempty"`
	Features           []string     `json:"features,omitempty"`
	DeliveryTime       string       `json:"delivery_time,omitempty"`
	Warranty           string       `json:"warranty,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

// AvailableIn reports whether the result is sold into the given country,
// either natively or through its listed available countries.
func (r *SearchResult) AvailableIn(country string) bool {
	if r.Country == country {
		return true
	}
	for _, c := range r.AvailableCountries {
		if c == country {
			return true
		}
	}
	return false
}

// ShippingEstimate is a coarse delivery estimate attached during localization.
type ShippingEstimate struct {
	Available bool    `json:"available"`
	Cost      float64 `json:"cost"`
	Currency  string  `json:"currency"`
	ETA       string  `json:"eta"`
}

// LocalizedResult overlays a SearchResult with caller-location data.
// It is a read-only view and is never persisted.
type LocalizedResult struct {
	SearchResult
	Distance          *float64         `json:"distance,omitempty"`
	LocalAvailability bool             `json:"local_availability"`
	LocalPrice        float64          `json:"local_price"`
	LocalCurrency     string           `json:"local_currency"`
	Shipping          ShippingEstimate `json:"shipping"`
}

// PriceBucketFacet is a fixed price-range bucket with its result count.
type PriceBucketFacet struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"` // 0 means unbounded
	Count int     `json:"count"`
}

// Facets aggregates count breakdowns used to drive filter UI.
type Facets struct {
	Brands       map[string]int     `json:"brands"`
	Sectors      []string           `json:"sectors"`
	Locations    map[string]int     `json:"locations"`
	PriceBuckets []PriceBucketFacet `json:"price_buckets"`
}

// EmptyFacets returns a facet set with no counts.
func EmptyFacets() *Facets {
	return &Facets{
		Brands:    map[string]int{},
		Locations: map[string]int{},
	}
}

// SearchResponse is one page of executed search results.
type SearchResponse struct {
	Results      []*SearchResult `json:"results"`
	TotalCount   int             `json:"total_count"`
	TotalPages   int             `json:"total_pages"`
	CurrentPage  int             `json:"current_page"`
	PageSize     int             `json:"page_size"`
	SearchTimeMs float64         `json:"search_time_ms"`
	Facets       *Facets         `json:"facets"`
}
