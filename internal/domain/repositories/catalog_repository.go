package repositories

import (
	"context"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

// QueryInput is the fully-resolved predicate set handed to the catalog store.
// Zero values and empty slices impose no constraint.
type QueryInput struct {
	Text         string
	IDs          []string // restrict to pre-matched candidate ids (text index path)
	Category     string
	PriceMin     *float64
	PriceMax     *float64
	MinRating    float64
	Location     string
	Availability entities.Availability
	Brands       []string
	Sectors      []string
	Countries    []string
	SortBy       entities.SortBy
	SortOrder    entities.SortOrder
	Limit        int
	Offset       int
}

// CatalogRepository is the queryable catalog store consumed by the search
// core. It exposes products with joined provider and review data.
type CatalogRepository interface {
	// Search returns one page of matching results plus the total match count.
	Search(ctx context.Context, in QueryInput) ([]*entities.SearchResult, int, error)

	// GetByID retrieves a single catalog entry.
	GetByID(ctx context.Context, id string) (*entities.SearchResult, error)

	// BrandCounts aggregates match counts per brand for the given predicates.
	BrandCounts(ctx context.Context, in QueryInput) (map[string]int, error)

	// SectorList returns all known sectors.
	SectorList(ctx context.Context) ([]string, error)

	// LocationCounts aggregates match counts per location.
	LocationCounts(ctx context.Context, in QueryInput) (map[string]int, error)

	// PriceBucketCounts fills the given buckets with match counts.
	PriceBucketCounts(ctx context.Context, in QueryInput, buckets []entities.PriceBucketFacet) ([]entities.PriceBucketFacet, error)

	// SimilarCandidates returns entries in the same sector within a price band
	// around the reference entry, excluding the reference itself.
	SimilarCandidates(ctx context.Context, ref *entities.SearchResult, sector string, limit int) ([]*entities.SearchResult, error)

	// SectorPopular returns the most-reviewed entries of a sector.
	SectorPopular(ctx context.Context, sector string, limit int) ([]*entities.SearchResult, error)

	// MatchNames returns product names matching a partial query.
	MatchNames(ctx context.Context, partial string, limit int) ([]*entities.SearchResult, error)

	// MatchBrands returns distinct brands matching a partial query.
	MatchBrands(ctx context.Context, partial string, limit int) ([]string, error)

	// MatchCategories returns distinct (category, sector) pairs matching a
	// partial query. The map is keyed by category with the sector as value.
	MatchCategories(ctx context.Context, partial string, limit int) (map[string]string, error)
}
