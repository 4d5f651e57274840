package services

import (
	"context"
	"math"
	"time"

	"github.com/sony/gobreaker"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
	"github.com/sunuchoix/search-backend/pkg/config"
)

// priceBuckets are the fixed facet ranges, in XOF. Max 0 means unbounded.
var priceBuckets = []entities.PriceBucketFacet{
	{Label: "0 - 10 000", Min: 0, Max: 10000},
	{Label: "10 000 - 50 000", Min: 10000, Max: 50000},
	{Label: "50 000 - 100 000", Min: 50000, Max: 100000},
	{Label: "100 000+", Min: 100000, Max: 0},
}

// TextMatcher resolves a free-text query into ranked candidate ids, backed
// by the external text index.
type TextMatcher interface {
	TextMatchIDs(ctx context.Context, query string, limit int) ([]string, error)
}

// CatalogQueryService executes structured catalog queries. The catalog store
// sits behind a circuit breaker and a per-query timeout; a failing store
// degrades to an empty page rather than an error.
type CatalogQueryService struct {
	catalog  repositories.CatalogRepository
	matcher  TextMatcher
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	pageSize int
}

// NewCatalogQueryService creates a query executor. matcher may be nil, in
// which case free-text queries use the catalog store's own matching.
func NewCatalogQueryService(catalog repositories.CatalogRepository, matcher TextMatcher, cfg *config.SearchConfig) *CatalogQueryService {
	timeout := time.Duration(cfg.QueryTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &CatalogQueryService{
		catalog:  catalog,
		matcher:  matcher,
		breaker:  breaker,
		timeout:  timeout,
		pageSize: pageSize,
	}
}

// Execute runs a structured query and returns one page of results with
// facets. Catalog failures yield an empty page with empty facets; the only
// errors surfaced to the caller are validation errors.
func (s *CatalogQueryService) Execute(ctx context.Context, criteria entities.SearchCriteria, page, pageSize int) (*entities.SearchResponse, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	started := time.Now()
	logger := observability.LoggerFromContext(ctx)
	normalized := criteria.Normalized()

	in := s.queryInput(ctx, normalized)
	in.Limit = pageSize
	in.Offset = (page - 1) * pageSize

	results, total, err := s.searchGuarded(ctx, in)
	if err != nil {
		logger.Error().
			Err(err).
			Str("query", normalized.Query).
			Msg("catalog query failed, returning empty page")
		return &entities.SearchResponse{
			Results:      []*entities.SearchResult{},
			TotalCount:   0,
			TotalPages:   0,
			CurrentPage:  page,
			PageSize:     pageSize,
			SearchTimeMs: float64(time.Since(started).Microseconds()) / 1000,
			Facets:       entities.EmptyFacets(),
		}, nil
	}

	facets := s.Facets(ctx, normalized)

	return &entities.SearchResponse{
		Results:      results,
		TotalCount:   total,
		TotalPages:   totalPages(total, pageSize),
		CurrentPage:  page,
		PageSize:     pageSize,
		SearchTimeMs: float64(time.Since(started).Microseconds()) / 1000,
		Facets:       facets,
	}, nil
}

// Facets computes the filter breakdowns for a criteria set. Each facet is
// computed independently; a failing aggregate leaves its facet empty rather
// than failing the whole set.
func (s *CatalogQueryService) Facets(ctx context.Context, criteria entities.SearchCriteria) *entities.Facets {
	logger := observability.LoggerFromContext(ctx)
	in := s.queryInput(ctx, criteria.Normalized())
	facets := entities.EmptyFacets()

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if brands, err := s.catalog.BrandCounts(queryCtx, in); err != nil {
		logger.Warn().Err(err).Msg("brand facet unavailable")
	} else {
		facets.Brands = brands
	}

	if sectors, err := s.catalog.SectorList(queryCtx); err != nil {
		logger.Warn().Err(err).Msg("sector facet unavailable")
	} else {
		facets.Sectors = sectors
	}

	if locations, err := s.catalog.LocationCounts(queryCtx, in); err != nil {
		logger.Warn().Err(err).Msg("location facet unavailable")
	} else {
		facets.Locations = locations
	}

	buckets := make([]entities.PriceBucketFacet, len(priceBuckets))
	copy(buckets, priceBuckets)
	if filled, err := s.catalog.PriceBucketCounts(queryCtx, in, buckets); err != nil {
		logger.Warn().Err(err).Msg("price facet unavailable")
	} else {
		facets.PriceBuckets = filled
	}

	return facets
}

// queryInput translates normalized criteria into store predicates. When a
// text index is wired, free-text queries resolve to candidate ids first; an
// index failure falls back to the store's own text matching.
func (s *CatalogQueryService) queryInput(ctx context.Context, n entities.SearchCriteria) repositories.QueryInput {
	in := repositories.QueryInput{
		Text:         n.Query,
		Category:     n.Category,
		MinRating:    n.Filters.MinRating,
		Location:     n.Filters.Location,
		Availability: n.Filters.Availability,
		Brands:       n.Filters.Brands,
		Sectors:      n.Filters.Sectors,
		Countries:    n.Filters.Countries,
		SortBy:       n.SortBy,
		SortOrder:    n.SortOrder,
	}
	if pr := n.Filters.PriceRange; pr != nil {
		min, max := pr.Min, pr.Max
		in.PriceMin = &min
		in.PriceMax = &max
	}

	if s.matcher != nil && n.Query != "" {
		ids, err := s.matcher.TextMatchIDs(ctx, n.Query, 250)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Msg("text index unavailable, falling back to catalog matching")
		} else {
			in.IDs = ids
		}
	}
	return in
}

func (s *CatalogQueryService) searchGuarded(ctx context.Context, in repositories.QueryInput) ([]*entities.SearchResult, int, error) {
	type searchOutcome struct {
		results []*entities.SearchResult
		total   int
	}

	outcome, err := s.breaker.Execute(func() (interface{}, error) {
		queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		results, total, err := s.catalog.Search(queryCtx, in)
		if err != nil {
			return nil, err
		}
		return searchOutcome{results: results, total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	out := outcome.(searchOutcome)
	return out.results, out.total, nil
}

func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}
