package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
)

// Similarity factor weights. They sum to 1.0; a factor with missing data on
// either side contributes 0 without shrinking the denominator, so incomplete
// entries score lower rather than being treated as equal.
const (
	wPrice       = 0.30
	wSector      = 0.25
	wBrand       = 0.20
	wCountry     = 0.15
	wProductType = 0.10
)

// boostStart and boostStep space injected similar items across a result page
// at positions 5, 8, 11, ...
const (
	boostStart = 4
	boostStep  = 3
)

const recentHistorySize = 5

// SimilarityService scores pairwise similarity between catalog entries and
// derives "similar" and personalized result sets from it.
type SimilarityService struct {
	catalog      repositories.CatalogRepository
	interactions repositories.InteractionRepository
}

// NewSimilarityService creates a new similarity service
func NewSimilarityService(catalog repositories.CatalogRepository, interactions repositories.InteractionRepository) *SimilarityService {
	return &SimilarityService{
		catalog:      catalog,
		interactions: interactions,
	}
}

// Score computes the weighted composite similarity of two entries in [0,1].
func (s *SimilarityService) Score(a, b *entities.SearchResult) float64 {
	score := 0.0

	if a.Price > 0 && b.Price > 0 {
		avg := (a.Price + b.Price) / 2
		closeness := 1 - math.Abs(a.Price-b.Price)/avg
		if closeness < 0 {
			closeness = 0
		}
		score += closeness * wPrice
	}
	if a.Sector != "" && strings.EqualFold(a.Sector, b.Sector) {
		score += wSector
	}
	if a.Brand != "" && strings.EqualFold(a.Brand, b.Brand) {
		score += wBrand
	}
	if a.Country != "" && strings.EqualFold(a.Country, b.Country) {
		score += wCountry
	}
	if a.ProductType != "" && strings.EqualFold(a.ProductType, b.ProductType) {
		score += wProductType
	}

	return score
}

// FindSimilar returns up to limit entries ranked by similarity to the
// reference entry. Candidates are pre-narrowed by sector and a ±50% price
// band to bound scoring cost.
func (s *SimilarityService) FindSimilar(ctx context.Context, referenceID string, limit int, sector string) ([]*entities.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	ref, err := s.catalog.GetByID(ctx, referenceID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.SimilarCandidates(ctx, ref, sector, limit*4)
	if err != nil {
		return nil, err
	}

	type scored struct {
		result *entities.SearchResult
		score  float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, scored{result: c, score: s.Score(ref, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	results := make([]*entities.SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = r.result
	}
	return results, nil
}

// BoostPage injects similar items into a result page at spaced positions,
// skipping ids already present. The input slice is not mutated.
func (s *SimilarityService) BoostPage(page []*entities.SearchResult, similar []*entities.SearchResult) []*entities.SearchResult {
	if len(similar) == 0 {
		return page
	}

	present := make(map[string]struct{}, len(page))
	for _, r := range page {
		present[r.ID] = struct{}{}
	}

	boosted := make([]*entities.SearchResult, len(page))
	copy(boosted, page)

	pos := boostStart
	for _, item := range similar {
		if _, ok := present[item.ID]; ok {
			continue
		}
		if pos > len(boosted) {
			break
		}
		boosted = append(boosted[:pos], append([]*entities.SearchResult{item}, boosted[pos:]...)...)
		present[item.ID] = struct{}{}
		pos += boostStep
	}
	return boosted
}

// Personalized recommends entries seeded from the user's most recent viewed
// or favorited items, deduplicated by id. Without history it falls back to
// sector-popular entries.
func (s *SimilarityService) Personalized(ctx context.Context, userID string, limit int, sector string) ([]*entities.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	var history []*entities.Interaction
	if userID != "" && s.interactions != nil {
		var err error
		history, err = s.interactions.RecentInteractions(ctx, userID, recentHistorySize)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("user_id", userID).
				Msg("failed to load interaction history, falling back to popular")
			history = nil
		}
	}

	if len(history) == 0 {
		return s.catalog.SectorPopular(ctx, sector, limit)
	}

	seen := make(map[string]struct{})
	var recommended []*entities.SearchResult
	for _, interaction := range history {
		similar, err := s.FindSimilar(ctx, interaction.ProductID, limit, sector)
		if err != nil {
			observability.LoggerFromContext(ctx).Debug().
				Err(err).
				Str("product_id", interaction.ProductID).
				Msg("skipping seed item")
			continue
		}
		for _, item := range similar {
			if _, ok := seen[item.ID]; ok {
				continue
			}
			seen[item.ID] = struct{}{}
			recommended = append(recommended, item)
			if len(recommended) >= limit {
				return recommended, nil
			}
		}
	}

	if len(recommended) == 0 {
		return s.catalog.SectorPopular(ctx, sector, limit)
	}
	return recommended, nil
}
