package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
)

const (
	minQueryLength      = 2
	perSourceCap        = 3
	suggestionMemoTTL   = 5 * time.Minute
	suggestionMemoSize  = 512
	prefixConfidence    = 0.9
	substringConfidence = 0.7
)

// defaultTrendingTerms seed the trending source until analytics has enough
// traffic to derive real trends.
var defaultTrendingTerms = []string{
	"assurance auto",
	"forfait mobile",
	"compte épargne",
	"assurance santé",
	"crédit immobilier",
}

// TrendProvider supplies trending query terms, typically the analytics
// recorder.
type TrendProvider interface {
	TrendingTerms(limit int) []string
}

// SuggestionService produces ranked textual suggestions for partial queries
// from catalog entities, user history and trending terms.
type SuggestionService struct {
	catalog      repositories.CatalogRepository
	interactions repositories.InteractionRepository
	trends       TrendProvider
	memo         *expirable.LRU[string, []entities.SmartSuggestion]
}

// NewSuggestionService creates a new suggestion service. Results are
// memoized per (query, user, sector) tuple for five minutes; the underlying
// store evicts stale entries on its own schedule.
func NewSuggestionService(catalog repositories.CatalogRepository, interactions repositories.InteractionRepository, trends TrendProvider) *SuggestionService {
	return &SuggestionService{
		catalog:      catalog,
		interactions: interactions,
		trends:       trends,
		memo:         expirable.NewLRU[string, []entities.SmartSuggestion](suggestionMemoSize, nil, suggestionMemoTTL),
	}
}

// Suggest returns up to limit suggestions for a partial query, ordered by
// confidence descending. Queries shorter than two characters get default
// suggestions instead of a match attempt.
func (s *SuggestionService) Suggest(ctx context.Context, partial, userID, sector string, limit int) []entities.SmartSuggestion {
	if limit <= 0 {
		limit = 8
	}

	query := strings.ToLower(strings.TrimSpace(partial))
	if len([]rune(query)) < minQueryLength {
		return s.defaults(ctx, userID, limit)
	}

	memoKey := query + "|" + userID + "|" + sector
	if cached, ok := s.memo.Get(memoKey); ok {
		return cached
	}

	suggestions := s.gather(ctx, query, userID)
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}

	s.memo.Add(memoKey, suggestions)
	return suggestions
}

// PurgeExpired drops all memoized suggestion sets. The expirable store also
// sweeps on its own; this hook exists so callers need not depend on its
// timing.
func (s *SuggestionService) PurgeExpired() {
	s.memo.Purge()
}

// gather collects candidates from the five sources concurrently. Source
// failures are logged and skipped; suggestions are best-effort.
func (s *SuggestionService) gather(ctx context.Context, query, userID string) []entities.SmartSuggestion {
	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		suggestions []entities.SmartSuggestion
	)
	logger := observability.LoggerFromContext(ctx)

	add := func(items ...entities.SmartSuggestion) {
		mu.Lock()
		defer mu.Unlock()
		suggestions = append(suggestions, items...)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		matches, err := s.catalog.MatchNames(ctx, query, perSourceCap)
		if err != nil {
			logger.Debug().Err(err).Msg("product name suggestions unavailable")
			return
		}
		for _, m := range matches {
			add(entities.SmartSuggestion{
				Text:       m.Name,
				Type:       entities.SuggestionProduct,
				Confidence: Confidence(query, m.Name),
				ProductID:  m.ID,
			})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		brands, err := s.catalog.MatchBrands(ctx, query, perSourceCap)
		if err != nil {
			logger.Debug().Err(err).Msg("brand suggestions unavailable")
			return
		}
		for _, b := range brands {
			add(entities.SmartSuggestion{
				Text:       b,
				Type:       entities.SuggestionBrand,
				Confidence: Confidence(query, b),
			})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		categories, err := s.catalog.MatchCategories(ctx, query, perSourceCap)
		if err != nil {
			logger.Debug().Err(err).Msg("category suggestions unavailable")
			return
		}
		for category, sector := range categories {
			add(entities.SmartSuggestion{
				Text:       category,
				Type:       entities.SuggestionCategory,
				Confidence: Confidence(query, category),
				Sector:     sector,
			})
		}
	}()

	if userID != "" && s.interactions != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			saved, err := s.interactions.SavedSearches(ctx, userID, perSourceCap)
			if err != nil {
				logger.Debug().Err(err).Msg("saved search suggestions unavailable")
				return
			}
			for _, q := range saved {
				add(entities.SmartSuggestion{
					Text:       q,
					Type:       entities.SuggestionRecent,
					Confidence: Confidence(query, q),
				})
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, term := range s.trendingTerms(perSourceCap) {
			add(entities.SmartSuggestion{
				Text:       term,
				Type:       entities.SuggestionTrending,
				Confidence: Confidence(query, term),
			})
		}
	}()

	wg.Wait()
	return dedupeSuggestions(suggestions)
}

// defaults returns recent searches when a user is known, else trending terms.
func (s *SuggestionService) defaults(ctx context.Context, userID string, limit int) []entities.SmartSuggestion {
	if userID != "" && s.interactions != nil {
		saved, err := s.interactions.SavedSearches(ctx, userID, limit)
		if err == nil && len(saved) > 0 {
			suggestions := make([]entities.SmartSuggestion, 0, len(saved))
			for _, q := range saved {
				suggestions = append(suggestions, entities.SmartSuggestion{
					Text:       q,
					Type:       entities.SuggestionRecent,
					Confidence: 0.5,
				})
			}
			return suggestions
		}
		if err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).Msg("saved searches unavailable for defaults")
		}
	}

	terms := s.trendingTerms(limit)
	suggestions := make([]entities.SmartSuggestion, 0, len(terms))
	for _, term := range terms {
		suggestions = append(suggestions, entities.SmartSuggestion{
			Text:       term,
			Type:       entities.SuggestionTrending,
			Confidence: 0.5,
		})
	}
	return suggestions
}

func (s *SuggestionService) trendingTerms(limit int) []string {
	if s.trends != nil {
		if terms := s.trends.TrendingTerms(limit); len(terms) > 0 {
			return terms
		}
	}
	if limit > len(defaultTrendingTerms) {
		limit = len(defaultTrendingTerms)
	}
	return defaultTrendingTerms[:limit]
}

// Confidence scores how well a candidate completes a partial query: prefix
// matches 0.9, substring matches 0.7, anything else by exact normalized
// Levenshtein distance. The edit-distance branch is also the sole ranking
// signal for low-similarity suggestions.
func Confidence(query, candidate string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	c := strings.ToLower(strings.TrimSpace(candidate))
	if q == "" || c == "" {
		return 0
	}

	if strings.HasPrefix(c, q) {
		return prefixConfidence
	}
	if strings.Contains(c, q) {
		return substringConfidence
	}

	dist := levenshtein.ComputeDistance(q, c)
	maxLen := len([]rune(q))
	if l := len([]rune(c)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	conf := 1 - float64(dist)/float64(maxLen)
	if conf < 0 {
		conf = 0
	}
	return conf
}

func dedupeSuggestions(suggestions []entities.SmartSuggestion) []entities.SmartSuggestion {
	seen := make(map[string]struct{}, len(suggestions))
	out := suggestions[:0]
	for _, sg := range suggestions {
		key := strings.ToLower(sg.Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sg)
	}
	return out
}
