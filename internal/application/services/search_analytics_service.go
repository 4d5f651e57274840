package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
)

// Rolling log capacities per event type. When a log is full the oldest
// event is dropped.
const (
	searchLogCap     = 1000
	clickLogCap      = 500
	conversionLogCap = 200
)

const mirrorTimeout = 5 * time.Second

// intentBucket maps trigger keywords to a classified intent. Buckets are
// checked in order; the first keyword hit wins.
type intentBucket struct {
	intent     entities.Intent
	confidence float64
	keywords   []string
	actions    []string
}

var intentBuckets = []intentBucket{
	{
		intent:     entities.IntentTransactional,
		confidence: 0.9,
		keywords:   []string{"buy", "price", "quote", "order", "subscribe", "acheter", "prix", "devis", "commander", "souscrire"},
		actions:    []string{"show_pricing", "show_providers", "enable_quick_quote"},
	},
	{
		intent:     entities.IntentCommercial,
		confidence: 0.8,
		keywords:   []string{"compare", "best", "top", "vs", "review", "comparer", "meilleur", "avis"},
		actions:    []string{"show_comparison", "show_ratings", "highlight_differences"},
	},
	{
		intent:     entities.IntentInformational,
		confidence: 0.7,
		keywords:   []string{"how", "what", "why", "guide", "comment", "quoi", "pourquoi"},
		actions:    []string{"show_guides", "show_faq"},
	},
}

var navigationalBucket = intentBucket{
	intent:     entities.IntentNavigational,
	confidence: 0.5,
	actions:    []string{"show_results"},
}

// AnalyticsService keeps bounded in-memory rolling logs of search, click and
// conversion events for live popularity and trend queries, mirroring each
// event to durable storage in the background.
type AnalyticsService struct {
	mu          sync.Mutex
	searches    []*entities.AnalyticsEvent
	clicks      []*entities.AnalyticsEvent
	conversions []*entities.AnalyticsEvent

	repo repositories.AnalyticsRepository
}

// NewAnalyticsService creates an analytics recorder. The repository is
// optional; without it events live only in the rolling logs.
func NewAnalyticsService(repo repositories.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// RecordSearch appends a search event.
func (s *AnalyticsService) RecordSearch(ctx context.Context, query, sessionID, userID, country string, resultCount int, responseTimeMs float64) {
	s.record(ctx, &entities.AnalyticsEvent{
		Type:           entities.EventSearch,
		Query:          query,
		SessionID:      sessionID,
		UserID:         userID,
		Country:        country,
		ResultCount:    resultCount,
		ResponseTimeMs: responseTimeMs,
	})
}

// RecordClick appends a result-click event.
func (s *AnalyticsService) RecordClick(ctx context.Context, query, sessionID, userID, productID string, position int) {
	s.record(ctx, &entities.AnalyticsEvent{
		Type:      entities.EventClick,
		Query:     query,
		SessionID: sessionID,
		UserID:    userID,
		ProductID: productID,
		Position:  position,
	})
}

// RecordConversion appends a conversion event.
func (s *AnalyticsService) RecordConversion(ctx context.Context, query, sessionID, userID, productID, conversionType string, value float64) {
	s.record(ctx, &entities.AnalyticsEvent{
		Type:           entities.EventConversion,
		Query:          query,
		SessionID:      sessionID,
		UserID:         userID,
		ProductID:      productID,
		ConversionType: conversionType,
		Value:          value,
	})
}

func (s *AnalyticsService) record(ctx context.Context, event *entities.AnalyticsEvent) {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now()

	s.mu.Lock()
	switch event.Type {
	case entities.EventSearch:
		s.searches = appendBounded(s.searches, event, searchLogCap)
	case entities.EventClick:
		s.clicks = appendBounded(s.clicks, event, clickLogCap)
	case entities.EventConversion:
		s.conversions = appendBounded(s.conversions, event, conversionLogCap)
	}
	s.mu.Unlock()

	if s.repo == nil {
		return
	}

	logger := observability.LoggerFromContext(ctx)
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			logger.Warn().
				Err(err).
				Str("event_type", string(event.Type)).
				Msg("failed to mirror analytics event")
		}
	}()
}

// PopularQueries returns the most frequent search queries within the period,
// ordered by count descending then most recent first.
func (s *AnalyticsService) PopularQueries(limit int, period time.Duration) []entities.PopularQuery {
	if limit <= 0 {
		limit = 10
	}
	cutoff := time.Now().Add(-period)

	s.mu.Lock()
	counts := make(map[string]*entities.PopularQuery)
	for _, e := range s.searches {
		if period > 0 && e.CreatedAt.Before(cutoff) {
			continue
		}
		q := strings.ToLower(strings.TrimSpace(e.Query))
		if q == "" {
			continue
		}
		pq, ok := counts[q]
		if !ok {
			pq = &entities.PopularQuery{Query: q}
			counts[q] = pq
		}
		pq.Count++
		if e.CreatedAt.After(pq.LastSeen) {
			pq.LastSeen = e.CreatedAt
		}
	}
	s.mu.Unlock()

	popular := make([]entities.PopularQuery, 0, len(counts))
	for _, pq := range counts {
		popular = append(popular, *pq)
	}
	sort.SliceStable(popular, func(i, j int) bool {
		if popular[i].Count != popular[j].Count {
			return popular[i].Count > popular[j].Count
		}
		return popular[i].LastSeen.After(popular[j].LastSeen)
	})
	if len(popular) > limit {
		popular = popular[:limit]
	}
	return popular
}

// TrendingTerms returns the texts of the most popular queries over the last
// 24 hours. Satisfies TrendProvider.
func (s *AnalyticsService) TrendingTerms(limit int) []string {
	popular := s.PopularQueries(limit, 24*time.Hour)
	terms := make([]string, 0, len(popular))
	for _, pq := range popular {
		terms = append(terms, pq.Query)
	}
	return terms
}

// AnalyzeIntent classifies a query by keyword buckets. Transactional
// keywords dominate commercial, which dominate informational; anything else
// is navigational.
func (s *AnalyticsService) AnalyzeIntent(query string) entities.IntentAnalysis {
	words := strings.Fields(strings.ToLower(query))
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}

	for _, bucket := range intentBuckets {
		for _, kw := range bucket.keywords {
			if _, ok := wordSet[kw]; ok {
				return entities.IntentAnalysis{
					Intent:           bucket.intent,
					Confidence:       bucket.confidence,
					SuggestedActions: bucket.actions,
				}
			}
		}
	}
	return entities.IntentAnalysis{
		Intent:           navigationalBucket.intent,
		Confidence:       navigationalBucket.confidence,
		SuggestedActions: navigationalBucket.actions,
	}
}

// ZeroResultQueries returns recent searches with no results, from durable
// storage when available, else from the rolling log.
func (s *AnalyticsService) ZeroResultQueries(ctx context.Context, limit int) ([]*entities.AnalyticsEvent, error) {
	if limit <= 0 {
		limit = 20
	}

	if s.repo != nil {
		events, err := s.repo.ZeroResultQueries(ctx, limit)
		if err == nil {
			return events, nil
		}
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Msg("zero-result lookup fell back to rolling log")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var zero []*entities.AnalyticsEvent
	for i := len(s.searches) - 1; i >= 0 && len(zero) < limit; i-- {
		if s.searches[i].ResultCount == 0 {
			zero = append(zero, s.searches[i])
		}
	}
	return zero, nil
}

// LogCounts reports the current rolling log sizes.
func (s *AnalyticsService) LogCounts() (searches, clicks, conversions int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.searches), len(s.clicks), len(s.conversions)
}

func appendBounded(log []*entities.AnalyticsEvent, event *entities.AnalyticsEvent, capacity int) []*entities.AnalyticsEvent {
	log = append(log, event)
	if len(log) > capacity {
		log = log[len(log)-capacity:]
	}
	return log
}
