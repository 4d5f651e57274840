package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/providers"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
	"github.com/sunuchoix/search-backend/pkg/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	preloadDelay   = 100 * time.Millisecond
	preloadTimeout = 5 * time.Second
	preloadLimit   = 5
	suggestionMax  = 8
)

// SearchOptions carries the per-request context of an orchestrated search.
type SearchOptions struct {
	SessionID string
	UserID    string
	Device    *entities.Coordinates
	Proximity *entities.ProximityFilter
}

// SearchOutcome is the full response of an orchestrated search.
type SearchOutcome struct {
	Response    *entities.SearchResponse    `json:"response"`
	Localized   []entities.LocalizedResult  `json:"localized,omitempty"`
	Location    *entities.LocationData      `json:"location,omitempty"`
	Suggestions []entities.SmartSuggestion  `json:"suggestions,omitempty"`
	Performance entities.PerformanceMetrics `json:"performance"`
}

// SearchService orchestrates the full search pipeline: cache, query
// execution, geo adjustment, similarity boosting, suggestions and analytics.
// Every stage except query execution is best-effort and toggleable.
type SearchService struct {
	cache       providers.CacheProvider
	executor    *CatalogQueryService
	geo         *GeoService
	similarity  *SimilarityService
	suggestions *SuggestionService
	analytics   *AnalyticsService
	metrics     *observability.Metrics

	pipeline   config.PipelineConfig
	ttlSeconds int
	batchSize  int
}

// NewSearchService creates the orchestrator. cache, geo, similarity,
// suggestions, analytics and metrics may each be nil; the matching stage is
// then skipped regardless of the pipeline toggles.
func NewSearchService(
	cache providers.CacheProvider,
	executor *CatalogQueryService,
	geo *GeoService,
	similarity *SimilarityService,
	suggestions *SuggestionService,
	analytics *AnalyticsService,
	metrics *observability.Metrics,
	pipeline config.PipelineConfig,
	cacheCfg config.CacheConfig,
	searchCfg config.SearchConfig,
) *SearchService {
	ttl := cacheCfg.TTLSeconds
	if ttl <= 0 {
		ttl = 300
	}
	batch := searchCfg.BulkBatchSize
	if batch <= 0 {
		batch = 5
	}
	return &SearchService{
		cache:       cache,
		executor:    executor,
		geo:         geo,
		similarity:  similarity,
		suggestions: suggestions,
		analytics:   analytics,
		metrics:     metrics,
		pipeline:    pipeline,
		ttlSeconds:  ttl,
		batchSize:   batch,
	}
}

// Search runs the full pipeline for one request. Degraded stages log and
// continue; the only errors surfaced are invalid criteria.
func (s *SearchService) Search(ctx context.Context, criteria entities.SearchCriteria, page int, opts SearchOptions) (*SearchOutcome, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}

	started := time.Now()
	ctx = observability.WithSearch(ctx, opts.SessionID, criteria.Query)
	logger := observability.LoggerFromContext(ctx)
	cacheKey := criteria.CacheKey(page)

	// In non-blocking mode the result is never attached to the outcome; the
	// call still runs so the suggestion memo is warm for the next request.
	var suggestionCh chan []entities.SmartSuggestion
	if s.pipeline.SuggestionsEnabled && s.suggestions != nil && criteria.Query != "" {
		suggestionCh = make(chan []entities.SmartSuggestion, 1)
		go func() {
			sector := ""
			if len(criteria.Filters.Sectors) == 1 {
				sector = criteria.Filters.Sectors[0]
			}
			suggestionCh <- s.suggestions.Suggest(ctx, criteria.Query, opts.UserID, sector, suggestionMax)
		}()
		if s.metrics != nil {
			s.metrics.SuggestionCount.Add(ctx, 1)
		}
	}

	var optimizations []string
	response, cacheHit := s.fromCache(ctx, cacheKey)
	if cacheHit {
		optimizations = append(optimizations, "cache_hit")
	} else {
		var err error
		response, err = s.executor.Execute(ctx, criteria, page, 0)
		if err != nil {
			return nil, err
		}
		s.store(ctx, cacheKey, response)
	}

	outcome := &SearchOutcome{Response: response}

	if s.pipeline.GeoEnabled && s.geo != nil {
		loc := s.geo.DetectLocation(ctx, opts.Device)
		outcome.Location = loc
		localized := s.geo.Localize(response.Results, loc, opts.Proximity)
		outcome.Localized = s.geo.Prioritize(localized, loc, s.pipeline.GeoBoost)
		optimizations = append(optimizations, "geo_prioritized")
	}

	if s.pipeline.SimilarityEnabled && s.similarity != nil && len(response.Results) > 0 {
		similar, err := s.similarity.FindSimilar(ctx, response.Results[0].ID, preloadLimit, response.Results[0].Sector)
		if err != nil {
			logger.Debug().Err(err).Msg("similarity boost skipped")
		} else if len(similar) > 0 {
			outcome.Response = responseWithResults(response, s.similarity.BoostPage(response.Results, similar))
			optimizations = append(optimizations, "similarity_boost")
		}
	}

	if suggestionCh != nil && s.pipeline.SuggestionsBlocking {
		outcome.Suggestions = <-suggestionCh
		optimizations = append(optimizations, "suggestions")
	}

	elapsedMs := float64(time.Since(started).Microseconds()) / 1000
	outcome.Performance = ScorePerformance(elapsedMs, cacheHit, len(outcome.Response.Results), optimizations)

	if s.pipeline.AnalyticsEnabled && s.analytics != nil {
		country := ""
		if outcome.Location != nil {
			country = outcome.Location.Country
		}
		s.analytics.RecordSearch(ctx, criteria.Query, opts.SessionID, opts.UserID, country, outcome.Response.TotalCount, elapsedMs)
	}

	if s.metrics != nil {
		attrs := metric.WithAttributes(attribute.Bool("cache_hit", cacheHit))
		s.metrics.SearchCount.Add(ctx, 1, attrs)
		s.metrics.SearchDuration.Record(ctx, elapsedMs, attrs)
	}

	return outcome, nil
}

// BulkSearch executes many requests in sequential batches, concurrent within
// a batch. Failed requests are logged and omitted; the map is keyed by each
// criteria's first-page cache key.
func (s *SearchService) BulkSearch(ctx context.Context, criteriaList []entities.SearchCriteria, opts SearchOptions) map[string]*SearchOutcome {
	logger := observability.LoggerFromContext(ctx)
	outcomes := make(map[string]*SearchOutcome, len(criteriaList))
	var mu sync.Mutex

	for start := 0; start < len(criteriaList); start += s.batchSize {
		end := start + s.batchSize
		if end > len(criteriaList) {
			end = len(criteriaList)
		}

		var wg sync.WaitGroup
		for _, criteria := range criteriaList[start:end] {
			wg.Add(1)
			go func(c entities.SearchCriteria) {
				defer wg.Done()
				outcome, err := s.Search(ctx, c, 1, opts)
				if err != nil {
					logger.Warn().
						Err(err).
						Str("query", c.Query).
						Msg("bulk search request failed")
					if s.metrics != nil {
						s.metrics.BulkFailureCount.Add(ctx, 1)
					}
					return
				}
				mu.Lock()
				outcomes[c.CacheKey(1)] = outcome
				mu.Unlock()
			}(criteria)
		}
		wg.Wait()
	}
	return outcomes
}

// PreloadSimilar warms the similar-items cache for a result in the
// background. Fire-and-forget: the caller never observes the outcome.
func (s *SearchService) PreloadSimilar(resultID, sector string) {
	if s.similarity == nil || s.cache == nil {
		return
	}

	logger := observability.GetLogger()
	go func() {
		time.Sleep(preloadDelay)

		ctx, cancel := context.WithTimeout(context.Background(), preloadTimeout)
		defer cancel()

		similar, err := s.similarity.FindSimilar(ctx, resultID, preloadLimit, sector)
		if err != nil {
			logger.Debug().Err(err).Str("result_id", resultID).Msg("similar preload failed")
			return
		}

		payload, err := json.Marshal(similar)
		if err != nil {
			logger.Debug().Err(err).Msg("similar preload marshal failed")
			return
		}
		if err := s.cache.Set(ctx, "similar:"+resultID, payload, s.ttlSeconds); err != nil {
			logger.Debug().Err(err).Msg("similar preload store failed")
		}
	}()
}

// InvalidateSearchCache drops all cached search pages, e.g. after a catalog
// import.
func (s *SearchService) InvalidateSearchCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.DeletePattern(ctx, "search:*")
}

func (s *SearchService) fromCache(ctx context.Context, key string) (*entities.SearchResponse, bool) {
	if !s.pipeline.CacheEnabled || s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if s.metrics != nil {
			s.metrics.CacheMissCount.Add(ctx, 1)
		}
		return nil, false
	}

	var response entities.SearchResponse
	if err := json.Unmarshal(data, &response); err != nil {
		// A corrupt entry is a miss; drop it so it cannot recur.
		observability.LoggerFromContext(ctx).Warn().
			Err(err).
			Str("key", key).
			Msg("corrupt cache entry, evicting")
		_ = s.cache.Delete(ctx, key)
		if s.metrics != nil {
			s.metrics.CacheMissCount.Add(ctx, 1)
		}
		return nil, false
	}

	if s.metrics != nil {
		s.metrics.CacheHitCount.Add(ctx, 1)
	}
	return &response, true
}

func (s *SearchService) store(ctx context.Context, key string, response *entities.SearchResponse) {
	if !s.pipeline.CacheEnabled || s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to marshal search page for cache")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttlSeconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("failed to cache search page")
	}
}

// ScorePerformance computes the per-search performance score and grade.
// Cache hits earn 30; response time earns 40/30/20/10 below 50/100/200/500 ms
// with an extra 10 below 50 ms; result counts earn 10/15/20 for some/>5/>10.
func ScorePerformance(elapsedMs float64, cacheHit bool, resultCount int, optimizations []string) entities.PerformanceMetrics {
	score := 0
	if cacheHit {
		score += 30
	}

	switch {
	case elapsedMs < 50:
		score += 50
	case elapsedMs < 100:
		score += 30
	case elapsedMs < 200:
		score += 20
	case elapsedMs < 500:
		score += 10
	}

	switch {
	case resultCount > 10:
		score += 20
	case resultCount > 5:
		score += 15
	case resultCount > 0:
		score += 10
	}

	grade := entities.GradePoor
	switch {
	case score >= 80:
		grade = entities.GradeExcellent
	case score >= 60:
		grade = entities.GradeGood
	case score >= 40:
		grade = entities.GradeAverage
	}

	return entities.PerformanceMetrics{
		SearchTimeMs:  elapsedMs,
		CacheHit:      cacheHit,
		ResultCount:   resultCount,
		Optimizations: optimizations,
		Score:         score,
		Grade:         grade,
	}
}

func responseWithResults(response *entities.SearchResponse, results []*entities.SearchResult) *entities.SearchResponse {
	boosted := *response
	boosted.Results = results
	return &boosted
}
