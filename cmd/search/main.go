package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sunuchoix/search-backend/internal/adapters/cache"
	"github.com/sunuchoix/search-backend/internal/adapters/database"
	"github.com/sunuchoix/search-backend/internal/adapters/providers/geolocation"
	"github.com/sunuchoix/search-backend/internal/adapters/search"
	"github.com/sunuchoix/search-backend/internal/application/services"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/providers"
	"github.com/sunuchoix/search-backend/internal/export"
	"github.com/sunuchoix/search-backend/internal/infrastructure/clients/postgres"
	redisclient "github.com/sunuchoix/search-backend/internal/infrastructure/clients/redis"
	tsclient "github.com/sunuchoix/search-backend/internal/infrastructure/clients/typesense"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
	"github.com/sunuchoix/search-backend/pkg/config"
)

func main() {
	var (
		query     string
		category  string
		sectors   string
		brands    string
		countries string
		minRating float64
		priceMin  float64
		priceMax  float64
		sortBy    string
		sortOrder string
		page      int
		userID    string
		format    string
		output    string
	)
	flag.StringVar(&query, "q", "", "free-text query")
	flag.StringVar(&category, "category", "", "category filter")
	flag.StringVar(&sectors, "sectors", "", "comma-separated sector filter")
	flag.StringVar(&brands, "brands", "", "comma-separated brand filter")
	flag.StringVar(&countries, "countries", "", "comma-separated country filter")
	flag.Float64Var(&minRating, "min-rating", 0, "minimum rating (0-5)")
	flag.Float64Var(&priceMin, "price-min", 0, "minimum price")
	flag.Float64Var(&priceMax, "price-max", 0, "maximum price")
	flag.StringVar(&sortBy, "sort", "", "sort key: price, rating, popularity, newest")
	flag.StringVar(&sortOrder, "order", "", "sort order: asc, desc")
	flag.IntVar(&page, "page", 1, "result page (1-based)")
	flag.StringVar(&userID, "user", "", "user id for personalization")
	flag.StringVar(&format, "format", "json", "output format: json, csv, html")
	flag.StringVar(&output, "o", "", "output file (default stdout)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, &cfg.Logging)
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("telemetry setup failed, continuing without traces")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Warn().Err(err).Msg("telemetry shutdown failed")
				}
			}()
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Warn().Err(err).Msg("metrics init failed, continuing without meters")
		metrics = nil
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("catalog database unavailable")
	}
	defer pgClient.Close()

	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		rdb, err := redisclient.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-process cache")
		} else {
			defer rdb.Close()
			cacheProvider = cache.NewRedisAdapter(rdb)
		}
	}
	if cacheProvider == nil {
		memory := cache.NewMemoryCache(cfg.Cache.Capacity, cfg.Cache.TTLSeconds)
		memory.StartJanitor(ctx, time.Duration(cfg.Cache.JanitorInterval)*time.Second)
		cacheProvider = memory
	}

	var matcher services.TextMatcher
	if cfg.Typesense.Enabled {
		tsc, err := tsclient.NewClient(&cfg.Typesense)
		if err != nil {
			logger.Warn().Err(err).Msg("typesense unavailable, using catalog text matching")
		} else {
			adapter := search.NewTypesenseAdapter(tsc)
			if err := adapter.InitSchema(ctx); err != nil {
				logger.Warn().Err(err).Msg("typesense schema init failed")
			} else {
				matcher = adapter
			}
		}
	}

	catalogRepo := database.NewCatalogAdapter(pgClient)
	interactionRepo := database.NewInteractionAdapter(pgClient)
	analyticsRepo := database.NewAnalyticsAdapter(pgClient)

	executor := services.NewCatalogQueryService(catalogRepo, matcher, &cfg.Search)
	analytics := services.NewAnalyticsService(analyticsRepo)
	similarity := services.NewSimilarityService(catalogRepo, interactionRepo)
	suggestions := services.NewSuggestionService(catalogRepo, interactionRepo, analytics)

	geo := services.NewGeoService(
		geolocation.NewStaticProvider(&cfg.Geolocation),
		geolocation.NewDeviceProvider(nil),
		geolocation.NewIPProvider(cfg.Geolocation.IPLookupURL, cacheProvider),
	)
	geo.SetCountryCenters(geolocation.CountryCenter)

	orchestrator := services.NewSearchService(
		cacheProvider, executor, geo, similarity, suggestions, analytics,
		metrics, cfg.Pipeline, cfg.Cache, cfg.Search,
	)

	criteria := entities.SearchCriteria{
		Query:     query,
		Category:  category,
		SortBy:    entities.SortBy(sortBy),
		SortOrder: entities.SortOrder(sortOrder),
		Filters: entities.SearchFilters{
			MinRating: minRating,
			Brands:    splitList(brands),
			Sectors:   splitList(sectors),
			Countries: splitList(countries),
		},
	}
	if priceMin > 0 || priceMax > 0 {
		criteria.Filters.PriceRange = &entities.PriceRange{Min: priceMin, Max: priceMax}
	}

	outcome, err := orchestrator.Search(ctx, criteria, page, services.SearchOptions{UserID: userID})
	if err != nil {
		logger.Fatal().Err(err).Msg("search failed")
	}

	logger.Info().
		Int("results", len(outcome.Response.Results)).
		Int("total", outcome.Response.TotalCount).
		Float64("ms", outcome.Performance.SearchTimeMs).
		Str("grade", string(outcome.Performance.Grade)).
		Msg("search complete")

	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			logger.Fatal().Err(err).Str("path", output).Msg("failed to create output file")
		}
		defer f.Close()
		out = f
	}

	switch strings.ToLower(format) {
	case "csv":
		err = export.WriteCSV(out, outcome.Response.Results)
	case "html":
		title := query
		if title == "" {
			title = "Résultats de recherche"
		}
		err = export.WriteHTML(out, title, outcome.Response.Results)
	default:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		err = encoder.Encode(outcome)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("format", format).Msg("failed to write results")
	}
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
