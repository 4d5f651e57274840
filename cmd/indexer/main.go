package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sunuchoix/search-backend/internal/adapters/database"
	"github.com/sunuchoix/search-backend/internal/adapters/search"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/internal/infrastructure/clients/postgres"
	tsclient "github.com/sunuchoix/search-backend/internal/infrastructure/clients/typesense"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
	"github.com/sunuchoix/search-backend/pkg/config"
)

const indexPageSize = 500

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing text index collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger("sunuchoix-indexer", &cfg.Logging)
	logger := observability.GetLogger()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		parsed, err := time.ParseDuration(intervalValue)
		if err != nil || parsed <= 0 {
			logger.Fatal().Str("interval", intervalValue).Msg("invalid reindex interval")
		}
		interval = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, reset); err != nil {
			logger.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			logger.Info().Msg("indexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, reset bool) error {
	logger := observability.GetLogger()

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	tsc, err := tsclient.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}
	adapter := search.NewTypesenseAdapter(tsc)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		logger.Info().Msg("dropping products collection before reindex")
		if _, err := tsc.Client().Collection(tsclient.ProductsCollection).Delete(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	catalogRepo := database.NewCatalogAdapter(pgClient)

	indexed := 0
	for offset := 0; ; offset += indexPageSize {
		page, _, err := catalogRepo.Search(ctx, repositories.QueryInput{
			Limit:  indexPageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		for _, result := range page {
			if err := adapter.Index(ctx, result); err != nil {
				logger.Warn().Err(err).Str("id", result.ID).Msg("failed to index catalog entry")
				continue
			}
			indexed++
		}

		if len(page) < indexPageSize {
			break
		}
	}

	logger.Info().Int("indexed", indexed).Msg("indexing complete")
	return nil
}
