package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sunuchoix/search-backend/internal/application/services"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

func TestAnalyzeIntentBuckets(t *testing.T) {
	svc := services.NewAnalyticsService(nil)

	tests := []struct {
		query      string
		intent     entities.Intent
		confidence float64
	}{
		{"acheter assurance auto", entities.IntentTransactional, 0.9},
		{"prix forfait mobile", entities.IntentTransactional, 0.9},
		{"comparer banques dakar", entities.IntentCommercial, 0.8},
		{"best savings account", entities.IntentCommercial, 0.8},
		{"comment choisir une mutuelle", entities.IntentInformational, 0.7},
		{"orange money", entities.IntentNavigational, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			analysis := svc.AnalyzeIntent(tt.query)
			assert.Equal(t, tt.intent, analysis.Intent)
			assert.Equal(t, tt.confidence, analysis.Confidence)
			assert.NotEmpty(t, analysis.SuggestedActions)
		})
	}
}

func TestAnalyzeIntentFirstBucketWins(t *testing.T) {
	svc := services.NewAnalyticsService(nil)

	// "prix" (transactional) dominates "comparer" (commercial).
	analysis := svc.AnalyzeIntent("comparer prix assurance")
	assert.Equal(t, entities.IntentTransactional, analysis.Intent)
}

func TestRollingLogCaps(t *testing.T) {
	svc := services.NewAnalyticsService(nil)
	ctx := context.Background()

	for i := 0; i < 1005; i++ {
		svc.RecordSearch(ctx, fmt.Sprintf("query %d", i), "", "", "SN", 1, 10)
	}
	for i := 0; i < 505; i++ {
		svc.RecordClick(ctx, "query", "", "", "p1", 1)
	}
	for i := 0; i < 205; i++ {
		svc.RecordConversion(ctx, "query", "", "", "p1", "purchase", 100)
	}

	searches, clicks, conversions := svc.LogCounts()
	assert.Equal(t, 1000, searches)
	assert.Equal(t, 500, clicks)
	assert.Equal(t, 200, conversions)
}

func TestPopularQueriesOrderedByCount(t *testing.T) {
	svc := services.NewAnalyticsService(nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		svc.RecordSearch(ctx, "assurance auto", "", "", "SN", 5, 10)
	}
	svc.RecordSearch(ctx, "Assurance Auto", "", "", "SN", 5, 10) // case folds
	svc.RecordSearch(ctx, "forfait mobile", "", "", "SN", 3, 10)

	popular := svc.PopularQueries(10, time.Hour)
	require.Len(t, popular, 2)
	assert.Equal(t, "assurance auto", popular[0].Query)
	assert.Equal(t, 4, popular[0].Count)
	assert.Equal(t, "forfait mobile", popular[1].Query)
}

func TestTrendingTermsMirrorsPopularQueries(t *testing.T) {
	svc := services.NewAnalyticsService(nil)
	ctx := context.Background()

	svc.RecordSearch(ctx, "compte épargne", "", "", "SN", 2, 10)
	svc.RecordSearch(ctx, "compte épargne", "", "", "SN", 2, 10)
	svc.RecordSearch(ctx, "crédit auto", "", "", "SN", 1, 10)

	terms := svc.TrendingTerms(1)
	require.Len(t, terms, 1)
	assert.Equal(t, "compte épargne", terms[0])
}

func TestZeroResultQueriesFromRollingLog(t *testing.T) {
	svc := services.NewAnalyticsService(nil)
	ctx := context.Background()

	svc.RecordSearch(ctx, "hit", "", "", "SN", 5, 10)
	svc.RecordSearch(ctx, "miss one", "", "", "SN", 0, 10)
	svc.RecordSearch(ctx, "miss two", "", "", "SN", 0, 10)

	zero, err := svc.ZeroResultQueries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, zero, 2)
	// Most recent first.
	assert.Equal(t, "miss two", zero[0].Query)
	assert.Equal(t, "miss one", zero[1].Query)
}

func TestRecordMirrorsToRepository(t *testing.T) {
	repo := new(MockAnalyticsRepository)
	svc := services.NewAnalyticsService(repo)

	mirrored := make(chan struct{})
	repo.On("LogEvent", mock.Anything, mock.MatchedBy(func(e *entities.AnalyticsEvent) bool {
		return e.Type == entities.EventSearch && e.Query == "assurance" && e.ID != ""
	})).Return(nil).Run(func(mock.Arguments) { close(mirrored) })

	svc.RecordSearch(context.Background(), "assurance", "s1", "u1", "SN", 3, 12)

	select {
	case <-mirrored:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not mirrored to the repository")
	}
}

func TestRecordAssignsIDAndTimestamp(t *testing.T) {
	svc := services.NewAnalyticsService(nil)
	svc.RecordSearch(context.Background(), "assurance", "", "", "SN", 1, 10)

	zero, err := svc.ZeroResultQueries(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, zero)

	popular := svc.PopularQueries(1, time.Hour)
	require.Len(t, popular, 1)
	assert.False(t, popular[0].LastSeen.IsZero())
}
