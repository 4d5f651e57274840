package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sunuchoix/search-backend/internal/application/services"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

type stubTrends struct {
	terms []string
}

func (s *stubTrends) TrendingTerms(limit int) []string {
	if limit < len(s.terms) {
		return s.terms[:limit]
	}
	return s.terms
}

func suggestionFixture() (*MockCatalogRepository, *MockInteractionRepository, *services.SuggestionService) {
	catalog := new(MockCatalogRepository)
	interactions := new(MockInteractionRepository)
	trends := &stubTrends{terms: []string{"banque en ligne"}}
	return catalog, interactions, services.NewSuggestionService(catalog, interactions, trends)
}

func TestSuggestPrefixMatchesRankFirst(t *testing.T) {
	catalog, _, svc := suggestionFixture()

	catalog.On("MatchNames", mock.Anything, "ass", 3).Return([]*entities.SearchResult{
		{ID: "p1", Name: "Assurance Moto"},
	}, nil)
	catalog.On("MatchBrands", mock.Anything, "ass", 3).Return([]string{"Assistance Dépannage"}, nil)
	catalog.On("MatchCategories", mock.Anything, "ass", 3).Return(map[string]string{}, nil)

	suggestions := svc.Suggest(context.Background(), "ass", "", "", 8)
	require.NotEmpty(t, suggestions)

	// Prefix matches carry 0.9 confidence and outrank the distant trending term.
	top := map[string]bool{"assurance moto": true, "assistance dépannage": true}
	assert.True(t, top[strings.ToLower(suggestions[0].Text)], "got %q", suggestions[0].Text)
	assert.GreaterOrEqual(t, suggestions[0].Confidence, 0.9)
	assert.GreaterOrEqual(t, suggestions[1].Confidence, 0.9)

	last := suggestions[len(suggestions)-1]
	assert.Equal(t, "banque en ligne", last.Text)
	assert.Less(t, last.Confidence, 0.5)
}

func TestSuggestMemoizesPerQuery(t *testing.T) {
	catalog, _, svc := suggestionFixture()

	catalog.On("MatchNames", mock.Anything, "ass", 3).Return([]*entities.SearchResult{}, nil)
	catalog.On("MatchBrands", mock.Anything, "ass", 3).Return([]string{}, nil)
	catalog.On("MatchCategories", mock.Anything, "ass", 3).Return(map[string]string{}, nil)

	first := svc.Suggest(context.Background(), "ass", "", "", 8)
	second := svc.Suggest(context.Background(), "ass", "", "", 8)
	assert.Equal(t, first, second)
	catalog.AssertNumberOfCalls(t, "MatchNames", 1)

	svc.PurgeExpired()
	svc.Suggest(context.Background(), "ass", "", "", 8)
	catalog.AssertNumberOfCalls(t, "MatchNames", 2)
}

func TestSuggestShortQueryUsesRecentSearches(t *testing.T) {
	catalog, interactions, svc := suggestionFixture()

	interactions.On("SavedSearches", mock.Anything, "user-1", 8).
		Return([]string{"forfait mobile orange"}, nil)

	suggestions := svc.Suggest(context.Background(), "a", "user-1", "", 8)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "forfait mobile orange", suggestions[0].Text)
	assert.Equal(t, entities.SuggestionRecent, suggestions[0].Type)
	catalog.AssertNotCalled(t, "MatchNames")
}

func TestSuggestShortQueryAnonymousUsesTrending(t *testing.T) {
	_, _, svc := suggestionFixture()

	suggestions := svc.Suggest(context.Background(), "", "", "", 8)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "banque en ligne", suggestions[0].Text)
	assert.Equal(t, entities.SuggestionTrending, suggestions[0].Type)
}

func TestSuggestToleratesSourceFailures(t *testing.T) {
	catalog, _, svc := suggestionFixture()

	catalog.On("MatchNames", mock.Anything, "assurance", 3).Return(nil, assert.AnError)
	catalog.On("MatchBrands", mock.Anything, "assurance", 3).Return(nil, assert.AnError)
	catalog.On("MatchCategories", mock.Anything, "assurance", 3).Return(map[string]string{
		"assurance auto": "insurance",
	}, nil)

	suggestions := svc.Suggest(context.Background(), "assurance", "", "", 8)
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "assurance auto", suggestions[0].Text)
	assert.Equal(t, "insurance", suggestions[0].Sector)
}

func TestConfidenceBranches(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		expected  float64
	}{
		{"prefix", "ass", "assurance auto", 0.9},
		{"substring", "auto", "assurance auto", 0.7},
		{"case insensitive prefix", "ASS", "Assurance", 0.9},
		{"exact", "assurance", "assurance", 0.9},
		{"empty query", "", "assurance", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, services.Confidence(tt.query, tt.candidate))
		})
	}
}

func TestConfidenceEditDistance(t *testing.T) {
	// One edit over nine runes.
	conf := services.Confidence("asurance", "assurance")
	assert.InDelta(t, 1.0-1.0/9.0, conf, 1e-9)

	// Unrelated strings land near zero.
	assert.Less(t, services.Confidence("xyz", "assurance"), 0.3)
}
