package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sunuchoix/search-backend/internal/application/services"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/pkg/config"
	apperrors "github.com/sunuchoix/search-backend/pkg/errors"
)

func testSearchConfig() *config.SearchConfig {
	return &config.SearchConfig{PageSize: 20, BulkBatchSize: 5, QueryTimeoutMS: 5000}
}

func expectFacets(catalog *MockCatalogRepository) {
	catalog.On("BrandCounts", mock.Anything, mock.Anything).Return(map[string]int{"NSIA": 3}, nil)
	catalog.On("SectorList", mock.Anything).Return([]string{"insurance", "telecom"}, nil)
	catalog.On("LocationCounts", mock.Anything, mock.Anything).Return(map[string]int{"Dakar": 3}, nil)
	catalog.On("PriceBucketCounts", mock.Anything, mock.Anything, mock.Anything).
		Return([]entities.PriceBucketFacet{{Label: "0 - 10 000", Count: 2}}, nil)
}

func TestExecutePaginates(t *testing.T) {
	catalog := new(MockCatalogRepository)
	svc := services.NewCatalogQueryService(catalog, nil, testSearchConfig())

	catalog.On("Search", mock.Anything, mock.MatchedBy(func(in repositories.QueryInput) bool {
		return in.Limit == 10 && in.Offset == 20
	})).Return([]*entities.SearchResult{{ID: "a"}}, 45, nil)
	expectFacets(catalog)

	response, err := svc.Execute(context.Background(), entities.SearchCriteria{Query: "assurance"}, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 45, response.TotalCount)
	assert.Equal(t, 5, response.TotalPages)
	assert.Equal(t, 3, response.CurrentPage)
	assert.Equal(t, 10, response.PageSize)
	assert.Len(t, response.Results, 1)
}

func TestExecuteRejectsInvalidCriteria(t *testing.T) {
	svc := services.NewCatalogQueryService(new(MockCatalogRepository), nil, testSearchConfig())

	criteria := entities.SearchCriteria{
		Filters: entities.SearchFilters{
			PriceRange: &entities.PriceRange{Min: 100, Max: 10},
		},
	}
	_, err := svc.Execute(context.Background(), criteria, 1, 10)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestExecuteDegradesToEmptyPage(t *testing.T) {
	catalog := new(MockCatalogRepository)
	svc := services.NewCatalogQueryService(catalog, nil, testSearchConfig())

	catalog.On("Search", mock.Anything, mock.Anything).Return(nil, 0, errors.New("connection refused"))

	response, err := svc.Execute(context.Background(), entities.SearchCriteria{Query: "assurance"}, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, response.Results)
	assert.Equal(t, 0, response.TotalCount)
	assert.Equal(t, 1, response.CurrentPage)
	require.NotNil(t, response.Facets)
	assert.Empty(t, response.Facets.Brands)
}

func TestFacetsSurvivePartialFailure(t *testing.T) {
	catalog := new(MockCatalogRepository)
	svc := services.NewCatalogQueryService(catalog, nil, testSearchConfig())

	catalog.On("BrandCounts", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))
	catalog.On("SectorList", mock.Anything).Return([]string{"insurance"}, nil)
	catalog.On("LocationCounts", mock.Anything, mock.Anything).Return(map[string]int{"Dakar": 1}, nil)
	catalog.On("PriceBucketCounts", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout"))

	facets := svc.Facets(context.Background(), entities.SearchCriteria{})
	assert.Empty(t, facets.Brands)
	assert.Equal(t, []string{"insurance"}, facets.Sectors)
	assert.Equal(t, map[string]int{"Dakar": 1}, facets.Locations)
	assert.Empty(t, facets.PriceBuckets)
}

func TestExecuteUsesTextIndexCandidates(t *testing.T) {
	catalog := new(MockCatalogRepository)
	matcher := new(MockTextMatcher)
	svc := services.NewCatalogQueryService(catalog, matcher, testSearchConfig())

	matcher.On("TextMatchIDs", mock.Anything, "assurance auto", 250).
		Return([]string{"p2", "p1"}, nil)
	catalog.On("Search", mock.Anything, mock.MatchedBy(func(in repositories.QueryInput) bool {
		return len(in.IDs) == 2 && in.IDs[0] == "p2"
	})).Return([]*entities.SearchResult{{ID: "p2"}, {ID: "p1"}}, 2, nil)
	expectFacets(catalog)

	response, err := svc.Execute(context.Background(), entities.SearchCriteria{Query: "Assurance Auto"}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, response.Results, 2)
}

func TestExecuteFallsBackWhenTextIndexFails(t *testing.T) {
	catalog := new(MockCatalogRepository)
	matcher := new(MockTextMatcher)
	svc := services.NewCatalogQueryService(catalog, matcher, testSearchConfig())

	matcher.On("TextMatchIDs", mock.Anything, "assurance", 250).
		Return(nil, errors.New("index down"))
	catalog.On("Search", mock.Anything, mock.MatchedBy(func(in repositories.QueryInput) bool {
		return in.IDs == nil && in.Text == "assurance"
	})).Return([]*entities.SearchResult{{ID: "p1"}}, 1, nil)
	expectFacets(catalog)

	response, err := svc.Execute(context.Background(), entities.SearchCriteria{Query: "assurance"}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, response.Results, 1)
}

func TestExecuteDefaultsPageAndSize(t *testing.T) {
	catalog := new(MockCatalogRepository)
	svc := services.NewCatalogQueryService(catalog, nil, testSearchConfig())

	catalog.On("Search", mock.Anything, mock.MatchedBy(func(in repositories.QueryInput) bool {
		return in.Limit == 20 && in.Offset == 0
	})).Return([]*entities.SearchResult{}, 0, nil)
	expectFacets(catalog)

	response, err := svc.Execute(context.Background(), entities.SearchCriteria{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, response.CurrentPage)
	assert.Equal(t, 20, response.PageSize)
	assert.Equal(t, 0, response.TotalPages)
}
