package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
)

// Mocks

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Search(ctx context.Context, in repositories.QueryInput) ([]*entities.SearchResult, int, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.SearchResult), args.Int(1), args.Error(2)
}

func (m *MockCatalogRepository) GetByID(ctx context.Context, id string) (*entities.SearchResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SearchResult), args.Error(1)
}

func (m *MockCatalogRepository) BrandCounts(ctx context.Context, in repositories.QueryInput) (map[string]int, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockCatalogRepository) SectorList(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogRepository) LocationCounts(ctx context.Context, in repositories.QueryInput) (map[string]int, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockCatalogRepository) PriceBucketCounts(ctx context.Context, in repositories.QueryInput, buckets []entities.PriceBucketFacet) ([]entities.PriceBucketFacet, error) {
	args := m.Called(ctx, in, buckets)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PriceBucketFacet), args.Error(1)
}

func (m *MockCatalogRepository) SimilarCandidates(ctx context.Context, ref *entities.SearchResult, sector string, limit int) ([]*entities.SearchResult, error) {
	args := m.Called(ctx, ref, sector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchResult), args.Error(1)
}

func (m *MockCatalogRepository) SectorPopular(ctx context.Context, sector string, limit int) ([]*entities.SearchResult, error) {
	args := m.Called(ctx, sector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchResult), args.Error(1)
}

func (m *MockCatalogRepository) MatchNames(ctx context.Context, partial string, limit int) ([]*entities.SearchResult, error) {
	args := m.Called(ctx, partial, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SearchResult), args.Error(1)
}

func (m *MockCatalogRepository) MatchBrands(ctx context.Context, partial string, limit int) ([]string, error) {
	args := m.Called(ctx, partial, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogRepository) MatchCategories(ctx context.Context, partial string, limit int) (map[string]string, error) {
	args := m.Called(ctx, partial, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type MockInteractionRepository struct {
	mock.Mock
}

func (m *MockInteractionRepository) RecentInteractions(ctx context.Context, userID string, limit int) ([]*entities.Interaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Interaction), args.Error(1)
}

func (m *MockInteractionRepository) SavedSearches(ctx context.Context, userID string, limit int) ([]string, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInteractionRepository) LogInteraction(ctx context.Context, interaction *entities.Interaction) error {
	args := m.Called(ctx, interaction)
	return args.Error(0)
}

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) LogEvent(ctx context.Context, event *entities.AnalyticsEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAnalyticsRepository) ZeroResultQueries(ctx context.Context, limit int) ([]*entities.AnalyticsEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AnalyticsEvent), args.Error(1)
}

type MockLocationProvider struct {
	mock.Mock
}

func (m *MockLocationProvider) Detect(ctx context.Context, device *entities.Coordinates) (*entities.LocationData, error) {
	args := m.Called(ctx, device)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LocationData), args.Error(1)
}

type MockTextMatcher struct {
	mock.Mock
}

func (m *MockTextMatcher) TextMatchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
