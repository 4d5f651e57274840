package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sunuchoix/search-backend/internal/application/services"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

func fullResult(id string) *entities.SearchResult {
	return &entities.SearchResult{
		ID:          id,
		Name:        "Assurance Auto Tous Risques",
		Sector:      "insurance",
		ProductType: "auto",
		Brand:       "NSIA",
		Country:     "SN",
		Price:       45000,
		Currency:    "XOF",
	}
}

func TestScoreIdenticalItems(t *testing.T) {
	svc := services.NewSimilarityService(new(MockCatalogRepository), nil)

	score := svc.Score(fullResult("a"), fullResult("a"))
	assert.Equal(t, 1.0, score)
}

func TestScoreMissingDataLowersScore(t *testing.T) {
	svc := services.NewSimilarityService(new(MockCatalogRepository), nil)

	a := fullResult("a")
	b := fullResult("b")
	b.Brand = ""

	// A missing factor contributes 0; the denominator does not shrink.
	assert.InDelta(t, 0.8, svc.Score(a, b), 1e-9)
}

func TestScorePriceCloseness(t *testing.T) {
	svc := services.NewSimilarityService(new(MockCatalogRepository), nil)

	a := fullResult("a")
	b := fullResult("b")
	b.Price = a.Price * 3 // closeness floors at 0

	assert.InDelta(t, 0.70, svc.Score(a, b), 1e-9)
}

func TestFindSimilarRanksByScore(t *testing.T) {
	catalog := new(MockCatalogRepository)
	svc := services.NewSimilarityService(catalog, nil)

	ref := fullResult("ref")
	near := fullResult("near")
	far := fullResult("far")
	far.Brand = "AXA"
	far.Country = "CI"

	catalog.On("GetByID", mock.Anything, "ref").Return(ref, nil)
	catalog.On("SimilarCandidates", mock.Anything, ref, "insurance", 8).
		Return([]*entities.SearchResult{far, near}, nil)

	similar, err := svc.FindSimilar(context.Background(), "ref", 2, "insurance")
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "near", similar[0].ID)
	assert.Equal(t, "far", similar[1].ID)
}

func TestFindSimilarTruncatesToLimit(t *testing.T) {
	catalog := new(MockCatalogRepository)
	svc := services.NewSimilarityService(catalog, nil)

	ref := fullResult("ref")
	candidates := []*entities.SearchResult{fullResult("a"), fullResult("b"), fullResult("c")}

	catalog.On("GetByID", mock.Anything, "ref").Return(ref, nil)
	catalog.On("SimilarCandidates", mock.Anything, ref, "", 4).Return(candidates, nil)

	similar, err := svc.FindSimilar(context.Background(), "ref", 1, "")
	require.NoError(t, err)
	assert.Len(t, similar, 1)
}

func TestBoostPageInjectsAtSpacedPositions(t *testing.T) {
	svc := services.NewSimilarityService(new(MockCatalogRepository), nil)

	page := make([]*entities.SearchResult, 12)
	for i := range page {
		page[i] = &entities.SearchResult{ID: string(rune('a' + i))}
	}
	similar := []*entities.SearchResult{{ID: "s1"}, {ID: "s2"}}

	boosted := svc.BoostPage(page, similar)
	require.Len(t, boosted, 14)
	assert.Equal(t, "s1", boosted[4].ID)
	assert.Equal(t, "s2", boosted[7].ID)

	// Input page untouched.
	assert.Len(t, page, 12)
	assert.Equal(t, "e", page[4].ID)
}

func TestBoostPageSkipsAlreadyPresent(t *testing.T) {
	svc := services.NewSimilarityService(new(MockCatalogRepository), nil)

	page := []*entities.SearchResult{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	similar := []*entities.SearchResult{{ID: "c"}, {ID: "new"}}

	boosted := svc.BoostPage(page, similar)
	require.Len(t, boosted, 6)
	assert.Equal(t, "new", boosted[4].ID)
}

func TestPersonalizedFallsBackToPopular(t *testing.T) {
	catalog := new(MockCatalogRepository)
	interactions := new(MockInteractionRepository)
	svc := services.NewSimilarityService(catalog, interactions)

	interactions.On("RecentInteractions", mock.Anything, "user-1", 5).
		Return([]*entities.Interaction{}, nil)
	popular := []*entities.SearchResult{fullResult("popular")}
	catalog.On("SectorPopular", mock.Anything, "insurance", 10).Return(popular, nil)

	recommended, err := svc.Personalized(context.Background(), "user-1", 10, "insurance")
	require.NoError(t, err)
	assert.Equal(t, popular, recommended)
}

func TestPersonalizedDeduplicatesAcrossSeeds(t *testing.T) {
	catalog := new(MockCatalogRepository)
	interactions := new(MockInteractionRepository)
	svc := services.NewSimilarityService(catalog, interactions)

	history := []*entities.Interaction{
		{ProductID: "p1", Kind: entities.InteractionView},
		{ProductID: "p2", Kind: entities.InteractionFavorite},
	}
	interactions.On("RecentInteractions", mock.Anything, "user-1", 5).Return(history, nil)

	shared := fullResult("shared")
	catalog.On("GetByID", mock.Anything, "p1").Return(fullResult("p1"), nil)
	catalog.On("GetByID", mock.Anything, "p2").Return(fullResult("p2"), nil)
	catalog.On("SimilarCandidates", mock.Anything, mock.Anything, "", mock.Anything).
		Return([]*entities.SearchResult{shared}, nil)

	recommended, err := svc.Personalized(context.Background(), "user-1", 10, "")
	require.NoError(t, err)
	assert.Len(t, recommended, 1)
	assert.Equal(t, "shared", recommended[0].ID)
}
