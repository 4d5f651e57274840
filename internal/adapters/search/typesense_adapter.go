package search

import (
	"context"
	"fmt"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
	tsclient "github.com/sunuchoix/search-backend/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

// TypesenseAdapter maintains the catalog text index and resolves free-text
// queries into candidate ids for the SQL catalog store.
type TypesenseAdapter struct {
	client *tsclient.Client
}

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the products collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(tsclient.ProductsCollection).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: tsclient.ProductsCollection,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "description", Type: "string", Optional: pointer.True()},
			{Name: "brand", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "category", Type: "string", Facet: pointer.True()},
			{Name: "sector", Type: "string", Facet: pointer.True()},
			{Name: "country", Type: "string", Facet: pointer.True()},
			{Name: "price", Type: "float"},
			{Name: "rating", Type: "float"},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	if _, err := a.client.Client().Collections().Create(ctx, schema); err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}
	return nil
}

// Index upserts a catalog entry into the text index
func (a *TypesenseAdapter) Index(ctx context.Context, result *entities.SearchResult) error {
	document := map[string]interface{}{
		"id":         result.ID,
		"name":       result.Name,
		"brand":      result.Brand,
		"category":   result.Category,
		"sector":     result.Sector,
		"country":    result.Country,
		"price":      result.Price,
		"rating":     result.Rating,
		"created_at": result.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(tsclient.ProductsCollection).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index catalog entry: %w", err)
	}
	return nil
}

// Delete removes a catalog entry from the text index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.ProductsCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete catalog entry from index: %w", err)
	}
	return nil
}

// TextMatchIDs resolves a free-text query into ranked candidate ids.
func (a *TypesenseAdapter) TextMatchIDs(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 250
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,brand,category,description"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(tsclient.ProductsCollection).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search text index: %w", err)
	}

	ids := []string{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		if id, ok := doc["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
