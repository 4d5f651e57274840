package database

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/repositories"
	"github.com/sunuchoix/search-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/sunuchoix/search-backend/pkg/errors"
)

// CatalogAdapter implements CatalogRepository over PostgreSQL.
type CatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCatalogAdapter creates a new catalog adapter
func NewCatalogAdapter(client *postgres.Client) repositories.CatalogRepository {
	return &CatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// reviewAgg is the derived table carrying per-product review aggregates.
func reviewAgg() *goqu.SelectDataset {
	return goqu.From("reviews").
		Select(
			goqu.C("product_id"),
			goqu.AVG("rating").As("avg_rating"),
			goqu.COUNT("*").As("review_count"),
		).
		GroupBy("product_id")
}

func (a *CatalogAdapter) base(in repositories.QueryInput) *goqu.SelectDataset {
	ds := a.db.From(goqu.T("products").As("p")).
		LeftJoin(goqu.T("companies").As("c"), goqu.On(goqu.I("p.company_id").Eq(goqu.I("c.id")))).
		LeftJoin(reviewAgg().As("r"), goqu.On(goqu.I("p.id").Eq(goqu.I("r.product_id")))).
		Where(goqu.I("p.is_active").IsTrue())

	for _, exp := range filterExpressions(in) {
		ds = ds.Where(exp)
	}
	return ds
}

func filterExpressions(in repositories.QueryInput) []goqu.Expression {
	var exps []goqu.Expression

	if len(in.IDs) > 0 {
		exps = append(exps, goqu.I("p.id").In(in.IDs))
	} else if in.Text != "" {
		pattern := "%" + in.Text + "%"
		exps = append(exps, goqu.Or(
			goqu.I("p.name").ILike(pattern),
			goqu.I("p.description").ILike(pattern),
		))
	}
	if in.Category != "" {
		exps = append(exps, goqu.L("LOWER(p.category)").Eq(in.Category))
	}
	if in.PriceMin != nil {
		exps = append(exps, goqu.I("p.price").Gte(*in.PriceMin))
	}
	if in.PriceMax != nil {
		exps = append(exps, goqu.I("p.price").Lte(*in.PriceMax))
	}
	if in.MinRating > 0 {
		exps = append(exps, goqu.L("COALESCE(r.avg_rating, 0)").Gte(in.MinRating))
	}
	if in.Location != "" {
		exps = append(exps, goqu.I("p.location").ILike("%"+in.Location+"%"))
	}
	if in.Availability != entities.AvailabilityAny {
		exps = append(exps, goqu.I("p.availability").Eq(string(in.Availability)))
	}
	if len(in.Brands) > 0 {
		exps = append(exps, goqu.L("LOWER(p.brand)").In(in.Brands))
	}
	if len(in.Sectors) > 0 {
		exps = append(exps, goqu.L("LOWER(p.sector)").In(in.Sectors))
	}
	if len(in.Countries) > 0 {
		countries := upperAll(in.Countries)
		exps = append(exps, goqu.Or(
			goqu.L("UPPER(p.country)").In(countries),
			goqu.L("p.available_countries && ?", pq.Array(countries)),
		))
	}

	return exps
}

func upperAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(v)
	}
	return out
}

var resultColumns = []interface{}{
	goqu.I("p.id"),
	goqu.I("p.name"),
	goqu.I("p.category"),
	goqu.I("p.sector"),
	goqu.I("p.product_type"),
	goqu.I("p.price"),
	goqu.I("p.currency"),
	goqu.L("COALESCE(r.avg_rating, 0)").As("avg_rating"),
	goqu.L("COALESCE(r.review_count, 0)").As("review_count"),
	goqu.I("p.availability"),
	goqu.I("p.brand"),
	goqu.L("COALESCE(c.name, '')").As("provider_name"),
	goqu.L("COALESCE(c.verified, false)").As("provider_verified"),
	goqu.I("p.country"),
	goqu.I("p.available_countries"),
	goqu.I("p.features"),
	goqu.I("p.delivery_time"),
	goqu.I("p.warranty"),
	goqu.I("p.created_at"),
}

// Search returns one page of results plus the total match count. Price sorts
// are honored; all other sort keys, rating and popularity included, fall back
// to newest-first. Ranking by those signals happens downstream.
func (a *CatalogAdapter) Search(ctx context.Context, in repositories.QueryInput) ([]*entities.SearchResult, int, error) {
	ds := a.base(in).Select(resultColumns...)

	switch {
	case in.SortBy == entities.SortByPrice && in.SortOrder == entities.SortAsc:
		ds = ds.Order(goqu.I("p.price").Asc())
	case in.SortBy == entities.SortByPrice:
		ds = ds.Order(goqu.I("p.price").Desc())
	default:
		ds = ds.Order(goqu.I("p.created_at").Desc())
	}

	if in.Limit > 0 {
		ds = ds.Limit(uint(in.Limit))
	}
	if in.Offset > 0 {
		ds = ds.Offset(uint(in.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build search query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to execute search query", err)
	}
	defer rows.Close()

	results := []*entities.SearchResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to read search rows", err)
	}

	total, err := a.count(ctx, in)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (a *CatalogAdapter) count(ctx context.Context, in repositories.QueryInput) (int, error) {
	query, args, err := a.base(in).Select(goqu.COUNT("*")).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, apperrors.NewInternalError("failed to count search results", err)
	}
	return total, nil
}

// GetByID retrieves a single catalog entry
func (a *CatalogAdapter) GetByID(ctx context.Context, id string) (*entities.SearchResult, error) {
	ds := a.base(repositories.QueryInput{}).
		Select(resultColumns...).
		Where(goqu.I("p.id").Eq(id))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build get query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get catalog entry", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperrors.NewInternalError("failed to read catalog entry", err)
		}
		return nil, apperrors.NewNotFoundError("catalog entry not found: " + id)
	}
	return scanResult(rows)
}

// BrandCounts aggregates match counts per brand
func (a *CatalogAdapter) BrandCounts(ctx context.Context, in repositories.QueryInput) (map[string]int, error) {
	ds := a.base(in).
		Select(goqu.I("p.brand"), goqu.COUNT("*").As("n")).
		Where(goqu.I("p.brand").Neq("")).
		GroupBy(goqu.I("p.brand"))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build brand facet query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query brand facets", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var brand string
		var n int
		if err := rows.Scan(&brand, &n); err != nil {
			return nil, apperrors.NewInternalError("failed to scan brand facet", err)
		}
		counts[brand] = n
	}
	return counts, rows.Err()
}

// SectorList returns all known sectors
func (a *CatalogAdapter) SectorList(ctx context.Context) ([]string, error) {
	query, args, err := a.db.From("sectors").Select("name").Order(goqu.C("name").Asc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build sector query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query sectors", err)
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewInternalError("failed to scan sector", err)
		}
		sectors = append(sectors, name)
	}
	return sectors, rows.Err()
}

// LocationCounts aggregates match counts per location
func (a *CatalogAdapter) LocationCounts(ctx context.Context, in repositories.QueryInput) (map[string]int, error) {
	ds := a.base(in).
		Select(goqu.I("p.location"), goqu.COUNT("*").As("n")).
		Where(goqu.I("p.location").Neq("")).
		GroupBy(goqu.I("p.location"))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build location facet query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query location facets", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var location string
		var n int
		if err := rows.Scan(&location, &n); err != nil {
			return nil, apperrors.NewInternalError("failed to scan location facet", err)
		}
		counts[location] = n
	}
	return counts, rows.Err()
}

// PriceBucketCounts fills the given buckets with match counts
func (a *CatalogAdapter) PriceBucketCounts(ctx context.Context, in repositories.QueryInput, buckets []entities.PriceBucketFacet) ([]entities.PriceBucketFacet, error) {
	filled := make([]entities.PriceBucketFacet, len(buckets))
	copy(filled, buckets)

	for i := range filled {
		ds := a.base(in).
			Select(goqu.COUNT("*")).
			Where(goqu.I("p.price").Gte(filled[i].Min))
		if filled[i].Max > 0 {
			ds = ds.Where(goqu.I("p.price").Lt(filled[i].Max))
		}

		query, args, err := ds.ToSQL()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to build price bucket query", err)
		}
		if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&filled[i].Count); err != nil {
			return nil, apperrors.NewInternalError("failed to count price bucket", err)
		}
	}
	return filled, nil
}

// SimilarCandidates returns same-sector entries within a ±50% price band
// around the reference entry.
func (a *CatalogAdapter) SimilarCandidates(ctx context.Context, ref *entities.SearchResult, sector string, limit int) ([]*entities.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	ds := a.base(repositories.QueryInput{}).
		Select(resultColumns...).
		Where(goqu.I("p.id").Neq(ref.ID))

	if sector != "" {
		ds = ds.Where(goqu.L("LOWER(p.sector)").Eq(sector))
	} else if ref.Sector != "" {
		ds = ds.Where(goqu.I("p.sector").Eq(ref.Sector))
	}
	if ref.Price > 0 {
		ds = ds.Where(
			goqu.I("p.price").Gte(ref.Price*0.5),
			goqu.I("p.price").Lte(ref.Price*1.5),
		)
	}

	ds = ds.Order(goqu.L("COALESCE(r.review_count, 0)").Desc()).Limit(uint(limit))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build similar candidates query", err)
	}
	return a.queryResults(ctx, query, args)
}

// SectorPopular returns the most-reviewed entries of a sector
func (a *CatalogAdapter) SectorPopular(ctx context.Context, sector string, limit int) ([]*entities.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	ds := a.base(repositories.QueryInput{}).Select(resultColumns...)
	if sector != "" {
		ds = ds.Where(goqu.L("LOWER(p.sector)").Eq(sector))
	}
	ds = ds.Order(
		goqu.L("COALESCE(r.review_count, 0)").Desc(),
		goqu.L("COALESCE(r.avg_rating, 0)").Desc(),
	).Limit(uint(limit))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build sector popular query", err)
	}
	return a.queryResults(ctx, query, args)
}

// MatchNames returns products whose names match a partial query
func (a *CatalogAdapter) MatchNames(ctx context.Context, partial string, limit int) ([]*entities.SearchResult, error) {
	if limit <= 0 {
		limit = 3
	}

	ds := a.base(repositories.QueryInput{}).
		Select(resultColumns...).
		Where(goqu.I("p.name").ILike("%" + partial + "%")).
		Order(goqu.L("COALESCE(r.review_count, 0)").Desc()).
		Limit(uint(limit))

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build name match query", err)
	}
	return a.queryResults(ctx, query, args)
}

// MatchBrands returns distinct brands matching a partial query
func (a *CatalogAdapter) MatchBrands(ctx context.Context, partial string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}

	query, args, err := a.db.From("products").
		SelectDistinct(goqu.C("brand")).
		Where(
			goqu.C("brand").ILike("%"+partial+"%"),
			goqu.C("brand").Neq(""),
			goqu.C("is_active").IsTrue(),
		).
		Order(goqu.C("brand").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build brand match query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to match brands", err)
	}
	defer rows.Close()

	var brands []string
	for rows.Next() {
		var brand string
		if err := rows.Scan(&brand); err != nil {
			return nil, apperrors.NewInternalError("failed to scan brand", err)
		}
		brands = append(brands, brand)
	}
	return brands, rows.Err()
}

// MatchCategories returns distinct categories matching a partial query,
// keyed by category name with the owning sector as value.
func (a *CatalogAdapter) MatchCategories(ctx context.Context, partial string, limit int) (map[string]string, error) {
	if limit <= 0 {
		limit = 3
	}

	query, args, err := a.db.From("products").
		SelectDistinct(goqu.C("category"), goqu.C("sector")).
		Where(
			goqu.C("category").ILike("%"+partial+"%"),
			goqu.C("is_active").IsTrue(),
		).
		Order(goqu.C("category").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build category match query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to match categories", err)
	}
	defer rows.Close()

	categories := map[string]string{}
	for rows.Next() {
		var category, sector string
		if err := rows.Scan(&category, &sector); err != nil {
			return nil, apperrors.NewInternalError("failed to scan category", err)
		}
		categories[category] = sector
	}
	return categories, rows.Err()
}

func (a *CatalogAdapter) queryResults(ctx context.Context, query string, args []interface{}) ([]*entities.SearchResult, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query catalog", err)
	}
	defer rows.Close()

	results := []*entities.SearchResult{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanResult(rows *sql.Rows) (*entities.SearchResult, error) {
	var (
		result             entities.SearchResult
		productType        sql.NullString
		brand              sql.NullString
		deliveryTime       sql.NullString
		warranty           sql.NullString
		avgRating          float64
		availableCountries pq.StringArray
		features           pq.StringArray
		createdAt          time.Time
	)

	err := rows.Scan(
		&result.ID,
		&result.Name,
		&result.Category,
		&result.Sector,
		&productType,
		&result.Price,
		&result.Currency,
		&avgRating,
		&result.ReviewCount,
		&result.Availability,
		&brand,
		&result.Provider.Name,
		&result.Provider.Verified,
		&result.Country,
		&availableCountries,
		&features,
		&deliveryTime,
		&warranty,
		&createdAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan catalog row", err)
	}

	result.ProductType = productType.String
	result.Brand = brand.String
	result.DeliveryTime = deliveryTime.String
	result.Warranty = warranty.String
	result.AvailableCountries = availableCountries
	result.Features = features
	result.CreatedAt = createdAt
	// Mean review rating rounded to one decimal; zero reviews yields 0.
	result.Rating = math.Round(avgRating*10) / 10

	return &result, nil
}
