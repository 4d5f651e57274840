package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/providers"
	"github.com/sunuchoix/search-backend/internal/infrastructure/observability"
)

// xofRates is the fixed conversion table: 1 unit of each currency in XOF.
// Rates are static; there is no live rate fetch.
var xofRates = map[string]float64{
	"XOF": 1,
	"EUR": 655.96,
	"USD": 601.50,
	"GBP": 762.40,
	"NGN": 0.39,
	"GHS": 40.10,
	"MAD": 60.25,
}

const (
	crossBorderShippingXOF = 5000
	sameCountryETA         = "1-2 days"
	crossBorderETA         = "5-7 days"
)

// PriceLocalizer adjusts a price for the caller's market. The default is a
// pass-through; tax and duty math plugs in here later.
type PriceLocalizer interface {
	LocalPrice(price float64, currency string, loc *entities.LocationData) (float64, string)
}

type identityLocalizer struct{}

func (identityLocalizer) LocalPrice(price float64, currency string, _ *entities.LocationData) (float64, string) {
	return price, currency
}

// GeoService resolves caller locations and adjusts result sets for them.
type GeoService struct {
	chain     []providers.LocationProvider
	fallback  providers.LocationProvider
	localizer PriceLocalizer
	centers   func(country string) (entities.Coordinates, bool)
}

// NewGeoService creates a geo service. The providers are tried in order;
// fallback must never fail and terminates the chain.
func NewGeoService(fallback providers.LocationProvider, chain ...providers.LocationProvider) *GeoService {
	return &GeoService{
		chain:     chain,
		fallback:  fallback,
		localizer: identityLocalizer{},
	}
}

// SetPriceLocalizer replaces the pass-through price localizer.
func (s *GeoService) SetPriceLocalizer(localizer PriceLocalizer) {
	if localizer != nil {
		s.localizer = localizer
	}
}

// SetCountryCenters wires a country-to-centroid lookup used for proximity
// scoring. Catalog entries carry no point location of their own; the country
// centroid stands in.
func (s *GeoService) SetCountryCenters(centers func(country string) (entities.Coordinates, bool)) {
	s.centers = centers
}

// DetectLocation resolves the caller's location through the provider chain:
// device coordinates, then IP lookup, then the static default. It always
// returns a usable location and never fails.
func (s *GeoService) DetectLocation(ctx context.Context, device *entities.Coordinates) *entities.LocationData {
	logger := observability.LoggerFromContext(ctx)

	for _, provider := range s.chain {
		loc, err := provider.Detect(ctx, device)
		if err == nil && loc != nil && loc.Country != "" {
			return loc
		}
		if err != nil {
			logger.Debug().Err(err).Msg("location tier fell through")
		}
	}

	loc, err := s.fallback.Detect(ctx, device)
	if err != nil || loc == nil {
		// The fallback is static and cannot fail; this guards a miswired chain.
		logger.Warn().Err(err).Msg("location fallback misbehaved, using empty default")
		return &entities.LocationData{Source: entities.LocationSourceDefault}
	}
	return loc
}

// Localize annotates results with caller-location data: local availability,
// localized price and a coarse shipping estimate. Distance is only computed
// when a proximity center is supplied.
func (s *GeoService) Localize(results []*entities.SearchResult, loc *entities.LocationData, proximity *entities.ProximityFilter) []entities.LocalizedResult {
	localized := make([]entities.LocalizedResult, 0, len(results))
	for _, r := range results {
		lr := entities.LocalizedResult{SearchResult: *r}

		lr.LocalAvailability = r.AvailableIn(loc.Country)
		lr.LocalPrice, lr.LocalCurrency = s.localizer.LocalPrice(r.Price, r.Currency, loc)
		lr.Shipping = s.shippingEstimate(r, loc)

		if proximity != nil && s.centers != nil {
			if center, ok := s.centers(r.Country); ok {
				unit := proximity.Unit
				if unit == "" {
					unit = entities.UnitKilometers
				}
				d := Distance(proximity.Center, center, unit)
				lr.Distance = &d
			}
		}

		localized = append(localized, lr)
	}
	return localized
}

// Prioritize sorts localized results by a composite locality score,
// descending. The sort is stable: ties keep their pre-sort order.
func (s *GeoService) Prioritize(results []entities.LocalizedResult, loc *entities.LocationData, boost float64) []entities.LocalizedResult {
	prioritized := make([]entities.LocalizedResult, len(results))
	copy(prioritized, results)

	score := func(r entities.LocalizedResult) float64 {
		v := 0.0
		if r.LocalAvailability {
			v += boost
		}
		if r.Country == loc.Country {
			v += 1
		}
		if r.Distance != nil && *r.Distance > 0 {
			v += 0.5 / (*r.Distance + 1)
		}
		v += r.Rating * 0.1
		return v
	}

	sort.SliceStable(prioritized, func(i, j int) bool {
		return score(prioritized[i]) > score(prioritized[j])
	})
	return prioritized
}

// ConvertPrice converts between currencies using the fixed rate table.
// Unknown currency pairs pass through unchanged in the source currency.
func (s *GeoService) ConvertPrice(amount float64, from, to string) entities.ConvertedPrice {
	fromRate, fromOK := xofRates[from]
	toRate, toOK := xofRates[to]
	if !fromOK || !toOK || toRate == 0 {
		observability.GetLogger().Warn().
			Str("from", from).
			Str("to", to).
			Msg("unknown currency pair, passing amount through")
		return entities.ConvertedPrice{
			Amount:    amount,
			Currency:  from,
			Formatted: formatPrice(amount, from),
		}
	}

	converted := amount * fromRate / toRate
	converted = math.Round(converted*100) / 100
	return entities.ConvertedPrice{
		Amount:    converted,
		Currency:  to,
		Formatted: formatPrice(converted, to),
	}
}

// Distance computes the great-circle distance between two points. The unit
// selects the Earth-radius constant.
func Distance(from, to entities.Coordinates, unit entities.DistanceUnit) float64 {
	earthRadius := 6371.0 // km
	if unit == entities.UnitMiles {
		earthRadius = 3958.8
	}

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(to.Latitude - from.Latitude)
	dLon := toRad(to.Longitude - from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(from.Latitude))*math.Cos(toRad(to.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadius * c
}

func (s *GeoService) shippingEstimate(r *entities.SearchResult, loc *entities.LocationData) entities.ShippingEstimate {
	if r.Country == loc.Country {
		return entities.ShippingEstimate{
			Available: true,
			Cost:      0,
			Currency:  loc.Currency,
			ETA:       sameCountryETA,
		}
	}

	cost := s.ConvertPrice(crossBorderShippingXOF, "XOF", loc.Currency)
	return entities.ShippingEstimate{
		Available: true,
		Cost:      cost.Amount,
		Currency:  cost.Currency,
		ETA:       crossBorderETA,
	}
}

func formatPrice(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}
