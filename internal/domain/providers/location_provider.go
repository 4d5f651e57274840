package providers

import (
	"context"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

// LocationProvider resolves a caller's location from one detection tier.
// Providers are chained; a provider that cannot resolve returns an error and
// the chain falls through to the next tier.
type LocationProvider interface {
	Detect(ctx context.Context, device *entities.Coordinates) (*entities.LocationData, error)
}

// ReverseGeocoder converts coordinates into a location.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (*entities.LocationData, error)
}
