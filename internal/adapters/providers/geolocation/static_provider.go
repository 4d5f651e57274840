package geolocation

import (
	"context"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/providers"
	"github.com/sunuchoix/search-backend/pkg/config"
)

// StaticProvider always returns a fixed default location. It terminates the
// detection chain and never fails.
type StaticProvider struct {
	location entities.LocationData
}

// NewStaticProvider creates a provider for the configured default market.
func NewStaticProvider(cfg *config.GeolocationConfig) providers.LocationProvider {
	loc := entities.LocationData{
		Country:  cfg.DefaultCountry,
		City:     cfg.DefaultCity,
		Timezone: cfg.DefaultTimezone,
		Currency: cfg.DefaultCurrency,
		Language: cfg.DefaultLanguage,
		Source:   entities.LocationSourceDefault,
	}
	if info, ok := LookupCountry(cfg.DefaultCountry); ok {
		loc.Coordinates = &entities.Coordinates{
			Latitude:  info.Center.Latitude,
			Longitude: info.Center.Longitude,
		}
	}
	return &StaticProvider{location: loc}
}

// Detect returns the default location.
func (p *StaticProvider) Detect(_ context.Context, _ *entities.Coordinates) (*entities.LocationData, error) {
	loc := p.location
	return &loc, nil
}
