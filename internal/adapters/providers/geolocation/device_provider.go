package geolocation

import (
	"context"
	"fmt"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/providers"
)

// DeviceProvider resolves locations from device-reported coordinates by
// reverse geocoding. It is the first tier of the detection chain.
type DeviceProvider struct {
	geocoder providers.ReverseGeocoder
}

// NewDeviceProvider creates a device coordinate provider. A nil geocoder
// falls back to the static region-table geocoder.
func NewDeviceProvider(geocoder providers.ReverseGeocoder) providers.LocationProvider {
	if geocoder == nil {
		geocoder = NewRegionGeocoder()
	}
	return &DeviceProvider{geocoder: geocoder}
}

// Detect resolves the device coordinates; errors when none were supplied so
// the chain falls through to the IP tier.
func (p *DeviceProvider) Detect(ctx context.Context, device *entities.Coordinates) (*entities.LocationData, error) {
	if device == nil {
		return nil, fmt.Errorf("no device coordinates supplied")
	}

	loc, err := p.geocoder.ReverseGeocode(ctx, device.Latitude, device.Longitude)
	if err != nil {
		return nil, fmt.Errorf("reverse geocode failed: %w", err)
	}

	loc.Coordinates = &entities.Coordinates{Latitude: device.Latitude, Longitude: device.Longitude}
	loc.Source = entities.LocationSourceDevice
	return loc, nil
}

// RegionGeocoder reverse geocodes against the static region table by
// nearest country center. It needs no network access.
type RegionGeocoder struct{}

// NewRegionGeocoder creates a region-table reverse geocoder
func NewRegionGeocoder() providers.ReverseGeocoder {
	return &RegionGeocoder{}
}

// ReverseGeocode maps coordinates onto the nearest known market.
func (g *RegionGeocoder) ReverseGeocode(_ context.Context, lat, lon float64) (*entities.LocationData, error) {
	code, _ := nearestCountry(lat, lon)
	if code == "" {
		return nil, fmt.Errorf("no country near %f,%f", lat, lon)
	}

	info, _ := LookupCountry(code)
	return &entities.LocationData{
		Country:  code,
		City:     info.Capital,
		Timezone: info.Timezone,
		Currency: info.Currency,
		Language: info.Language,
	}, nil
}
