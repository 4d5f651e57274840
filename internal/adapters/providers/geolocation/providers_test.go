package geolocation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunuchoix/search-backend/internal/adapters/cache"
	"github.com/sunuchoix/search-backend/internal/adapters/providers/geolocation"
	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/pkg/config"
)

func TestDeviceProviderRequiresCoordinates(t *testing.T) {
	provider := geolocation.NewDeviceProvider(nil)

	_, err := provider.Detect(context.Background(), nil)
	assert.Error(t, err)
}

func TestDeviceProviderResolvesNearestMarket(t *testing.T) {
	provider := geolocation.NewDeviceProvider(nil)

	// Central Dakar.
	loc, err := provider.Detect(context.Background(), &entities.Coordinates{
		Latitude: 14.71, Longitude: -17.45,
	})
	require.NoError(t, err)
	assert.Equal(t, "SN", loc.Country)
	assert.Equal(t, "XOF", loc.Currency)
	assert.Equal(t, "fr", loc.Language)
	assert.Equal(t, entities.LocationSourceDevice, loc.Source)
}

func TestIPProviderParsesLookupResponse(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"success","countryCode":"CI","city":"Abidjan","timezone":"Africa/Abidjan","lat":5.36,"lon":-4.01}`))
	}))
	defer server.Close()

	store := cache.NewMemoryCache(10, 300)
	provider := geolocation.NewIPProvider(server.URL, store)

	loc, err := provider.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "CI", loc.Country)
	assert.Equal(t, "Abidjan", loc.City)
	assert.Equal(t, "XOF", loc.Currency)
	assert.Equal(t, entities.LocationSourceIP, loc.Source)

	// Second call served from cache.
	_, err = provider.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIPProviderFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"fail","message":"private range"}`))
	}))
	defer server.Close()

	provider := geolocation.NewIPProvider(server.URL, nil)

	_, err := provider.Detect(context.Background(), nil)
	assert.ErrorContains(t, err, "private range")
}

func TestStaticProviderNeverFails(t *testing.T) {
	provider := geolocation.NewStaticProvider(&config.GeolocationConfig{
		DefaultCountry:  "SN",
		DefaultCity:     "Dakar",
		DefaultCurrency: "XOF",
		DefaultLanguage: "fr",
		DefaultTimezone: "Africa/Dakar",
	})

	loc, err := provider.Detect(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "SN", loc.Country)
	assert.Equal(t, entities.LocationSourceDefault, loc.Source)
	require.NotNil(t, loc.Coordinates)
	assert.InDelta(t, 14.6928, loc.Coordinates.Latitude, 0.001)
}

func TestLookupCountryTable(t *testing.T) {
	info, ok := geolocation.LookupCountry("CI")
	require.True(t, ok)
	assert.Equal(t, "XOF", info.Currency)
	assert.Equal(t, "fr", info.Language)

	_, ok = geolocation.LookupCountry("ZZ")
	assert.False(t, ok)
}

func TestCountryCenter(t *testing.T) {
	center, ok := geolocation.CountryCenter("SN")
	require.True(t, ok)
	assert.InDelta(t, 14.6928, center.Latitude, 0.001)

	_, ok = geolocation.CountryCenter("ZZ")
	assert.False(t, ok)
}
