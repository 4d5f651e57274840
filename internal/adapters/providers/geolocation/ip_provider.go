package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
	"github.com/sunuchoix/search-backend/internal/domain/providers"
)

const (
	defaultIPLookupURL   = "http://ip-api.com/json"
	defaultIPCacheTTL    = 60 * 60 // 1 hour
	defaultLookupTimeout = 8 * time.Second
)

// IPProvider resolves the caller's location from its public IP address. It is
// the second tier of the detection chain.
type IPProvider struct {
	baseURL    string
	httpClient *http.Client
	cache      providers.CacheProvider
}

// NewIPProvider creates an IP lookup provider.
func NewIPProvider(baseURL string, cache providers.CacheProvider) providers.LocationProvider {
	return NewIPProviderWithOptions(baseURL, cache, nil)
}

// NewIPProviderWithOptions allows overriding the HTTP client (used for tests).
func NewIPProviderWithOptions(baseURL string, cache providers.CacheProvider, httpClient *http.Client) providers.LocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultIPLookupURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultLookupTimeout}
	}
	return &IPProvider{
		baseURL:    baseURL,
		httpClient: httpClient,
		cache:      cache,
	}
}

type ipLookupResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	CountryCode string  `json:"countryCode"`
	City        string  `json:"city"`
	Timezone    string  `json:"timezone"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Detect queries the IP lookup endpoint for the caller's egress address.
func (p *IPProvider) Detect(ctx context.Context, _ *entities.Coordinates) (*entities.LocationData, error) {
	cacheKey := "geo:ip:" + hashKey(p.baseURL)
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var loc entities.LocationData
			if err := json.Unmarshal(cached, &loc); err == nil && loc.Country != "" {
				return &loc, nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ip lookup request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
	}

	var payload ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode ip lookup response: %w", err)
	}
	if payload.Status != "" && payload.Status != "success" {
		if payload.Message != "" {
			return nil, fmt.Errorf("ip lookup failed: %s", payload.Message)
		}
		return nil, fmt.Errorf("ip lookup failed: %s", payload.Status)
	}
	if payload.CountryCode == "" {
		return nil, fmt.Errorf("ip lookup returned no country")
	}

	loc := &entities.LocationData{
		Country:  payload.CountryCode,
		City:     payload.City,
		Timezone: payload.Timezone,
		Source:   entities.LocationSourceIP,
	}
	if payload.Lat != 0 || payload.Lon != 0 {
		loc.Coordinates = &entities.Coordinates{Latitude: payload.Lat, Longitude: payload.Lon}
	}
	if info, ok := LookupCountry(payload.CountryCode); ok {
		loc.Currency = info.Currency
		loc.Language = info.Language
		if loc.Timezone == "" {
			loc.Timezone = info.Timezone
		}
	}

	if p.cache != nil {
		if data, err := json.Marshal(loc); err == nil {
			_ = p.cache.Set(ctx, cacheKey, data, defaultIPCacheTTL)
		}
	}

	return loc, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
