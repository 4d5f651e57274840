package geolocation

import (
	"math"
	"sort"

	"github.com/sunuchoix/search-backend/internal/domain/entities"
)

// CountryInfo carries the static localization attributes of a market.
type CountryInfo struct {
	Name     string
	Currency string
	Language string
	Region   string
	Timezone string
	Capital  string
	Center   entities.Coordinates
}

// countries is the static region table for the markets the storefront serves
// plus the major cross-border origins.
var countries = map[string]CountryInfo{
	"SN": {Name: "Sénégal", Currency: "XOF", Language: "fr", Region: "West Africa", Timezone: "Africa/Dakar", Capital: "Dakar", Center: entities.Coordinates{Latitude: 14.6928, Longitude: -17.4467}},
	"CI": {Name: "Côte d'Ivoire", Currency: "XOF", Language: "fr", Region: "West Africa", Timezone: "Africa/Abidjan", Capital: "Abidjan", Center: entities.Coordinates{Latitude: 5.3600, Longitude: -4.0083}},
	"ML": {Name: "Mali", Currency: "XOF", Language: "fr", Region: "West Africa", Timezone: "Africa/Bamako", Capital: "Bamako", Center: entities.Coordinates{Latitude: 12.6392, Longitude: -8.0029}},
	"BF": {Name: "Burkina Faso", Currency: "XOF", Language: "fr", Region: "West Africa", Timezone: "Africa/Ouagadougou", Capital: "Ouagadougou", Center: entities.Coordinates{Latitude: 12.3714, Longitude: -1.5197}},
	"NG": {Name: "Nigeria", Currency: "NGN", Language: "en", Region: "West Africa", Timezone: "Africa/Lagos", Capital: "Abuja", Center: entities.Coordinates{Latitude: 9.0765, Longitude: 7.3986}},
	"GH": {Name: "Ghana", Currency: "GHS", Language: "en", Region: "West Africa", Timezone: "Africa/Accra", Capital: "Accra", Center: entities.Coordinates{Latitude: 5.6037, Longitude: -0.1870}},
	"MA": {Name: "Maroc", Currency: "MAD", Language: "fr", Region: "North Africa", Timezone: "Africa/Casablanca", Capital: "Rabat", Center: entities.Coordinates{Latitude: 34.0209, Longitude: -6.8416}},
	"FR": {Name: "France", Currency: "EUR", Language: "fr", Region: "Europe", Timezone: "Europe/Paris", Capital: "Paris", Center: entities.Coordinates{Latitude: 48.8566, Longitude: 2.3522}},
	"US": {Name: "United States", Currency: "USD", Language: "en", Region: "North America", Timezone: "America/New_York", Capital: "Washington", Center: entities.Coordinates{Latitude: 38.9072, Longitude: -77.0369}},
	"GB": {Name: "United Kingdom", Currency: "GBP", Language: "en", Region: "Europe", Timezone: "Europe/London", Capital: "London", Center: entities.Coordinates{Latitude: 51.5074, Longitude: -0.1278}},
}

// LookupCountry returns the static attributes of a country code.
func LookupCountry(code string) (CountryInfo, bool) {
	info, ok := countries[code]
	return info, ok
}

// KnownCountries returns the sorted list of country codes in the region table.
func KnownCountries() []string {
	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// CountryCenter returns the centroid coordinates of a country code.
func CountryCenter(code string) (entities.Coordinates, bool) {
	info, ok := countries[code]
	if !ok {
		return entities.Coordinates{}, false
	}
	return info.Center, true
}

// nearestCountry returns the country whose center is closest to the given
// coordinates, with the distance in kilometers.
func nearestCountry(lat, lon float64) (string, float64) {
	best := ""
	bestDist := math.MaxFloat64
	for code, info := range countries {
		d := haversineKm(lat, lon, info.Center.Latitude, info.Center.Longitude)
		if d < bestDist {
			best = code
			bestDist = d
		}
	}
	return best, bestDist
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
