package entities

// Coordinates represents geographical coordinates.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationSource identifies which detection tier produced a location.
type LocationSource string

const (
	LocationSourceDevice  LocationSource = "device"
	LocationSourceIP      LocationSource = "ip"
	LocationSourceDefault LocationSource = "default"
)

// LocationData describes a caller's resolved location.
type LocationData struct {
	Country     string         `json:"country"` // ISO 3166-1 alpha-2
	City        string         `json:"city"`
	Timezone    string         `json:"timezone"`
	Currency    string         `json:"currency"`
	Language    string         `json:"language"`
	Coordinates *Coordinates   `json:"coordinates,omitempty"`
	Source      LocationSource `json:"source"`
}

// DistanceUnit selects the unit for great-circle distance computation.
type DistanceUnit string

const (
	UnitKilometers DistanceUnit = "km"
	UnitMiles      DistanceUnit = "mi"
)

// ProximityFilter is an optional center point used to compute and sort by
// physical distance.
type ProximityFilter struct {
	Center   Coordinates  `json:"center"`
	RadiusKm float64      `json:"radius_km,omitempty"`
	Unit     DistanceUnit `json:"unit,omitempty"`
}

// ConvertedPrice is the outcome of a currency conversion.
type ConvertedPrice struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Formatted string  `json:"formatted"`
}
