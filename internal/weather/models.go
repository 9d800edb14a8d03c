package weather

import "math"

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether both components are finite numbers.
func (c Coordinates) Valid() bool {
	return isFinite(c.Lat) && isFinite(c.Lon)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Condition is the primary weather condition reported by the provider.
type Condition struct {
	Main        string `json:"main"` // category, e.g. "Clouds"
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentConditions is the snapshot shown at the top of the dashboard.
type CurrentConditions struct {
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	Coordinates Coordinates `json:"coordinates"`
	Temperature float64     `json:"temperatureC"`
	FeelsLike   float64     `json:"feelsLikeC"`
	Humidity    float64     `json:"humidityPercent"`
	Pressure    float64     `json:"pressureHpa"`
	WindSpeed   float64     `json:"windSpeedMs"`
	Condition   Condition   `json:"condition"`
}

// ForecastEntry is one (approximately daily) forecast sample.
type ForecastEntry struct {
	Dt          int64     `json:"dt"` // unix seconds
	Temperature float64   `json:"temperatureC"`
	Condition   Condition `json:"condition"`
}

// HistoryEntry has the same shape as a forecast entry, one per lookback day.
type HistoryEntry ForecastEntry

// WeatherState is the render-ready aggregate produced by one fetch cycle.
// Current is nil only in the initial empty state.
type WeatherState struct {
	Current    *CurrentConditions `json:"current"`
	Forecast   []ForecastEntry    `json:"forecast"`
	Historical []HistoryEntry     `json:"historical"`
}

// EmptyState returns the initial state with no current conditions.
func EmptyState() WeatherState {
	return WeatherState{
		Forecast:   []ForecastEntry{},
		Historical: []HistoryEntry{},
	}
}
