package weather

import (
	"fmt"
	"sort"
)

const (
	// ForecastStride selects one sample per day from 3-hour provider data.
	// A provider with a different interval needs a different stride.
	ForecastStride = 8

	// MaxForecastDays caps the mapped forecast.
	MaxForecastDays = 7
)

// MapCurrent converts the current-weather payload. An empty weather array
// violates the provider contract.
func MapCurrent(raw RawCurrent) (*CurrentConditions, error) {
	if len(raw.Weather) == 0 {
		return nil, fmt.Errorf("%w: current weather has no conditions", ErrMalformedResponse)
	}
	coords, err := raw.Coordinates()
	if err != nil {
		return nil, err
	}

	return &CurrentConditions{
		Name:        raw.Name,
		Country:     raw.Sys.Country,
		Coordinates: coords,
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		Humidity:    raw.Main.Humidity,
		Pressure:    raw.Main.Pressure,
		WindSpeed:   raw.Wind.Speed,
		Condition:   primaryCondition(raw.Weather),
	}, nil
}

// MapForecast downsamples the 3-hour series by taking indices 0, 8, 16, ...
// and capping the result at MaxForecastDays. This approximates one sample per
// day; it is not a daily aggregate.
func MapForecast(raw RawForecastList) []ForecastEntry {
	out := make([]ForecastEntry, 0, MaxForecastDays)
	for i := 0; i < len(raw.List) && len(out) < MaxForecastDays; i += ForecastStride {
		s := raw.List[i]
		out = append(out, ForecastEntry{
			Dt:          s.Dt,
			Temperature: s.Main.Temp,
			Condition:   primaryCondition(s.Weather),
		})
	}
	return out
}

// MapHistory drops points without weather data and orders the rest by
// timestamp, oldest first.
func MapHistory(points []RawHistoryPoint) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(points))
	for _, p := range points {
		if len(p.Weather) == 0 {
			continue
		}
		out = append(out, HistoryEntry{
			Dt:          p.Dt,
			Temperature: p.Temp,
			Condition:   primaryCondition(p.Weather),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Dt < out[j].Dt })
	return out
}

// MapState builds a complete WeatherState from one cycle's payloads.
func MapState(current RawCurrent, forecast RawForecastList, history []RawHistoryPoint) (WeatherState, error) {
	cur, err := MapCurrent(current)
	if err != nil {
		return WeatherState{}, err
	}
	return WeatherState{
		Current:    cur,
		Forecast:   MapForecast(forecast),
		Historical: MapHistory(history),
	}, nil
}

func primaryCondition(items []RawCondition) Condition {
	if len(items) == 0 {
		return Condition{}
	}
	return Condition{
		Main:        items[0].Main,
		Description: items[0].Description,
		Icon:        items[0].Icon,
	}
}
