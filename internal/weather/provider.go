package weather

import (
	"context"
	"fmt"
)

// RawCondition is one element of the provider's "weather" array.
type RawCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// RawCoord is the provider's "coord" object.
type RawCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RawCurrent is the payload of the current-weather endpoint.
type RawCurrent struct {
	Dt    int64     `json:"dt"`
	Name  string    `json:"name"`
	Coord *RawCoord `json:"coord"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
	Weather []RawCondition `json:"weather"`
}

// Coordinates returns the location the provider resolved the lookup to.
func (r RawCurrent) Coordinates() (Coordinates, error) {
	if r.Coord == nil {
		return Coordinates{}, fmt.Errorf("%w: missing coordinates", ErrMalformedResponse)
	}
	c := Coordinates{Lat: r.Coord.Lat, Lon: r.Coord.Lon}
	if !c.Valid() {
		return Coordinates{}, fmt.Errorf("%w: non-finite coordinates", ErrMalformedResponse)
	}
	return c, nil
}

// RawForecastSample is one 3-hour sample of the forecast endpoint.
type RawForecastSample struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []RawCondition `json:"weather"`
}

// RawForecastList is the payload of the forecast endpoint.
type RawForecastList struct {
	List []RawForecastSample `json:"list"`
}

// RawHistoryPoint is the "current" sub-object of a timemachine response.
type RawHistoryPoint struct {
	Dt      int64          `json:"dt"`
	Temp    float64        `json:"temp"`
	Weather []RawCondition `json:"weather"`
}

// Gateway abstracts the weather provider's HTTP API.
type Gateway interface {
	FetchCurrentByCity(ctx context.Context, city string) (RawCurrent, error)
	FetchCurrentByCoords(ctx context.Context, coords Coordinates) (RawCurrent, error)
	FetchForecast(ctx context.Context, coords Coordinates) (RawForecastList, error)

	// FetchHistorical never fails; days that could not be fetched are omitted.
	FetchHistorical(ctx context.Context, coords Coordinates) []RawHistoryPoint
}
