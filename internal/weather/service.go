package weather

import (
	"context"
	"fmt"
	"log/slog"
)

// Service runs fetch cycles against a Gateway and maps the results.
type Service struct {
	gateway Gateway
	logger  *slog.Logger
}

// NewService creates a new Service.
func NewService(gateway Gateway, logger *slog.Logger) *Service {
	return &Service{
		gateway: gateway,
		logger:  logger,
	}
}

// FetchByCity runs one cycle keyed by city name.
func (s *Service) FetchByCity(ctx context.Context, city string) (WeatherState, error) {
	current, err := s.gateway.FetchCurrentByCity(ctx, city)
	if err != nil {
		return WeatherState{}, fmt.Errorf("current weather for %q: %w", city, err)
	}
	return s.complete(ctx, current)
}

// FetchByCoords runs one cycle keyed by coordinates.
func (s *Service) FetchByCoords(ctx context.Context, coords Coordinates) (WeatherState, error) {
	current, err := s.gateway.FetchCurrentByCoords(ctx, coords)
	if err != nil {
		return WeatherState{}, fmt.Errorf("current weather for %.4f,%.4f: %w", coords.Lat, coords.Lon, err)
	}
	return s.complete(ctx, current)
}

// complete fetches the forecast and history for the location the provider
// resolved, not the caller's input, so all three legs describe the same place.
func (s *Service) complete(ctx context.Context, current RawCurrent) (WeatherState, error) {
	if _, err := MapCurrent(current); err != nil {
		return WeatherState{}, err
	}
	coords, err := current.Coordinates()
	if err != nil {
		return WeatherState{}, err
	}

	forecast, err := s.gateway.FetchForecast(ctx, coords)
	if err != nil {
		return WeatherState{}, fmt.Errorf("forecast: %w", err)
	}

	history := s.gateway.FetchHistorical(ctx, coords)
	s.logger.Debug("fetch cycle payloads received",
		"name", current.Name,
		"forecast_samples", len(forecast.List),
		"history_points", len(history),
	)

	return MapState(current, forecast, history)
}
