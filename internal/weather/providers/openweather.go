package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	// HistoryDays is the number of lookback days fetched per cycle.
	HistoryDays = 7

	secondsPerDay = 24 * 60 * 60
)

// OpenWeatherGateway implements weather.Gateway for OpenWeatherMap.
type OpenWeatherGateway struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	// history has its own breaker; a failing lookback leg must not block lookups.
	history *gobreaker.CircuitBreaker
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// OpenWeatherOptions configures NewOpenWeatherGateway.
type OpenWeatherOptions struct {
	APIKey         string
	BaseURL        string // e.g. https://api.openweathermap.org/data/2.5
	RequestTimeout time.Duration
	Clock          clockwork.Clock // nil = real clock
}

func NewOpenWeatherGateway(client *http.Client, opts OpenWeatherOptions, metrics *observability.Metrics, logger *slog.Logger) *OpenWeatherGateway {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OpenWeatherGateway{
		apiKey:  opts.APIKey,
		baseURL: opts.BaseURL,
		httpCfg: HTTPClientConfig{
			Client:         client,
			RequestTimeout: opts.RequestTimeout,
		},
		circuit: newCircuitBreaker("openweather"),
		history: newCircuitBreaker("openweather-history"),
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchCurrentByCity looks up current weather by city name; the provider
// geocodes the name itself.
func (g *OpenWeatherGateway) FetchCurrentByCity(ctx context.Context, city string) (weather.RawCurrent, error) {
	values := url.Values{}
	values.Set("q", city)

	var payload weather.RawCurrent
	if err := g.get(ctx, "current", "/weather", values, &payload); err != nil {
		return weather.RawCurrent{}, err
	}
	return payload, nil
}

// FetchCurrentByCoords looks up current weather by coordinates.
func (g *OpenWeatherGateway) FetchCurrentByCoords(ctx context.Context, coords weather.Coordinates) (weather.RawCurrent, error) {
	var payload weather.RawCurrent
	if err := g.get(ctx, "current", "/weather", coordValues(coords), &payload); err != nil {
		return weather.RawCurrent{}, err
	}
	return payload, nil
}

// FetchForecast returns the raw 3-hour forecast series. A 404 here is a
// provider failure, not an unknown location.
func (g *OpenWeatherGateway) FetchForecast(ctx context.Context, coords weather.Coordinates) (weather.RawForecastList, error) {
	var payload weather.RawForecastList
	if err := g.get(ctx, "forecast", "/forecast", coordValues(coords), &payload); err != nil {
		return weather.RawForecastList{}, lookupOnly(err)
	}
	return payload, nil
}

// lookupOnly demotes a 404 to a fetch failure. Only the current-weather
// lookup can report a location as not found.
func lookupOnly(err error) error {
	if errors.Is(err, weather.ErrNotFound) {
		return fmt.Errorf("%w: status 404", weather.ErrFetchFailed)
	}
	return err
}

// FetchHistorical requests one reading per day for the last HistoryDays days,
// one day at a time starting with yesterday. A failing day is dropped and the
// rest of the batch continues; the result keeps day-offset order.
func (g *OpenWeatherGateway) FetchHistorical(ctx context.Context, coords weather.Coordinates) []weather.RawHistoryPoint {
	now := g.clock.Now().Unix()
	points := make([]weather.RawHistoryPoint, 0, HistoryDays)
	var missing int

	for i := 1; i <= HistoryDays; i++ {
		if ctx.Err() != nil {
			missing += HistoryDays - i + 1
			break
		}

		values := coordValues(coords)
		values.Set("dt", strconv.FormatInt(now-int64(i)*secondsPerDay, 10))

		var payload struct {
			Current *weather.RawHistoryPoint `json:"current"`
		}
		if err := g.get(ctx, "historical", "/onecall/timemachine", values, &payload); err != nil {
			g.logger.Debug("historical day skipped", "offset_days", i, "error", err)
			missing++
			continue
		}
		if payload.Current == nil {
			missing++
			continue
		}
		points = append(points, *payload.Current)
	}

	if missing > 0 {
		if g.metrics != nil {
			g.metrics.HistoryMissing.Add(float64(missing))
		}
		g.logger.Warn("failed to fetch some historical data",
			"missing_days", missing,
			"lat", coords.Lat,
			"lon", coords.Lon,
		)
	}
	return points
}

func (g *OpenWeatherGateway) get(ctx context.Context, endpoint, path string, values url.Values, out any) error {
	if g.apiKey == "" {
		return fmt.Errorf("%w: openweather api key is not configured", weather.ErrFetchFailed)
	}
	values.Set("appid", g.apiKey)
	values.Set("units", "metric")

	u := fmt.Sprintf("%s%s?%s", g.baseURL, path, values.Encode())

	cb := g.circuit
	if endpoint == "historical" {
		cb = g.history
	}

	start := time.Now()
	err := doJSONRequest(ctx, g.httpCfg, cb, u, out)
	g.observe(endpoint, start, err)
	return err
}

func (g *OpenWeatherGateway) observe(endpoint string, start time.Time, err error) {
	if g.metrics == nil {
		return
	}
	outcome := "success"
	switch {
	case errors.Is(err, weather.ErrNotFound):
		outcome = "not_found"
	case err != nil:
		outcome = "error"
	}
	g.metrics.ProviderRequests.WithLabelValues(endpoint, outcome).Inc()
	g.metrics.ProviderDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func coordValues(c weather.Coordinates) url.Values {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(c.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(c.Lon, 'f', -1, 64))
	return values
}
