package dashboard_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

// fakeProvider serves the OpenWeatherMap endpoints for a single known city.
type fakeProvider struct {
	mu       sync.Mutex
	city     string
	requests map[string][]string // path -> raw queries

	forecastStatus int // non-zero replaces the forecast response
	omitCoord      bool
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.requests[r.URL.Path] = append(p.requests[r.URL.Path], r.URL.RawQuery)
	forecastStatus, omitCoord := p.forecastStatus, p.omitCoord
	p.mu.Unlock()

	cond := []map[string]any{{"main": "Clouds", "description": "overcast clouds", "icon": "04d"}}
	var body any

	switch r.URL.Path {
	case "/weather":
		if q := r.URL.Query().Get("q"); q != "" && q != p.city {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
			return
		}
		current := map[string]any{
			"name":    p.city,
			"coord":   map[string]any{"lat": 51.5085, "lon": -0.1257},
			"sys":     map[string]any{"country": "GB"},
			"main":    map[string]any{"temp": 12.3, "feels_like": 11.1, "humidity": 81, "pressure": 1009},
			"wind":    map[string]any{"speed": 5.1},
			"weather": cond,
		}
		if omitCoord {
			delete(current, "coord")
		}
		body = current
	case "/forecast":
		if forecastStatus != 0 {
			w.WriteHeader(forecastStatus)
			return
		}
		list := make([]map[string]any, 40)
		for i := range list {
			list[i] = map[string]any{"dt": 1792000000 + i*10800, "main": map[string]any{"temp": i}, "weather": cond}
		}
		body = map[string]any{"list": list}
	case "/onecall/timemachine":
		dt, _ := strconv.ParseInt(r.URL.Query().Get("dt"), 10, 64)
		body = map[string]any{"current": map[string]any{"dt": dt, "temp": 9.5, "weather": cond}}
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (p *fakeProvider) configure(fn func(p *fakeProvider)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakeProvider) count(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests[path])
}

type deniedResolver struct{}

func (deniedResolver) ResolveCurrentLocation(context.Context) (weather.Coordinates, error) {
	return weather.Coordinates{}, location.ErrPermissionDenied
}

func newPipeline(t *testing.T, city string) (*dashboard.Controller, *fakeProvider) {
	t.Helper()
	p := &fakeProvider{city: city, requests: map[string][]string{}}
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	gw := providers.NewOpenWeatherGateway(&http.Client{Timeout: 5 * time.Second}, providers.OpenWeatherOptions{
		APIKey:         "k",
		BaseURL:        srv.URL,
		RequestTimeout: 2 * time.Second,
		Clock:          clockwork.NewFakeClockAt(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)),
	}, metrics, logger)

	c := dashboard.NewController(weather.NewService(gw, logger), deniedResolver{}, store.New(),
		dashboard.Options{DefaultCity: "London", LocationTimeout: time.Second}, metrics, logger)
	return c, p
}

func TestPipeline_LocationDeniedFallsBackToLondon(t *testing.T) {
	c, p := newPipeline(t, "London")

	require.NoError(t, c.UseCurrentLocation(context.Background()))

	v := c.View()
	assert.Equal(t, "Unable to retrieve your location. Defaulting to London.", v.Error)
	require.NotNil(t, v.State.Current)
	assert.Equal(t, "London", v.State.Current.Name)
	assert.Len(t, v.State.Forecast, 5)
	assert.Len(t, v.State.Historical, 7)
	for i := 1; i < len(v.State.Historical); i++ {
		assert.Less(t, v.State.Historical[i-1].Dt, v.State.Historical[i].Dt)
	}

	assert.Equal(t, 1, p.count("/weather"))
	assert.Equal(t, 1, p.count("/forecast"))
	assert.Equal(t, 7, p.count("/onecall/timemachine"))
}

func TestPipeline_UnknownCity(t *testing.T) {
	c, p := newPipeline(t, "London")
	require.NoError(t, c.Search(context.Background(), "London"))

	err := c.Search(context.Background(), "Atlantis")
	require.ErrorIs(t, err, weather.ErrNotFound)

	v := c.View()
	assert.Equal(t, "City not found.", v.Error)
	assert.Equal(t, "London", v.State.Current.Name, "previous state stays visible")
	assert.Equal(t, 2, p.count("/weather"))
	assert.Equal(t, 1, p.count("/forecast"))
}

func TestPipeline_EmptySearchMakesNoRequests(t *testing.T) {
	c, p := newPipeline(t, "London")

	err := c.Search(context.Background(), "  ")
	require.ErrorIs(t, err, weather.ErrValidation)
	assert.Equal(t, "Please enter a valid city name.", c.View().Error)
	assert.Equal(t, 0, p.count("/weather"))
}

func TestPipeline_RepeatedSearchIsIdempotent(t *testing.T) {
	c, p := newPipeline(t, "London")

	require.NoError(t, c.Search(context.Background(), "London"))
	first := c.View().State
	require.NoError(t, c.Search(context.Background(), "London"))
	second := c.View().State

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("state differs between identical searches (-first +second):\n%s", diff)
	}
	assert.Equal(t, 2, p.count("/weather"))
	assert.Equal(t, 14, p.count("/onecall/timemachine"))
}

func TestPipeline_ForecastNotFoundIsFetchFailure(t *testing.T) {
	c, p := newPipeline(t, "London")
	p.configure(func(p *fakeProvider) { p.forecastStatus = http.StatusNotFound })

	err := c.Search(context.Background(), "London")
	require.ErrorIs(t, err, weather.ErrFetchFailed)
	assert.NotErrorIs(t, err, weather.ErrNotFound)

	v := c.View()
	assert.Equal(t, store.PhaseError, v.Phase)
	assert.Equal(t, dashboard.MsgFetchFailed, v.Error)
	assert.Equal(t, 0, p.count("/onecall/timemachine"))
}

func TestPipeline_CurrentWithoutCoordIsRejected(t *testing.T) {
	c, p := newPipeline(t, "London")
	p.configure(func(p *fakeProvider) { p.omitCoord = true })

	err := c.Search(context.Background(), "London")
	require.ErrorIs(t, err, weather.ErrMalformedResponse)

	v := c.View()
	assert.Equal(t, store.PhaseError, v.Phase)
	assert.Nil(t, v.State.Current)
	assert.Equal(t, 0, p.count("/forecast"))
}
