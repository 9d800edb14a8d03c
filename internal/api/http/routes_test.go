package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type fakeDashboard struct {
	view        store.View
	searchErr   error
	locationErr error
	searched    []string
	located     int
}

func (f *fakeDashboard) View() store.View { return f.view }

func (f *fakeDashboard) Search(_ context.Context, city string) error {
	f.searched = append(f.searched, city)
	return f.searchErr
}

func (f *fakeDashboard) UseCurrentLocation(context.Context) error {
	f.located++
	return f.locationErr
}

func newTestApp(dash Dashboard) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, dash)
	return app
}

func decodeView(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestGetDashboard_InitialView(t *testing.T) {
	app := newTestApp(&fakeDashboard{view: store.InitialView()})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeView(t, resp)
	assert.Equal(t, "idle", body["phase"])
	state := body["state"].(map[string]any)
	assert.Nil(t, state["current"])
	assert.Equal(t, []any{}, state["forecast"])
	assert.Equal(t, []any{}, state["historical"])
}

func TestSearch_JSONBody(t *testing.T) {
	dash := &fakeDashboard{view: store.InitialView()}
	app := newTestApp(dash)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/search", strings.NewReader(`{"city":"Paris"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Paris"}, dash.searched)
}

func TestSearch_QueryParam(t *testing.T) {
	dash := &fakeDashboard{view: store.InitialView()}
	app := newTestApp(dash)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/search?city=New+York", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"New York"}, dash.searched)
}

func TestSearch_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", weather.ErrValidation, http.StatusBadRequest},
		{"not found", weather.ErrNotFound, http.StatusNotFound},
		{"fetch failed", weather.ErrFetchFailed, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := store.InitialView()
			view.Phase = store.PhaseError
			view.Error = "City not found."
			app := newTestApp(&fakeDashboard{view: view, searchErr: tt.err})

			resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/search?city=x", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			body := decodeView(t, resp)
			assert.Equal(t, "City not found.", body["error"])
		})
	}
}

func TestSearch_EmptyBodyStillReachesController(t *testing.T) {
	dash := &fakeDashboard{view: store.InitialView(), searchErr: weather.ErrValidation}
	app := newTestApp(dash)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/search", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, []string{""}, dash.searched)
}

func TestSearch_RejectsNonJSONBody(t *testing.T) {
	dash := &fakeDashboard{view: store.InitialView()}
	app := newTestApp(dash)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/search", strings.NewReader("city=Paris"))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, dash.searched)
}

func TestUseLocation(t *testing.T) {
	dash := &fakeDashboard{view: store.InitialView()}
	app := newTestApp(dash)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/location", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, dash.located)

	dash.locationErr = weather.ErrFetchFailed
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/location", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
