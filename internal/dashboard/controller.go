package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// User-facing messages.
const (
	MsgInvalidCity      = "Please enter a valid city name."
	MsgCityNotFound     = "City not found."
	MsgFetchFailed      = "Unable to fetch weather data."
	MsgUnexpected       = "Failed to fetch weather data."
	msgLocationFallback = "Unable to retrieve your location. Defaulting to %s."
)

var validate = validator.New()

// Fetcher runs one complete fetch cycle.
type Fetcher interface {
	FetchByCity(ctx context.Context, city string) (weather.WeatherState, error)
	FetchByCoords(ctx context.Context, coords weather.Coordinates) (weather.WeatherState, error)
}

// query is what a cycle was keyed by; exactly one of city or coords is set.
type query struct {
	city   string
	coords *weather.Coordinates
}

// Controller owns the dashboard lifecycle: Idle -> Loading -> Ready | Error.
type Controller struct {
	fetcher         Fetcher
	resolver        location.Resolver
	store           *store.Store
	defaultCity     string
	locationTimeout time.Duration
	metrics         *observability.Metrics
	logger          *slog.Logger

	mu   sync.Mutex
	last *query
}

// Options configures a Controller.
type Options struct {
	DefaultCity     string
	LocationTimeout time.Duration
}

// NewController creates a Controller writing into st.
func NewController(fetcher Fetcher, resolver location.Resolver, st *store.Store, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Controller {
	if opts.DefaultCity == "" {
		opts.DefaultCity = "London"
	}
	return &Controller{
		fetcher:         fetcher,
		resolver:        resolver,
		store:           st,
		defaultCity:     opts.DefaultCity,
		locationTimeout: opts.LocationTimeout,
		metrics:         metrics,
		logger:          logger,
	}
}

// View returns the current dashboard view.
func (c *Controller) View() store.View {
	return c.store.View()
}

// Search runs a cycle for city. Input that is empty after trimming is
// rejected without any network call.
func (c *Controller) Search(ctx context.Context, city string) error {
	return c.search(ctx, city, "", "search")
}

// UseCurrentLocation runs a cycle for the device location, falling back to
// the default city when the location cannot be resolved.
func (c *Controller) UseCurrentLocation(ctx context.Context) error {
	lctx := ctx
	if c.locationTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, c.locationTimeout)
		defer cancel()
	}

	coords, err := c.resolver.ResolveCurrentLocation(lctx)
	if err != nil {
		c.logger.Warn("device location unavailable, using default city",
			"default_city", c.defaultCity,
			"error", err,
		)
		c.countLocation("fallback")
		notice := fmt.Sprintf(msgLocationFallback, c.defaultCity)
		return c.search(ctx, c.defaultCity, notice, "location")
	}

	c.countLocation("success")
	return c.run(ctx, query{coords: &coords}, "", "location")
}

// Refresh re-runs the most recent query. It does nothing before the first one.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()

	if last == nil {
		return nil
	}
	return c.run(ctx, *last, "", "refresh")
}

func (c *Controller) search(ctx context.Context, city, notice, trigger string) error {
	city = strings.TrimSpace(city)
	if err := validate.Var(city, "required"); err != nil {
		c.store.Dispatch(store.InputRejected{Message: MsgInvalidCity})
		return fmt.Errorf("%w: city is empty", weather.ErrValidation)
	}
	return c.run(ctx, query{city: city}, notice, trigger)
}

func (c *Controller) run(ctx context.Context, q query, notice, trigger string) error {
	c.mu.Lock()
	c.last = &q
	c.mu.Unlock()

	seq := c.store.Begin(notice)
	logger := c.logger.With("cycle", uuid.NewString(), "seq", seq, "trigger", trigger)
	if q.coords != nil {
		logger = logger.With("lat", q.coords.Lat, "lon", q.coords.Lon)
	} else {
		logger = logger.With("city", q.city)
	}
	logger.Info("fetch cycle started")

	var (
		state weather.WeatherState
		err   error
	)
	if q.coords != nil {
		state, err = c.fetcher.FetchByCoords(ctx, *q.coords)
	} else {
		state, err = c.fetcher.FetchByCity(ctx, q.city)
	}

	if err != nil {
		applied := c.store.Dispatch(store.CycleFailed{Seq: seq, Message: userMessage(err)})
		c.countCycle(trigger, outcome("error", applied))
		if !applied {
			logger.Info("superseded fetch cycle failed; error discarded", "error", err)
			return nil
		}
		logger.Warn("fetch cycle failed", "error", err)
		return err
	}

	applied := c.store.Dispatch(store.CycleSucceeded{Seq: seq, State: state})
	c.countCycle(trigger, outcome("ready", applied))
	if !applied {
		logger.Info("fetch cycle superseded by a newer one; result discarded")
		return nil
	}
	logger.Info("fetch cycle completed",
		"forecast_days", len(state.Forecast),
		"history_days", len(state.Historical),
	)
	return nil
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, weather.ErrNotFound):
		return MsgCityNotFound
	case errors.Is(err, weather.ErrFetchFailed):
		return MsgFetchFailed
	default:
		return MsgUnexpected
	}
}

func outcome(result string, applied bool) string {
	if !applied {
		return "stale"
	}
	return result
}

func (c *Controller) countCycle(trigger, outcome string) {
	if c.metrics != nil {
		c.metrics.FetchCycles.WithLabelValues(trigger, outcome).Inc()
	}
}

func (c *Controller) countLocation(outcome string) {
	if c.metrics != nil {
		c.metrics.LocationResolutions.WithLabelValues(outcome).Inc()
	}
}
