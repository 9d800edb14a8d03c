package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrUnavailable means no location source could produce coordinates.
	ErrUnavailable = errors.New("geolocation unavailable")

	// ErrPermissionDenied means the location source refused the request.
	ErrPermissionDenied = errors.New("geolocation permission denied")

	// ErrTimeout means the location source did not answer in time.
	ErrTimeout = errors.New("geolocation timed out")
)

// Resolver obtains the device's current coordinates.
type Resolver interface {
	ResolveCurrentLocation(ctx context.Context) (weather.Coordinates, error)
}

// StaticResolver returns fixed, configured coordinates.
type StaticResolver struct {
	coords *weather.Coordinates
}

// NewStaticResolver returns a resolver for coords; nil means no fixed location.
func NewStaticResolver(coords *weather.Coordinates) *StaticResolver {
	return &StaticResolver{coords: coords}
}

func (r *StaticResolver) ResolveCurrentLocation(ctx context.Context) (weather.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if r.coords == nil {
		return weather.Coordinates{}, fmt.Errorf("%w: no device coordinates configured", ErrUnavailable)
	}
	return *r.coords, nil
}

// GeocodeFunc matches geocoder.Geocoding.
type GeocodeFunc func(geocoder.Address) (geocoder.Location, error)

// GeocodingResolver turns a configured device address into coordinates
// through the Google Geocoding API.
type GeocodingResolver struct {
	address geocoder.Address
	apiKey  string
	geocode GeocodeFunc
	logger  *slog.Logger
}

// NewGeocodingResolver creates a resolver for address. The geocoder package
// reads its API key from a package variable, so this sets it.
func NewGeocodingResolver(address, apiKey string, logger *slog.Logger) *GeocodingResolver {
	geocoder.ApiKey = apiKey
	return &GeocodingResolver{
		address: geocoder.Address{Street: address},
		apiKey:  apiKey,
		geocode: geocoder.Geocoding,
		logger:  logger,
	}
}

// ResolveCurrentLocation runs the blocking lookup on its own goroutine so the
// caller can give up when ctx is done. The lookup itself cannot be cancelled.
func (r *GeocodingResolver) ResolveCurrentLocation(ctx context.Context) (weather.Coordinates, error) {
	if r.address.Street == "" {
		return weather.Coordinates{}, fmt.Errorf("%w: no device address configured", ErrUnavailable)
	}
	if r.apiKey == "" {
		return weather.Coordinates{}, fmt.Errorf("%w: geocoding api key is not configured", ErrPermissionDenied)
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	ch := make(chan result, 1)
	go func() {
		loc, err := r.geocode(r.address)
		ch <- result{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinates{}, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			r.logger.Debug("device address geocoding failed", "error", res.err)
			return weather.Coordinates{}, classify(res.err)
		}
		c := weather.Coordinates{Lat: res.loc.Latitude, Lon: res.loc.Longitude}
		if !c.Valid() {
			return weather.Coordinates{}, fmt.Errorf("%w: geocoder returned invalid coordinates", ErrUnavailable)
		}
		return c, nil
	}
}

func classify(err error) error {
	if common.HasAny(err.Error(), "REQUEST_DENIED", "OVER_DAILY_LIMIT", "API key") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Chain tries each resolver in order and returns the first success.
type Chain []Resolver

func (c Chain) ResolveCurrentLocation(ctx context.Context) (weather.Coordinates, error) {
	err := fmt.Errorf("%w: no location sources configured", ErrUnavailable)
	for _, r := range c {
		coords, rerr := r.ResolveCurrentLocation(ctx)
		if rerr == nil {
			return coords, nil
		}
		err = rerr
		if errors.Is(rerr, ErrTimeout) {
			break
		}
	}
	return weather.Coordinates{}, err
}
