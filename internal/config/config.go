package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string

	// RequestTimeout bounds every single provider request.
	RequestTimeout time.Duration

	// LocationTimeout bounds a device location lookup.
	LocationTimeout time.Duration

	// DefaultCity is searched when the device location cannot be resolved.
	DefaultCity string

	// Device location sources, tried in order: fixed coordinates, then address geocoding.
	DeviceCoords          *weather.Coordinates
	DeviceAddress         string
	GoogleGeocodingAPIKey string

	// RefreshInterval re-runs the last query periodically (0 = disabled).
	RefreshInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
// Callers load any .env file beforehand.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.OpenWeatherBaseURL = strings.TrimRight(getenvDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"), "/")

	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if cfg.LocationTimeout, err = getenvDuration("LOCATION_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.LocationTimeout <= 0 {
		return nil, fmt.Errorf("LOCATION_TIMEOUT must be positive")
	}
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", "0"); err != nil {
		return nil, err
	}

	cfg.DefaultCity = getenvDefault("DEFAULT_CITY", "London")

	coords, err := loadDeviceCoords()
	if err != nil {
		return nil, err
	}
	cfg.DeviceCoords = coords
	cfg.DeviceAddress = strings.TrimSpace(os.Getenv("DEVICE_ADDRESS"))
	cfg.GoogleGeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")

	return cfg, nil
}

func loadDeviceCoords() (*weather.Coordinates, error) {
	latStr := strings.TrimSpace(os.Getenv("DEVICE_LAT"))
	lonStr := strings.TrimSpace(os.Getenv("DEVICE_LON"))
	if latStr == "" && lonStr == "" {
		return nil, nil
	}
	if latStr == "" || lonStr == "" {
		return nil, fmt.Errorf("DEVICE_LAT and DEVICE_LON must be set together")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LAT: %w", err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DEVICE_LON: %w", err)
	}

	c := weather.Coordinates{Lat: lat, Lon: lon}
	if !c.Valid() || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("device coordinates out of range: %v,%v", lat, lon)
	}
	return &c, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
