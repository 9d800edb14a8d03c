package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/logging"
	"github.com/i474232898/weather-dashboard/internal/observability"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

const appName = "weather-dashboard"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logging.New(cfg, appName)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls; each request also gets its own deadline.
	httpClient := &http.Client{
		Timeout: cfg.RequestTimeout,
	}

	gateway := providers.NewOpenWeatherGateway(httpClient, providers.OpenWeatherOptions{
		APIKey:         cfg.OpenWeatherAPIKey,
		BaseURL:        cfg.OpenWeatherBaseURL,
		RequestTimeout: cfg.RequestTimeout,
	}, metrics, lg)
	if cfg.OpenWeatherAPIKey == "" {
		lg.Warn("OPENWEATHER_API_KEY is not set; every fetch will fail")
	}

	service := weather.NewService(gateway, lg)

	// Device location: fixed coordinates first, then the configured address.
	resolver := location.Chain{location.NewStaticResolver(cfg.DeviceCoords)}
	if cfg.DeviceAddress != "" {
		resolver = append(resolver, location.NewGeocodingResolver(cfg.DeviceAddress, cfg.GoogleGeocodingAPIKey, lg))
	}

	controller := dashboard.NewController(service, resolver, store.New(), dashboard.Options{
		DefaultCity:     cfg.DefaultCity,
		LocationTimeout: cfg.LocationTimeout,
	}, metrics, lg)

	// Worst case for one cycle: current + forecast + seven history days.
	cycleTimeout := cfg.LocationTimeout + 9*cfg.RequestTimeout

	// Initial load, like opening the dashboard.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
		defer cancel()
		if err := controller.UseCurrentLocation(ctx); err != nil {
			lg.Warn("initial dashboard load failed", "error", err)
		}
	}()

	sched := scheduler.New(controller, cfg.RefreshInterval, cycleTimeout, lg)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cycleTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, controller)

	go func() {
		lg.Info("http server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	lg.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", "error", err)
	}
}
