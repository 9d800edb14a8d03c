package httpapi

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-dashboard/internal/store"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Dashboard is the controller surface the HTTP layer drives.
type Dashboard interface {
	View() store.View
	Search(ctx context.Context, city string) error
	UseCurrentLocation(ctx context.Context) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, dash Dashboard) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(dash.View())
	})

	v1.Post("/dashboard/search", func(c *fiber.Ctx) error {
		city, err := parseCity(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		err = dash.Search(c.UserContext(), city)
		return c.Status(statusFor(err)).JSON(dash.View())
	})

	v1.Post("/dashboard/location", func(c *fiber.Ctx) error {
		err := dash.UseCurrentLocation(c.UserContext())
		return c.Status(statusFor(err)).JSON(dash.View())
	})
}

// searchRequest is the body of a search; ?city= is accepted as well.
type searchRequest struct {
	City string `json:"city"`
}

func parseCity(c *fiber.Ctx) (string, error) {
	if q := c.Query("city"); q != "" {
		return q, nil
	}
	if len(c.Body()) == 0 {
		return "", nil
	}
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		return "", errors.New("search body must be application/json")
	}
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return "", errors.New("invalid search body")
	}
	return req.City, nil
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, weather.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, weather.ErrNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadGateway
	}
}
