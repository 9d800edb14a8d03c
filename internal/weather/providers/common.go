package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and per-request settings.
type HTTPClientConfig struct {
	Client *http.Client

	// RequestTimeout bounds each request individually (0 = caller's context only).
	RequestTimeout time.Duration
}

var (
	errNoHTTPClient = errors.New("http client not configured")
	errCircuitOpen  = errors.New("circuit breaker open")
)

// newCircuitBreaker trips after consecutive provider failures. A 404 is a
// valid answer from a healthy provider and never counts against it.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: countsAsSuccess,
	})
}

func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, weather.ErrNotFound)
}

// doJSONRequest performs a single GET through the circuit breaker and decodes
// the body into out. It never retries.
//
// Status mapping: 404 -> weather.ErrNotFound, any other non-2xx or transport
// error -> weather.ErrFetchFailed, undecodable body -> weather.ErrMalformedResponse.
func doJSONRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	rawURL string,
	out any,
) error {
	if cfg.Client == nil {
		return errNoHTTPClient
	}

	if cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	_, err = cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, fmt.Errorf("%w: %w", weather.ErrFetchFailed, execErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, weather.ErrNotFound
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("%w: status %d: %s", weather.ErrFetchFailed, resp.StatusCode, body)
		}

		if decErr := json.NewDecoder(resp.Body).Decode(out); decErr != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrMalformedResponse, decErr)
		}
		return nil, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w: %v", weather.ErrFetchFailed, errCircuitOpen, err)
	}
	return err
}
