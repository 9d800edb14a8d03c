package weather

import "errors"

var (
	// ErrValidation is returned when search input is empty after trimming.
	ErrValidation = errors.New("invalid search input")

	// ErrNotFound is returned when the provider answers 404 for a lookup.
	ErrNotFound = errors.New("location not found")

	// ErrFetchFailed covers network errors and any other non-success status.
	ErrFetchFailed = errors.New("weather fetch failed")

	// ErrMalformedResponse is returned when a provider payload breaks its contract.
	ErrMalformedResponse = errors.New("malformed provider response")
)
