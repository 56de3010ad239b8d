package notion

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("notion: unauthorized")
	ErrNotFound     = errors.New("notion: object not found")
	ErrRateLimited  = errors.New("notion: rate limited")
	ErrUnavailable  = errors.New("notion: service unavailable")
)

// APIError is a non-2xx response from the Notion API
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion: %s (http %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap maps well known statuses onto the package sentinels
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if e.Status >= http.StatusInternalServerError {
		return ErrUnavailable
	}
	return nil
}
