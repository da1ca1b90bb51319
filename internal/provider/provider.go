package provider

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrNotConfigured = errors.New("provider not configured")
	ErrCityNotFound  = errors.New("city not found")
	ErrUnauthorized  = errors.New("provider rejected credentials")
	ErrMalformed     = errors.New("malformed provider response")
)

// StatusError is returned for non-2xx responses that have no more specific
// meaning.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{Code: resp.StatusCode, Body: string(body)}
}
