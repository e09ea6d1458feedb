package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cheahjs/stable-diffusion-frontend/internal/models"
)

var (
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("not found")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrServer             = errors.New("server error")
	ErrNetwork            = errors.New("network error")
	ErrDecode             = errors.New("decode error")
)

// APIError is returned for a non-2xx backend response. Its message is the
// backend's detail text when one was sent.
type APIError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP error, status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// newAPIError builds an APIError from a failed response body. Bodies that are
// not a {detail} object fall back to the generic status message.
func newAPIError(status int, body []byte) *APIError {
	var errBody models.ErrorBody
	detail := ""
	if err := json.Unmarshal(body, &errBody); err == nil {
		detail = strings.TrimSpace(errBody.Detail)
	}

	var sentinel error
	switch {
	case status == http.StatusNotFound:
		sentinel = ErrNotFound
	case status == http.StatusServiceUnavailable:
		sentinel = ErrServiceUnavailable
	case status >= 400 && status < 500:
		sentinel = ErrBadRequest
	default:
		sentinel = ErrServer
	}

	return &APIError{StatusCode: status, Detail: detail, Err: sentinel}
}

func newNetworkError(err error) error {
	return fmt.Errorf("executing request: %w: %w", ErrNetwork, err)
}

func newDecodeError(err error) error {
	return fmt.Errorf("decoding response: %w: %w", ErrDecode, err)
}
