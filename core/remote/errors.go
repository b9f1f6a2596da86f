package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Error is an HTTP-level failure returned by the remote API.
type Error struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *Error) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("remote request failed: %s", e.Status)
	}
	return fmt.Sprintf("remote request failed: %s: %s", e.Status, e.Body)
}

func newError(statusCode int, status string, body []byte) error {
	return &Error{
		StatusCode: statusCode,
		Status:     status,
		Body:       strings.TrimSpace(string(body)),
	}
}

// IsThrottle reports whether err is an over-quota (429) response.
func IsThrottle(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// IsTerminal reports whether err signals a malformed or invalid request.
// Terminal errors are caller bugs, never retried.
func IsTerminal(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// isTransient reports whether err is worth retrying with a fixed delay:
// a server-side failure or a network-level error (timeout, reset).
func isTransient(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	// Context cancellation belongs to the caller, not the network.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
