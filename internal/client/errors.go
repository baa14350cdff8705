package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for programmatic handling with errors.Is
var (
	ErrNetworkFailure = errors.New("network failure")
	ErrServerError    = errors.New("server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadResponse    = errors.New("unexpected backend response")
	ErrAttachRejected = errors.New("backend rejected public key")
	ErrNotConfigured  = errors.New("backend not configured")
)

// StatusError carries the HTTP status of a failed backend call.
// Detail is the server's error message, never a secret.
type StatusError struct {
	Op     string
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed: status %d", e.Op, e.Status)
}

// Unwrap maps the status to a sentinel
func (e *StatusError) Unwrap() error {
	switch {
	case e.Status >= http.StatusInternalServerError:
		return ErrServerError
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return ErrBadResponse
	}
}

// IsServerFault reports whether err is a 5xx from the backend
func IsServerFault(err error) bool {
	return errors.Is(err, ErrServerError)
}
