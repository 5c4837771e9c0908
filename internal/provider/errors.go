// Package provider holds the error taxonomy shared by the course and calendar provider adapters.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("provider: unauthorized")
	ErrNotFound     = errors.New("provider: not found")
	ErrRateLimited  = errors.New("provider: rate limited")
	ErrUnavailable  = errors.New("provider: unavailable")
	// ErrRejected covers client errors that repeating the same request cannot fix.
	ErrRejected = errors.New("provider: request rejected")
)

// Error is returned by every adapter call that failed on the provider side.
type Error struct {
	Provider   string
	Operation  string
	StatusCode int
	Message    string
	kind       error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %s", e.Provider, e.Operation, e.kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Provider, e.Operation, e.kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.kind
}

func NewError(providerName, operation string, statusCode int, message string) *Error {
	return &Error{
		Provider:   providerName,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		kind:       KindForStatus(statusCode),
	}
}

// NewKindError builds an Error whose kind is not derivable from the status alone.
func NewKindError(providerName, operation string, statusCode int, message string, kind error) *Error {
	return &Error{
		Provider:   providerName,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		kind:       kind,
	}
}

// KindForStatus maps an HTTP status to one of the sentinel errors.
// Only 408, 429 and 5xx are transient.
func KindForStatus(statusCode int) error {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return ErrUnauthorized
	case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
		return ErrNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case statusCode == http.StatusRequestTimeout, statusCode >= http.StatusInternalServerError:
		return ErrUnavailable
	case statusCode >= http.StatusBadRequest:
		return ErrRejected
	default:
		return ErrUnavailable
	}
}

// Wrap classifies a transport-level failure (timeout, connection refused, cancelled request).
func Wrap(providerName, operation string, err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &Error{Provider: providerName, Operation: operation, Message: err.Error(), kind: ErrUnavailable}
}

// IsTransient reports whether a caller may retry the call later.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
