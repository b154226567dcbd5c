// internal/core/domain/errors.go
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrVariantNotFound means the SKU is not sellable on the commerce platform yet.
	ErrVariantNotFound = errors.New("variant not found")
	// ErrLocationUnmatched means no shop location matches a warehouse location name.
	ErrLocationUnmatched = errors.New("location not matched")
	// ErrSyncInProgress is returned when a run for the same shop is still active.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrRunNotFound is returned by the run log for unknown run ids.
	ErrRunNotFound = errors.New("sync run not found")
	// ErrShopNotFound is returned when no installed session exists for a shop.
	ErrShopNotFound = errors.New("shop session not found")
	// ErrConfiguration marks missing endpoints or credentials.
	ErrConfiguration = errors.New("invalid configuration")
)

// BusinessError is a validation failure reported by a remote platform.
// It is terminal and never retried.
type BusinessError struct {
	Op       string
	Messages []string
}

func (e *BusinessError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s rejected", e.Op)
	}
	return fmt.Sprintf("%s rejected: %s", e.Op, strings.Join(e.Messages, "; "))
}

// TransportError describes a failed HTTP exchange with a remote API.
type TransportError struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ActivationError wraps a failed attempt to start tracking an item at a location.
type ActivationError struct {
	LocationName string
	Err          error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("activate inventory at %s: %v", e.LocationName, e.Err)
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}

// ConfigError builds an ErrConfiguration with detail.
func ConfigError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// PublicMessage returns an error description that is safe to show outside
// the process. Transport details stay in the logs.
func PublicMessage(err error) string {
	var be *BusinessError
	var te *TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &be):
		return be.Error()
	case errors.Is(err, ErrSyncInProgress):
		return "a sync is already running for this shop"
	case errors.Is(err, ErrConfiguration):
		return "sync is not configured"
	case errors.Is(err, ErrShopNotFound):
		return "shop is not installed"
	case errors.Is(err, context.DeadlineExceeded):
		return "sync timed out"
	case errors.As(err, &te):
		if te.StatusCode > 0 {
			return fmt.Sprintf("%s failed with status %d", te.Op, te.StatusCode)
		}
		return fmt.Sprintf("%s failed", te.Op)
	default:
		return "unexpected error"
	}
}
