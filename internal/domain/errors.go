package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrServerNotFound      = errors.New("server not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrActivationNotFound  = errors.New("activation not found")
	ErrNoNumber            = errors.New("no numbers available")
	ErrActivationClosed    = errors.New("activation already cancelled")
	ErrEarlyCancelDenied   = errors.New("cancel is frozen for this activation")
)

// ProviderError is a provider-protocol failure (BAD_KEY, NO_ACTIVATION,
// STILL_ACTIVE, ...). Kind is the stable errorType for callers, Status
// mirrors the raw provider status token.
type ProviderError struct {
	Kind   string
	Status string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s (%s)", e.Kind, e.Status)
}

func NewProviderError(kind, status string) *ProviderError {
	return &ProviderError{Kind: kind, Status: status}
}
