package domain

import "time"

type PendingCancellationStatus string

const (
	PendingCancelPending   PendingCancellationStatus = "PENDING"
	PendingCancelCancelled PendingCancellationStatus = "CANCELLED"
)

// PendingCancellation is a surplus number queued for deferred retirement.
// CancelAfter is never earlier than the service's cancel embargo window;
// a row goes PENDING -> CANCELLED exactly once, failures only bump
// Attempts and LastError.
type PendingCancellation struct {
	ID                   string
	ActivationID         string
	PhoneNumber          string
	ServerID             string
	ServiceID            string
	Status               PendingCancellationStatus
	CancelAfter          time.Time
	Attempts             int
	LastError            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
