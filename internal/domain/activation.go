package domain

import "time"

type ActivationStatus string

const (
	StatusActive    ActivationStatus = "ACTIVE"
	StatusCancelled ActivationStatus = "CANCELLED"
)

// Activation is one rented provider number tied to a user.
// Status only ever moves ACTIVE -> CANCELLED and HasOtpReceived
// only ever flips false -> true.
type Activation struct {
	ID                   string
	UserID               string
	ServerID             string
	ServiceID            string
	ProviderActivationID string
	PhoneNumber          string
	Price                float64
	Status               ActivationStatus
	HasOtpReceived       bool
	Messages             []ActivationMessage
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type ActivationMessage struct {
	Text       string
	ReceivedAt time.Time
}

// Expired reports whether the auto-cancel window has elapsed for an
// activation that never received a code.
func (a *Activation) Expired(now time.Time, autoCancelMinutes int) bool {
	if a.Status != StatusActive || a.HasOtpReceived {
		return false
	}
	return now.Sub(a.CreatedAt) >= time.Duration(autoCancelMinutes)*time.Minute
}
