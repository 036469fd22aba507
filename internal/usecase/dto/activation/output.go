package activationdto

import "github.com/otpgate/activation-service/internal/domain"

type ActivationOutput struct {
	Activation domain.Activation
	NewBalance float64
	APIStatus  string
}

// PollOutput is the normalized result of one OTP poll cycle.
type PollOutput struct {
	Received      bool
	Message       string
	Waiting       bool
	WaitingRetry  bool
	LastCode      string
	Cancelled     bool
	AutoCancelled bool
	HasOtp        bool
	// NewBalance is set only when the poll itself moved money
	// (auto-expiry refund).
	NewBalance *float64
	APIStatus  string
}

type CancelOutput struct {
	Refunded   bool
	NewBalance float64
	APIStatus  string
}

type NextSMSOutput struct {
	APIStatus string
}
