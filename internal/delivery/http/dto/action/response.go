package actiondto

import (
	"time"

	"github.com/otpgate/activation-service/internal/domain"
)

type ActivationView struct {
	ID             string        `json:"id"`
	ActivationID   string        `json:"activationId"`
	PhoneNumber    string        `json:"phoneNumber"`
	Price          float64       `json:"price"`
	Status         string        `json:"status"`
	HasOtpReceived bool          `json:"hasOtpReceived"`
	Messages       []MessageView `json:"messages,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
}

type MessageView struct {
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func ToActivationView(activation *domain.Activation) ActivationView {
	view := ActivationView{
		ID:             activation.ID,
		ActivationID:   activation.ProviderActivationID,
		PhoneNumber:    activation.PhoneNumber,
		Price:          activation.Price,
		Status:         string(activation.Status),
		HasOtpReceived: activation.HasOtpReceived,
		CreatedAt:      activation.CreatedAt,
	}
	for _, m := range activation.Messages {
		view.Messages = append(view.Messages, MessageView{Text: m.Text, ReceivedAt: m.ReceivedAt})
	}
	return view
}

type GetNumberResponse struct {
	Success    bool           `json:"success"`
	Activation ActivationView `json:"activation"`
	NewBalance float64        `json:"newBalance"`
	APIStatus  string         `json:"apiStatus"`
}

type GetMessageResponse struct {
	Success       bool     `json:"success"`
	HasOtp        bool     `json:"has_otp"`
	Message       string   `json:"message,omitempty"`
	Waiting       bool     `json:"waiting,omitempty"`
	WaitingRetry  bool     `json:"waitingRetry,omitempty"`
	LastCode      string   `json:"lastCode,omitempty"`
	Cancelled     bool     `json:"cancelled,omitempty"`
	AutoCancelled bool     `json:"auto_cancelled,omitempty"`
	NewBalance    *float64 `json:"newBalance,omitempty"`
	APIStatus     string   `json:"apiStatus"`
}

type NextSMSResponse struct {
	Success   bool   `json:"success"`
	APIStatus string `json:"apiStatus"`
}

type CancelNumberResponse struct {
	Success    bool    `json:"success"`
	Refunded   bool    `json:"refunded"`
	NewBalance float64 `json:"newBalance"`
	APIStatus  string  `json:"apiStatus"`
}

// ErrorResponse is the shared failure shape: a stable errorType for UI
// mapping plus the mirrored provider status token.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorType string `json:"errorType,omitempty"`
	APIStatus string `json:"apiStatus"`
}
