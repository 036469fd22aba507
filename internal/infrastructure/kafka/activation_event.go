package kafka

// ActivationEvent is published on every lifecycle transition so downstream
// consumers (notifications, analytics) can follow a number without polling
// the service.
type ActivationEvent struct {
	ActivationID string  `json:"activation_id"`
	UserID       string  `json:"user_id"`
	ServerID     string  `json:"server_id"`
	ServiceID    string  `json:"service_id"`
	PhoneNumber  string  `json:"phone_number"`
	Price        float64 `json:"price"`
	Stage        string  `json:"stage"` // created, otp_received, cancelled, auto_expired, surplus_retired
}
