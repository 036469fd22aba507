package actiondto

const (
	ActionGetNumber    = "get_number"
	ActionGetMessage   = "get_message"
	ActionNextSMS      = "next_sms"
	ActionCancelNumber = "cancel_number"
)

// ActionRequest is the single caller-facing entry point: one endpoint,
// one body shape, the action field selects the operation.
type ActionRequest struct {
	Action       string `json:"action"`
	UserID       string `json:"userId"`
	ServerID     string `json:"serverId,omitempty"`
	ServiceID    string `json:"serviceId,omitempty"`
	ActivationID string `json:"activationId,omitempty"`
}
