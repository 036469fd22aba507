package domain

// ActivationRepository is the storage/ledger boundary. The two money-moving
// operations are transactional: either the balance mutation and the
// activation state change both land or neither does.
type ActivationRepository interface {
	// CreateWithDebit debits the user's wallet by price and inserts the
	// activation in one transaction. Returns the stored activation and
	// the new balance, or ErrInsufficientBalance.
	CreateWithDebit(activation *Activation) (*Activation, float64, error)

	// CancelWithRefund flips the activation to CANCELLED and credits the
	// refund, but only if it is still ACTIVE. refunded=false means the
	// activation was already closed and no money moved.
	CancelWithRefund(activationID string) (refunded bool, newBalance float64, err error)

	// AppendMessage stores an inbound message and marks the activation as
	// having received an OTP. Appending the same text twice is a no-op.
	AppendMessage(activationID, text string) error

	GetByID(activationID string) (*Activation, error)
	GetBalance(userID string) (float64, error)
}

type PendingCancellationRepository interface {
	Create(pc *PendingCancellation) error
	MarkCancelled(id string) error
	// RecordFailure bumps Attempts and stores the last error, keeping the
	// row PENDING so a later sweep can re-drive it.
	RecordFailure(id string, lastError string) error
	FindDue(limit int) ([]*PendingCancellation, error)
}

type CatalogRepository interface {
	GetServerConfig(serverID string) (*ServerConfig, error)
	GetServiceConfig(serviceID string) (*ServiceConfig, error)
}
