package models

import (
	"time"

	"github.com/otpgate/activation-service/internal/domain"
)

type PendingCancellationModel struct {
	ID           string                           `gorm:"primaryKey"`
	ActivationID string                           `gorm:"index"`
	PhoneNumber  string
	ServerID     string                           `gorm:"type:uuid"`
	ServiceID    string                           `gorm:"type:uuid"`
	Status       domain.PendingCancellationStatus `gorm:"index:idx_pending_due"`
	CancelAfter  time.Time                        `gorm:"index:idx_pending_due"`
	Attempts     int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (PendingCancellationModel) TableName() string {
	return "pending_cancellations"
}
