package models

import (
	"time"

	"github.com/otpgate/activation-service/internal/domain"
)

type ActivationModel struct {
	ID                   string                  `gorm:"primaryKey;type:uuid"`
	UserID               string                  `gorm:"index:idx_user"`
	ServerID             string                  `gorm:"type:uuid"`
	ServiceID            string                  `gorm:"type:uuid"`
	ProviderActivationID string                  `gorm:"index:idx_provider_activation"`
	PhoneNumber          string
	Price                float64
	Status               domain.ActivationStatus `gorm:"index:idx_status_created"`
	HasOtpReceived       bool
	CreatedAt            time.Time               `gorm:"index:idx_status_created"`
	UpdatedAt            time.Time
	Messages             []ActivationMessageModel `gorm:"foreignKey:ActivationID;references:ID"`
}

func (ActivationModel) TableName() string {
	return "activations"
}

type ActivationMessageModel struct {
	ID           uint   `gorm:"primaryKey"`
	ActivationID string `gorm:"type:uuid;index:idx_activation_text,unique"`
	// Text is part of the unique key: appending the same message twice
	// must not duplicate it.
	Text       string `gorm:"index:idx_activation_text,unique"`
	ReceivedAt time.Time
}

func (ActivationMessageModel) TableName() string {
	return "activation_messages"
}
