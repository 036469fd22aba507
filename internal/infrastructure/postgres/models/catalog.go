package models

import "time"

type ServerConfigModel struct {
	ID                string `gorm:"primaryKey;type:uuid"`
	Name              string
	GetNumberURL      string
	GetMessageURL     string
	NextMessageURL    string
	CancelURL         string
	ResponseFormat    string
	HeaderName        string
	HeaderValue       string
	OtpJSONPath       string
	AutoCancelMinutes int
	RetryCount        int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (ServerConfigModel) TableName() string {
	return "server_configs"
}

type ServiceConfigModel struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	ServerID             string `gorm:"type:uuid;index"`
	Name                 string
	ServiceCode          string
	CountryCode          string
	Operator             string
	FinalPrice           float64
	CancelDisableSeconds int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (ServiceConfigModel) TableName() string {
	return "service_configs"
}

type WalletModel struct {
	UserID    string  `gorm:"primaryKey"`
	Balance   float64 `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

func (WalletModel) TableName() string {
	return "wallets"
}
