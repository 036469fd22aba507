package postgres

import (
	"log"

	"github.com/otpgate/activation-service/internal/config"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func MustInitDB(cfg *config.ActivationConfig) *gorm.DB {
	dsn := cfg.ActivationDB.Dsn
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to init db: %v\n", err.Error())
	}

	db.AutoMigrate(
		&models.ServerConfigModel{},
		&models.ServiceConfigModel{},
		&models.WalletModel{},
		&models.ActivationModel{},
		&models.ActivationMessageModel{},
		&models.PendingCancellationModel{},
	)

	return db
}
