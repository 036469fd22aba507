package repository

import (
	"errors"
	"time"

	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/mappers"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultActivationRepository struct {
	DB *gorm.DB
}

func NewDefaultActivationRepository(db *gorm.DB) *DefaultActivationRepository {
	return &DefaultActivationRepository{DB: db}
}

// CreateWithDebit debits the wallet and inserts the activation in one
// transaction. The debit carries its own balance guard so a concurrent
// purchase can never drive the balance negative.
func (r *DefaultActivationRepository) CreateWithDebit(activation *domain.Activation) (*domain.Activation, float64, error) {
	activationModel := mappers.ToGORMActivation(activation)
	var newBalance float64

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WalletModel{}).
			Where("user_id = ? AND balance >= ?", activation.UserID, activation.Price).
			Update("balance", gorm.Expr("balance - ?", activation.Price))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInsufficientBalance
		}

		if err := tx.Create(activationModel).Error; err != nil {
			return err
		}

		var wallet models.WalletModel
		if err := tx.First(&wallet, "user_id = ?", activation.UserID).Error; err != nil {
			return err
		}
		newBalance = wallet.Balance
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return mappers.ToDomainActivation(activationModel), newBalance, nil
}

// CancelWithRefund flips the activation to CANCELLED and credits the price
// back. The status guard makes the refund exactly-once: a second call finds
// nothing to flip and moves no money.
func (r *DefaultActivationRepository) CancelWithRefund(activationID string) (bool, float64, error) {
	var refunded bool
	var newBalance float64

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var activationModel models.ActivationModel
		if err := tx.First(&activationModel, "id = ?", activationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrActivationNotFound
			}
			return err
		}

		res := tx.Model(&models.ActivationModel{}).
			Where("id = ? AND status = ?", activationID, domain.StatusActive).
			Update("status", domain.StatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			refunded = false
			return nil
		}

		if err := tx.Model(&models.WalletModel{}).
			Where("user_id = ?", activationModel.UserID).
			Update("balance", gorm.Expr("balance + ?", activationModel.Price)).Error; err != nil {
			return err
		}

		var wallet models.WalletModel
		if err := tx.First(&wallet, "user_id = ?", activationModel.UserID).Error; err != nil {
			return err
		}
		newBalance = wallet.Balance
		refunded = true
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return refunded, newBalance, nil
}

func (r *DefaultActivationRepository) AppendMessage(activationID, text string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var message models.ActivationMessageModel
		if err := tx.Where(&models.ActivationMessageModel{ActivationID: activationID, Text: text}).
			Attrs(&models.ActivationMessageModel{ReceivedAt: time.Now()}).
			FirstOrCreate(&message).Error; err != nil {
			return err
		}

		return tx.Model(&models.ActivationModel{}).
			Where("id = ?", activationID).
			Update("has_otp_received", true).Error
	})
}

func (r *DefaultActivationRepository) GetByID(activationID string) (*domain.Activation, error) {
	var activationModel models.ActivationModel
	if err := r.DB.Preload("Messages", func(db *gorm.DB) *gorm.DB {
		return db.Order("received_at ASC")
	}).First(&activationModel, "id = ?", activationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrActivationNotFound
		}
		return nil, err
	}

	return mappers.ToDomainActivation(&activationModel), nil
}

func (r *DefaultActivationRepository) GetBalance(userID string) (float64, error) {
	var wallet models.WalletModel
	if err := r.DB.First(&wallet, "user_id = ?", userID).Error; err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}
