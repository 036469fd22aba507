package repository

import (
	"time"

	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/mappers"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultPendingCancellationRepository struct {
	DB *gorm.DB
}

func NewDefaultPendingCancellationRepository(db *gorm.DB) *DefaultPendingCancellationRepository {
	return &DefaultPendingCancellationRepository{DB: db}
}

func (r *DefaultPendingCancellationRepository) Create(pc *domain.PendingCancellation) error {
	return r.DB.Create(mappers.ToGORMPendingCancellation(pc)).Error
}

// MarkCancelled closes a row. The status guard keeps the PENDING->CANCELLED
// transition one-way even if two sweeps race on the same row.
func (r *DefaultPendingCancellationRepository) MarkCancelled(id string) error {
	return r.DB.Model(&models.PendingCancellationModel{}).
		Where("id = ? AND status = ?", id, domain.PendingCancelPending).
		Update("status", domain.PendingCancelCancelled).Error
}

func (r *DefaultPendingCancellationRepository) RecordFailure(id string, lastError string) error {
	return r.DB.Model(&models.PendingCancellationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		}).Error
}

func (r *DefaultPendingCancellationRepository) FindDue(limit int) ([]*domain.PendingCancellation, error) {
	var pendingModels []models.PendingCancellationModel
	err := r.DB.
		Where("status = ? AND cancel_after <= ?", domain.PendingCancelPending, time.Now()).
		Order("cancel_after ASC").
		Limit(limit).
		Find(&pendingModels).Error
	if err != nil {
		return nil, err
	}

	pending := make([]*domain.PendingCancellation, len(pendingModels))
	for i := range pendingModels {
		pending[i] = mappers.ToDomainPendingCancellation(&pendingModels[i])
	}
	return pending, nil
}
