package mappers

import (
	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/models"
)

func ToDomainPendingCancellation(model *models.PendingCancellationModel) *domain.PendingCancellation {
	return &domain.PendingCancellation{
		ID:           model.ID,
		ActivationID: model.ActivationID,
		PhoneNumber:  model.PhoneNumber,
		ServerID:     model.ServerID,
		ServiceID:    model.ServiceID,
		Status:       model.Status,
		CancelAfter:  model.CancelAfter,
		Attempts:     model.Attempts,
		LastError:    model.LastError,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func ToGORMPendingCancellation(pc *domain.PendingCancellation) *models.PendingCancellationModel {
	return &models.PendingCancellationModel{
		ID:           pc.ID,
		ActivationID: pc.ActivationID,
		PhoneNumber:  pc.PhoneNumber,
		ServerID:     pc.ServerID,
		ServiceID:    pc.ServiceID,
		Status:       pc.Status,
		CancelAfter:  pc.CancelAfter,
		Attempts:     pc.Attempts,
		LastError:    pc.LastError,
		CreatedAt:    pc.CreatedAt,
		UpdatedAt:    pc.UpdatedAt,
	}
}
