package mappers

import (
	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/models"
)

func ToDomainActivation(model *models.ActivationModel) *domain.Activation {
	messages := make([]domain.ActivationMessage, len(model.Messages))
	for i, m := range model.Messages {
		messages[i] = domain.ActivationMessage{
			Text:       m.Text,
			ReceivedAt: m.ReceivedAt,
		}
	}
	return &domain.Activation{
		ID:                   model.ID,
		UserID:               model.UserID,
		ServerID:             model.ServerID,
		ServiceID:            model.ServiceID,
		ProviderActivationID: model.ProviderActivationID,
		PhoneNumber:          model.PhoneNumber,
		Price:                model.Price,
		Status:               model.Status,
		HasOtpReceived:       model.HasOtpReceived,
		Messages:             messages,
		CreatedAt:            model.CreatedAt,
		UpdatedAt:            model.UpdatedAt,
	}
}

func ToGORMActivation(activation *domain.Activation) *models.ActivationModel {
	return &models.ActivationModel{
		ID:                   activation.ID,
		UserID:               activation.UserID,
		ServerID:             activation.ServerID,
		ServiceID:            activation.ServiceID,
		ProviderActivationID: activation.ProviderActivationID,
		PhoneNumber:          activation.PhoneNumber,
		Price:                activation.Price,
		Status:               activation.Status,
		HasOtpReceived:       activation.HasOtpReceived,
		CreatedAt:            activation.CreatedAt,
		UpdatedAt:            activation.UpdatedAt,
	}
}
