package mappers

import (
	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/infrastructure/postgres/models"
)

func ToDomainServerConfig(model *models.ServerConfigModel) *domain.ServerConfig {
	return &domain.ServerConfig{
		ID:                model.ID,
		Name:              model.Name,
		GetNumberURL:      model.GetNumberURL,
		GetMessageURL:     model.GetMessageURL,
		NextMessageURL:    model.NextMessageURL,
		CancelURL:         model.CancelURL,
		ResponseFormat:    domain.ResponseFormat(model.ResponseFormat),
		HeaderName:        model.HeaderName,
		HeaderValue:       model.HeaderValue,
		OtpJSONPath:       model.OtpJSONPath,
		AutoCancelMinutes: model.AutoCancelMinutes,
		RetryCount:        model.RetryCount,
	}
}

func ToDomainServiceConfig(model *models.ServiceConfigModel) *domain.ServiceConfig {
	return &domain.ServiceConfig{
		ID:                   model.ID,
		ServerID:             model.ServerID,
		Name:                 model.Name,
		ServiceCode:          model.ServiceCode,
		CountryCode:          model.CountryCode,
		Operator:             model.Operator,
		FinalPrice:           model.FinalPrice,
		CancelDisableSeconds: model.CancelDisableSeconds,
	}
}
