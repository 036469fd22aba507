package activation

import (
	"context"
	"log/slog"

	"github.com/otpgate/activation-service/internal/domain"
	publisher "github.com/otpgate/activation-service/internal/infrastructure/kafka"
	"github.com/otpgate/activation-service/internal/infrastructure/metrics"
	"github.com/otpgate/activation-service/internal/usecase/cancelqueue"
	activationdto "github.com/otpgate/activation-service/internal/usecase/dto/activation"
)

type ActivationUsecase interface {
	GetNumber(ctx context.Context, input *activationdto.GetNumberInput) (*activationdto.ActivationOutput, error)
	GetMessage(ctx context.Context, activationID string) (*activationdto.PollOutput, error)
	NextSMS(ctx context.Context, activationID string) (*activationdto.NextSMSOutput, error)
	CancelNumber(ctx context.Context, activationID string) (*activationdto.CancelOutput, error)
}

type DefaultActivationUsecase struct {
	ActivationRepo domain.ActivationRepository
	Catalog        domain.CatalogRepository
	Provider       domain.ProviderGateway
	CancelQueue    cancelqueue.Service
	Publisher      *publisher.KafkaPublisher
	Metrics        *metrics.ActivationMetrics
}

func NewDefaultActivationUsecase(
	activationRepo domain.ActivationRepository,
	catalog domain.CatalogRepository,
	provider domain.ProviderGateway,
	cancelQueue cancelqueue.Service,
	kafkaPublisher *publisher.KafkaPublisher,
	activationMetrics *metrics.ActivationMetrics) *DefaultActivationUsecase {

	return &DefaultActivationUsecase{
		ActivationRepo: activationRepo,
		Catalog:        catalog,
		Provider:       provider,
		CancelQueue:    cancelQueue,
		Publisher:      kafkaPublisher,
		Metrics:        activationMetrics,
	}
}

// publishStage sends a lifecycle event without blocking the caller path.
func (uc *DefaultActivationUsecase) publishStage(stage string, activation *domain.Activation) {
	if uc.Publisher == nil {
		return
	}
	go func(event publisher.ActivationEvent) {
		if err := uc.Publisher.PublishActivation(event); err != nil {
			slog.Error("failed to publish kafka activation event", "stage", stage, "error", err.Error())
		}
	}(publisher.ActivationEvent{
		ActivationID: activation.ID,
		UserID:       activation.UserID,
		ServerID:     activation.ServerID,
		ServiceID:    activation.ServiceID,
		PhoneNumber:  activation.PhoneNumber,
		Price:        activation.Price,
		Stage:        stage,
	})
}

// catalogPair loads and cross-checks the server/service profiles for an
// activation or an acquisition request.
func (uc *DefaultActivationUsecase) catalogPair(serverID, serviceID string) (*domain.ServerConfig, *domain.ServiceConfig, error) {
	server, err := uc.Catalog.GetServerConfig(serverID)
	if err != nil {
		return nil, nil, err
	}
	service, err := uc.Catalog.GetServiceConfig(serviceID)
	if err != nil {
		return nil, nil, err
	}
	if service.ServerID != server.ID {
		return nil, nil, domain.ErrServiceNotFound
	}
	return server, service, nil
}
