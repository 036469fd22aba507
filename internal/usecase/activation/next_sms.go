package activation

import (
	"context"
	"time"

	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/provider/protocol"
	activationdto "github.com/otpgate/activation-service/internal/usecase/dto/activation"
)

// NextSMS tells the provider the current code was consumed and another one
// is expected. Purely a provider-side signal: local state stays untouched
// and polling simply continues.
func (uc *DefaultActivationUsecase) NextSMS(ctx context.Context, activationID string) (*activationdto.NextSMSOutput, error) {
	activation, err := uc.ActivationRepo.GetByID(activationID)
	if err != nil {
		return nil, err
	}
	server, service, err := uc.catalogPair(activation.ServerID, activation.ServiceID)
	if err != nil {
		return nil, err
	}

	if activation.Status != domain.StatusActive {
		return nil, domain.ErrActivationClosed
	}

	start := time.Now()
	raw, err := uc.Provider.NextMessage(ctx, server, service, activation.ProviderActivationID)
	uc.observeProviderCall(server.ID, "next_message", start)
	if err != nil {
		return nil, err
	}

	if token, ok := protocol.ErrorToken(raw); ok {
		return nil, domain.NewProviderError(token, token)
	}

	return &activationdto.NextSMSOutput{APIStatus: "ACCESS_RETRY_GET"}, nil
}
