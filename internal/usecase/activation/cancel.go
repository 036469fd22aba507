package activation

import (
	"context"
	"time"

	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/provider/protocol"
	activationdto "github.com/otpgate/activation-service/internal/usecase/dto/activation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CancelNumber explicitly retires an activation at the user's request.
// Local state only changes on a confirmed provider outcome: a refused or
// failed cancel leaves the paid reservation untouched.
func (uc *DefaultActivationUsecase) CancelNumber(ctx context.Context, activationID string) (*activationdto.CancelOutput, error) {
	if activationID == "" {
		return nil, status.Error(codes.InvalidArgument, "activationID is required")
	}

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

	// The cancel action is frozen for a provider-defined window after
	// creation; rejecting locally avoids a pointless upstream round trip.
	embargo := time.Duration(service.CancelDisableSeconds) * time.Second
	if time.Since(activation.CreatedAt) < embargo {
		return nil, domain.ErrEarlyCancelDenied
	}

	start := time.Now()
	raw, err := uc.Provider.Cancel(ctx, server, service, activation.ProviderActivationID)
	uc.observeProviderCall(server.ID, "cancel", start)
	if err != nil {
		return nil, err
	}

	outcome := protocol.ParseCancel(raw)
	switch outcome.Kind {
	case protocol.CancelError:
		return nil, domain.NewProviderError(outcome.ErrorKind, outcome.Status)
	case protocol.CancelStillActive:
		return nil, domain.NewProviderError("STILL_ACTIVE", outcome.Status)
	}

	refunded, newBalance, err := uc.ActivationRepo.CancelWithRefund(activation.ID)
	if err != nil {
		return nil, err
	}

	uc.cancellationMetric(server.ID, "explicit")
	uc.publishStage("cancelled", activation)

	return &activationdto.CancelOutput{
		Refunded:   refunded,
		NewBalance: newBalance,
		APIStatus:  "ACCESS_CANCEL",
	}, nil
}
