package activation

import (
	"context"
	"log/slog"
	"time"

	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/provider/protocol"
	activationdto "github.com/otpgate/activation-service/internal/usecase/dto/activation"
)

// GetMessage runs one poll cycle for an activation: auto-expiry first, then
// the provider's message endpoint, then the grammar, then the state change.
// It is stateless per call and safe to run concurrently for different
// activations.
func (uc *DefaultActivationUsecase) GetMessage(ctx context.Context, activationID string) (*activationdto.PollOutput, error) {
	activation, err := uc.ActivationRepo.GetByID(activationID)
	if err != nil {
		return nil, err
	}
	server, service, err := uc.catalogPair(activation.ServerID, activation.ServiceID)
	if err != nil {
		return nil, err
	}

	if activation.Status == domain.StatusCancelled {
		return &activationdto.PollOutput{
			Cancelled: true,
			HasOtp:    activation.HasOtpReceived,
			APIStatus: "STATUS_CANCEL",
		}, nil
	}

	if activation.Expired(time.Now(), server.AutoCancelMinutes) {
		return uc.autoExpire(ctx, activation, server, service)
	}

	start := time.Now()
	raw, err := uc.Provider.GetMessage(ctx, server, service, activation.ProviderActivationID)
	uc.observeProviderCall(server.ID, "get_message", start)
	if err != nil {
		return nil, err
	}

	result := protocol.ParseMessage(raw, server.ResponseFormat, server.OtpJSONPath)
	uc.pollMetric(server.ID, string(result.Kind))

	switch result.Kind {
	case protocol.MsgError:
		// Provider-protocol failure: surfaced verbatim, no local mutation.
		return nil, domain.NewProviderError(result.ErrorKind, result.Status)

	case protocol.MsgWaiting:
		return &activationdto.PollOutput{
			Waiting:   true,
			HasOtp:    activation.HasOtpReceived,
			APIStatus: result.Status,
		}, nil

	case protocol.MsgWaitingRetry:
		return &activationdto.PollOutput{
			WaitingRetry: true,
			LastCode:     result.LastCode,
			HasOtp:       activation.HasOtpReceived,
			APIStatus:    result.Status,
		}, nil

	case protocol.MsgCancelled:
		return uc.cancelledByProvider(activation, server, result.Status)

	case protocol.MsgReceived:
		if result.OTP == "" {
			// A "received" without a code is useless; keep polling.
			return &activationdto.PollOutput{
				Waiting:   true,
				HasOtp:    activation.HasOtpReceived,
				APIStatus: result.Status,
			}, nil
		}
		if err := uc.ActivationRepo.AppendMessage(activation.ID, result.OTP); err != nil {
			return nil, err
		}
		if !activation.HasOtpReceived {
			uc.publishStage("otp_received", activation)
		}
		return &activationdto.PollOutput{
			Received:  true,
			Message:   result.OTP,
			HasOtp:    true,
			APIStatus: result.Status,
		}, nil
	}

	return &activationdto.PollOutput{Waiting: true, APIStatus: result.Status}, nil
}

// autoExpire retires an activation that sat 20 minutes without a code. The
// provider cancel is best-effort; the refund is atomic and exactly-once.
func (uc *DefaultActivationUsecase) autoExpire(ctx context.Context, activation *domain.Activation, server *domain.ServerConfig, service *domain.ServiceConfig) (*activationdto.PollOutput, error) {
	if _, err := uc.Provider.Cancel(ctx, server, service, activation.ProviderActivationID); err != nil {
		slog.Warn("auto-expiry provider cancel failed",
			"activation_id", activation.ID,
			"error", err.Error())
	}

	refunded, newBalance, err := uc.ActivationRepo.CancelWithRefund(activation.ID)
	if err != nil {
		return nil, err
	}

	uc.cancellationMetric(server.ID, "auto_expired")
	uc.publishStage("auto_expired", activation)

	out := &activationdto.PollOutput{
		Cancelled:     true,
		AutoCancelled: true,
		APIStatus:     "STATUS_CANCEL",
	}
	if refunded {
		out.NewBalance = &newBalance
	}
	return out, nil
}

// cancelledByProvider mirrors an upstream STATUS_CANCEL into local state.
// The user never got a code, so the charge is refunded.
func (uc *DefaultActivationUsecase) cancelledByProvider(activation *domain.Activation, server *domain.ServerConfig, apiStatus string) (*activationdto.PollOutput, error) {
	refunded, newBalance, err := uc.ActivationRepo.CancelWithRefund(activation.ID)
	if err != nil {
		return nil, err
	}

	uc.cancellationMetric(server.ID, "provider")
	uc.publishStage("cancelled", activation)

	out := &activationdto.PollOutput{
		Cancelled: true,
		HasOtp:    activation.HasOtpReceived,
		APIStatus: apiStatus,
	}
	if refunded {
		out.NewBalance = &newBalance
	}
	return out, nil
}

func (uc *DefaultActivationUsecase) pollMetric(serverID, kind string) {
	if uc.Metrics != nil {
		uc.Metrics.PollResultsTotal.WithLabelValues(serverID, kind).Inc()
	}
}

func (uc *DefaultActivationUsecase) cancellationMetric(serverID, reason string) {
	if uc.Metrics != nil {
		uc.Metrics.CancellationsTotal.WithLabelValues(serverID, reason).Inc()
	}
}
