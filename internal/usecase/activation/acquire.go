package activation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/otpgate/activation-service/internal/domain"
	"github.com/otpgate/activation-service/internal/provider/protocol"
	activationdto "github.com/otpgate/activation-service/internal/usecase/dto/activation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxFanout caps the speculative repeats fired after an explicit NO_NUMBER.
const maxFanout = 3

type acquireOutcome struct {
	assignment *protocol.Assignment
	noNumber   bool
	err        error
}

// GetNumber buys one number for the user. A provider-side "no number" answer
// triggers a bounded parallel fan-out; every speculative win beyond the first
// is retired through the cancellation queue.
func (uc *DefaultActivationUsecase) GetNumber(ctx context.Context, input *activationdto.GetNumberInput) (*activationdto.ActivationOutput, error) {
	if input.UserID == "" || input.ServerID == "" || input.ServiceID == "" {
		return nil, status.Error(codes.InvalidArgument, "userID, serverID and serviceID are required")
	}

	server, service, err := uc.catalogPair(input.ServerID, input.ServiceID)
	if err != nil {
		return nil, err
	}

	// Business rules are checked before any upstream call is made; the
	// transactional debit still carries its own guard against races.
	balance, err := uc.ActivationRepo.GetBalance(input.UserID)
	if err != nil || balance < service.FinalPrice {
		return nil, domain.ErrInsufficientBalance
	}

	outcome := uc.singleAttempt(ctx, server, service)
	switch {
	case outcome.err != nil:
		// Transient network failure or an unparseable reply: fail fast,
		// retrying a purchase risks double-charging.
		uc.acquisitionMetric(server.ID, "unparseable")
		return nil, fmt.Errorf("acquisition failed: %w", outcome.err)

	case outcome.assignment != nil:
		uc.acquisitionMetric(server.ID, "success")
		return uc.finishAcquisition(input, server, service, outcome.assignment)
	}

	// Explicit NO_NUMBER. Providers frequently answer this while racing
	// other buyers, so repeat the same call in parallel when configured.
	if server.RetryCount <= 1 {
		uc.acquisitionMetric(server.ID, "no_number")
		return nil, domain.ErrNoNumber
	}

	wins := uc.fanOut(ctx, server, service, min(server.RetryCount-1, maxFanout))
	if len(wins) == 0 {
		uc.acquisitionMetric(server.ID, "no_number")
		return nil, domain.ErrNoNumber
	}

	// The lowest attempt index wins. Results are collected into a slice
	// indexed by goroutine and scanned in order after the join, so the
	// choice is deterministic regardless of arrival order.
	primary := wins[0]
	for _, surplus := range wins[1:] {
		if _, err := uc.CancelQueue.EnqueueSurplus(server, service, surplus.ActivationID, surplus.PhoneNumber); err != nil {
			slog.Error("failed to enqueue surplus number",
				"server_id", server.ID,
				"provider_activation_id", surplus.ActivationID,
				"error", err.Error())
		}
	}

	uc.acquisitionMetric(server.ID, "success")
	return uc.finishAcquisition(input, server, service, primary)
}

// singleAttempt performs one number-assignment call and classifies the reply.
func (uc *DefaultActivationUsecase) singleAttempt(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig) acquireOutcome {
	start := time.Now()
	raw, err := uc.Provider.GetNumber(ctx, server, service)
	uc.observeProviderCall(server.ID, "get_number", start)
	if err != nil {
		return acquireOutcome{err: err}
	}

	if assignment, ok := protocol.ParseAssignment(raw, server.ResponseFormat); ok {
		return acquireOutcome{assignment: assignment}
	}
	if protocol.IsNoNumber(raw) {
		return acquireOutcome{noNumber: true}
	}
	return acquireOutcome{err: fmt.Errorf("unparseable assignment response: %.100s", raw)}
}

// fanOut repeats the acquisition call n times concurrently and returns every
// successful assignment, in attempt order. Wait-for-all, not first-success:
// the losers must be identified so they can be retired.
func (uc *DefaultActivationUsecase) fanOut(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig, n int) []*protocol.Assignment {
	results := make([]acquireOutcome, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = uc.singleAttempt(ctx, server, service)
		}(i)
	}
	wg.Wait()

	wins := make([]*protocol.Assignment, 0, n)
	for _, outcome := range results {
		if outcome.assignment != nil {
			uc.fanoutMetric(server.ID, "success")
			wins = append(wins, outcome.assignment)
			continue
		}
		if outcome.noNumber {
			uc.fanoutMetric(server.ID, "no_number")
		} else {
			uc.fanoutMetric(server.ID, "failed")
		}
	}
	return wins
}

// finishAcquisition debits the user and persists the activation atomically.
// If the debit loses a race, the already-reserved number is handed to the
// cancellation queue instead of being orphaned on the provider side.
func (uc *DefaultActivationUsecase) finishAcquisition(
	input *activationdto.GetNumberInput,
	server *domain.ServerConfig,
	service *domain.ServiceConfig,
	assignment *protocol.Assignment) (*activationdto.ActivationOutput, error) {

	activation := &domain.Activation{
		ID:                   uuid.New().String(),
		UserID:               input.UserID,
		ServerID:             server.ID,
		ServiceID:            service.ID,
		ProviderActivationID: assignment.ActivationID,
		PhoneNumber:          assignment.PhoneNumber,
		Price:                service.FinalPrice,
		Status:               domain.StatusActive,
		CreatedAt:            time.Now(),
	}

	saved, newBalance, err := uc.ActivationRepo.CreateWithDebit(activation)
	if err != nil {
		if _, queueErr := uc.CancelQueue.EnqueueSurplus(server, service, assignment.ActivationID, assignment.PhoneNumber); queueErr != nil {
			slog.Error("failed to enqueue number after debit failure",
				"provider_activation_id", assignment.ActivationID,
				"error", queueErr.Error())
		}
		return nil, err
	}

	uc.publishStage("created", saved)

	return &activationdto.ActivationOutput{
		Activation: *saved,
		NewBalance: newBalance,
		APIStatus:  "ACCESS_NUMBER",
	}, nil
}

func (uc *DefaultActivationUsecase) acquisitionMetric(serverID, outcome string) {
	if uc.Metrics != nil {
		uc.Metrics.AcquisitionsTotal.WithLabelValues(serverID, outcome).Inc()
	}
}

func (uc *DefaultActivationUsecase) fanoutMetric(serverID, outcome string) {
	if uc.Metrics != nil {
		uc.Metrics.FanoutAttemptsTotal.WithLabelValues(serverID, outcome).Inc()
	}
}

func (uc *DefaultActivationUsecase) observeProviderCall(serverID, endpoint string, start time.Time) {
	if uc.Metrics != nil {
		uc.Metrics.ProviderCallDuration.WithLabelValues(serverID, endpoint).Observe(time.Since(start).Seconds())
	}
}
