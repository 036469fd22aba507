package cancelqueue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aniladanir/retry"
	"github.com/jaevor/go-nanoid"
	"github.com/otpgate/activation-service/internal/domain"
	publisher "github.com/otpgate/activation-service/internal/infrastructure/kafka"
	"github.com/otpgate/activation-service/internal/infrastructure/metrics"
)

const (
	immediateCancelTimeout = 8 * time.Second
	sweepBatchSize         = 50
	sweepMaxAttempts       = 3
)

// Service owns surplus-number retirement: every speculative win that did not
// become the user's activation goes through here and nowhere near the caller.
type Service interface {
	// EnqueueSurplus persists a surplus number for deferred cancellation.
	// With a zero embargo it also fires one immediate, supervised cancel
	// attempt whose outcome lands on the row, never on the caller.
	EnqueueSurplus(server *domain.ServerConfig, service *domain.ServiceConfig, providerActivationID, phoneNumber string) (*domain.PendingCancellation, error)

	// SweepDue re-drives pending rows whose embargo has elapsed.
	SweepDue(ctx context.Context) error
}

type DefaultService struct {
	PendingRepo domain.PendingCancellationRepository
	Catalog     domain.CatalogRepository
	Provider    domain.ProviderGateway
	Publisher   *publisher.KafkaPublisher
	Metrics     *metrics.ActivationMetrics

	retrier *retry.Retrier
	logger  *slog.Logger
	newID   func() string
}

func NewDefaultService(
	pendingRepo domain.PendingCancellationRepository,
	catalog domain.CatalogRepository,
	provider domain.ProviderGateway,
	kafkaPublisher *publisher.KafkaPublisher,
	activationMetrics *metrics.ActivationMetrics,
	logger *slog.Logger) (*DefaultService, error) {

	retrier, err := retry.New(retry.WithMaxAttemps(sweepMaxAttempts))
	if err != nil {
		return nil, fmt.Errorf("encountered error when initializing retrier: %w", err)
	}

	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, fmt.Errorf("failed to init id generator: %w", err)
	}

	return &DefaultService{
		PendingRepo: pendingRepo,
		Catalog:     catalog,
		Provider:    provider,
		Publisher:   kafkaPublisher,
		Metrics:     activationMetrics,
		retrier:     retrier,
		logger:      logger,
		newID:       idGenerator,
	}, nil
}

func (s *DefaultService) EnqueueSurplus(server *domain.ServerConfig, service *domain.ServiceConfig, providerActivationID, phoneNumber string) (*domain.PendingCancellation, error) {
	embargo := time.Duration(service.CancelDisableSeconds) * time.Second
	pc := &domain.PendingCancellation{
		ID:           s.newID(),
		ActivationID: providerActivationID,
		PhoneNumber:  phoneNumber,
		ServerID:     server.ID,
		ServiceID:    service.ID,
		Status:       domain.PendingCancelPending,
		CancelAfter:  time.Now().Add(embargo),
		CreatedAt:    time.Now(),
	}

	if err := s.PendingRepo.Create(pc); err != nil {
		return nil, fmt.Errorf("failed to enqueue surplus number: %w", err)
	}
	if s.Metrics != nil {
		s.Metrics.SurplusQueuedTotal.WithLabelValues(server.ID).Inc()
	}

	// No embargo: try to retire the reservation right away. The attempt is
	// detached from the caller's request but its outcome is always written
	// back to the row, so nothing fails silently.
	if service.CancelDisableSeconds == 0 {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), immediateCancelTimeout)
			defer cancel()

			if err := s.attemptCancel(ctx, pc, server, service); err != nil {
				s.logger.Error("immediate surplus cancel failed",
					"pending_id", pc.ID,
					"activation_id", pc.ActivationID,
					"error", err.Error())
			}
		}()
	}

	return pc, nil
}

// attemptCancel runs one provider cancel call and applies the outcome to the
// queue row. Only an explicit provider confirmation closes the row.
func (s *DefaultService) attemptCancel(ctx context.Context, pc *domain.PendingCancellation, server *domain.ServerConfig, service *domain.ServiceConfig) error {
	raw, err := s.Provider.Cancel(ctx, server, service, pc.ActivationID)
	if err != nil {
		if repoErr := s.PendingRepo.RecordFailure(pc.ID, err.Error()); repoErr != nil {
			return repoErr
		}
		s.sweepMetric(server.ID, "failed")
		return err
	}

	switch {
	case cancelConfirmed(raw):
		if err := s.PendingRepo.MarkCancelled(pc.ID); err != nil {
			return err
		}
		s.sweepMetric(server.ID, "cancelled")
		s.publishRetired(pc)
		return nil
	case strings.Contains(raw, "NO_ACTIVATION"):
		// Nothing left to retire upstream; close the row.
		if err := s.PendingRepo.MarkCancelled(pc.ID); err != nil {
			return err
		}
		s.sweepMetric(server.ID, "cancelled")
		return nil
	default:
		if err := s.PendingRepo.RecordFailure(pc.ID, fmt.Sprintf("cancel not confirmed: %.100s", raw)); err != nil {
			return err
		}
		s.sweepMetric(server.ID, "failed")
		return fmt.Errorf("provider did not confirm cancel")
	}
}

func (s *DefaultService) SweepDue(ctx context.Context) error {
	due, err := s.PendingRepo.FindDue(sweepBatchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch due cancellations: %w", err)
	}

	for _, pc := range due {
		server, err := s.Catalog.GetServerConfig(pc.ServerID)
		if err != nil {
			s.logger.Error("sweep: unknown server for pending cancellation", "pending_id", pc.ID, "error", err.Error())
			continue
		}
		service, err := s.Catalog.GetServiceConfig(pc.ServiceID)
		if err != nil {
			s.logger.Error("sweep: unknown service for pending cancellation", "pending_id", pc.ID, "error", err.Error())
			continue
		}

		retryFunc := func(attempt int) (terminate bool) {
			attemptCtx, cancel := context.WithTimeout(ctx, immediateCancelTimeout)
			defer cancel()

			if err := s.attemptCancel(attemptCtx, pc, server, service); err != nil {
				s.logger.Warn("sweep cancel attempt failed",
					"pending_id", pc.ID,
					"attempt", attempt,
					"error", err.Error())
				return false
			}
			return true
		}

		// Bounded per sweep; a row that keeps failing stays PENDING and is
		// picked up again on the next tick.
		<-s.retrier.Retry(ctx, retryFunc, true)
	}

	return nil
}

func (s *DefaultService) publishRetired(pc *domain.PendingCancellation) {
	if s.Publisher == nil {
		return
	}
	go func(event publisher.ActivationEvent) {
		if err := s.Publisher.PublishActivation(event); err != nil {
			slog.Error("failed to publish kafka activation event", "stage", "surplus_retired", "error", err.Error())
		}
	}(publisher.ActivationEvent{
		ActivationID: pc.ActivationID,
		ServerID:     pc.ServerID,
		ServiceID:    pc.ServiceID,
		PhoneNumber:  pc.PhoneNumber,
		Stage:        "surplus_retired",
	})
}

func (s *DefaultService) sweepMetric(serverID, outcome string) {
	if s.Metrics != nil {
		s.Metrics.PendingCancelSweepTotal.WithLabelValues(serverID, outcome).Inc()
	}
}

// cancelConfirmed applies the surplus-retirement confirmation rule: only an
// explicit cancel token from the provider counts.
func cancelConfirmed(raw string) bool {
	return strings.Contains(raw, "ACCESS_CANCEL") || strings.Contains(raw, "STATUS_CANCEL")
}
