package activation

import (
	"context"
	"sync"

	"github.com/otpgate/activation-service/internal/domain"
)

// fakeActivationRepo is an in-memory ActivationRepository with the same
// exactly-once refund semantics as the real one.
type fakeActivationRepo struct {
	mu          sync.Mutex
	balance     float64
	activations map[string]*domain.Activation

	createCalls int
	refundCalls int
	debitErr    error
}

func newFakeActivationRepo(balance float64) *fakeActivationRepo {
	return &fakeActivationRepo{
		balance:     balance,
		activations: make(map[string]*domain.Activation),
	}
}

func (r *fakeActivationRepo) CreateWithDebit(activation *domain.Activation) (*domain.Activation, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.debitErr != nil {
		return nil, 0, r.debitErr
	}
	if r.balance < activation.Price {
		return nil, 0, domain.ErrInsufficientBalance
	}
	r.balance -= activation.Price
	stored := *activation
	r.activations[activation.ID] = &stored
	return &stored, r.balance, nil
}

func (r *fakeActivationRepo) CancelWithRefund(activationID string) (bool, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refundCalls++
	activation, ok := r.activations[activationID]
	if !ok {
		return false, 0, domain.ErrActivationNotFound
	}
	if activation.Status != domain.StatusActive {
		return false, r.balance, nil
	}
	activation.Status = domain.StatusCancelled
	r.balance += activation.Price
	return true, r.balance, nil
}

func (r *fakeActivationRepo) AppendMessage(activationID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	activation, ok := r.activations[activationID]
	if !ok {
		return domain.ErrActivationNotFound
	}
	for _, msg := range activation.Messages {
		if msg.Text == text {
			return nil
		}
	}
	activation.Messages = append(activation.Messages, domain.ActivationMessage{Text: text})
	activation.HasOtpReceived = true
	return nil
}

func (r *fakeActivationRepo) GetByID(activationID string) (*domain.Activation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	activation, ok := r.activations[activationID]
	if !ok {
		return nil, domain.ErrActivationNotFound
	}
	cloned := *activation
	return &cloned, nil
}

func (r *fakeActivationRepo) GetBalance(userID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance, nil
}

type fakeCatalog struct {
	server  *domain.ServerConfig
	service *domain.ServiceConfig
}

func (c *fakeCatalog) GetServerConfig(serverID string) (*domain.ServerConfig, error) {
	if c.server == nil || c.server.ID != serverID {
		return nil, domain.ErrServerNotFound
	}
	return c.server, nil
}

func (c *fakeCatalog) GetServiceConfig(serviceID string) (*domain.ServiceConfig, error) {
	if c.service == nil || c.service.ID != serviceID {
		return nil, domain.ErrServiceNotFound
	}
	return c.service, nil
}

// fakeProvider replays scripted responses per endpoint. Responses are
// consumed in call order; the last one repeats once the script runs out.
type fakeProvider struct {
	mu sync.Mutex

	numberReplies  []string
	numberErr      error
	messageReplies []string
	messageErr     error
	nextReply      string
	nextErr        error
	cancelReply    string
	cancelErr      error

	numberCalls  int
	messageCalls int
	nextCalls    int
	cancelCalls  int
}

func takeReply(replies []string, call int) string {
	if len(replies) == 0 {
		return ""
	}
	if call < len(replies) {
		return replies[call]
	}
	return replies[len(replies)-1]
}

func (p *fakeProvider) GetNumber(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := p.numberCalls
	p.numberCalls++
	if p.numberErr != nil {
		return "", p.numberErr
	}
	return takeReply(p.numberReplies, call), nil
}

func (p *fakeProvider) GetMessage(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig, activationID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	call := p.messageCalls
	p.messageCalls++
	if p.messageErr != nil {
		return "", p.messageErr
	}
	return takeReply(p.messageReplies, call), nil
}

func (p *fakeProvider) NextMessage(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig, activationID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextCalls++
	return p.nextReply, p.nextErr
}

func (p *fakeProvider) Cancel(ctx context.Context, server *domain.ServerConfig, service *domain.ServiceConfig, activationID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelCalls++
	return p.cancelReply, p.cancelErr
}

// fakeCancelQueue records enqueued surplus numbers.
type fakeCancelQueue struct {
	mu       sync.Mutex
	enqueued []string
	err      error
}

func (q *fakeCancelQueue) EnqueueSurplus(server *domain.ServerConfig, service *domain.ServiceConfig, providerActivationID, phoneNumber string) (*domain.PendingCancellation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.enqueued = append(q.enqueued, providerActivationID)
	return &domain.PendingCancellation{ID: "pc-" + providerActivationID, ActivationID: providerActivationID}, nil
}

func (q *fakeCancelQueue) SweepDue(ctx context.Context) error { return nil }

func testServer(retryCount int) *domain.ServerConfig {
	return &domain.ServerConfig{
		ID:                "srv-1",
		Name:              "test provider",
		ResponseFormat:    domain.FormatText,
		AutoCancelMinutes: 20,
		RetryCount:        retryCount,
	}
}

func testService(price float64, embargoSeconds int) *domain.ServiceConfig {
	return &domain.ServiceConfig{
		ID:                   "svc-1",
		ServerID:             "srv-1",
		ServiceCode:          "tg",
		CountryCode:          "7",
		FinalPrice:           price,
		CancelDisableSeconds: embargoSeconds,
	}
}

func newTestUsecase(repo *fakeActivationRepo, catalog *fakeCatalog, provider *fakeProvider, queue *fakeCancelQueue) *DefaultActivationUsecase {
	return NewDefaultActivationUsecase(repo, catalog, provider, queue, nil, nil)
}
