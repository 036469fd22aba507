package activation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/otpgate/activation-service/internal/domain"
)

func seedActivation(repo *fakeActivationRepo, createdAt time.Time) *domain.Activation {
	activation := &domain.Activation{
		ID:                   "act-1",
		UserID:               "user-1",
		ServerID:             "srv-1",
		ServiceID:            "svc-1",
		ProviderActivationID: "555",
		PhoneNumber:          "79991234567",
		Price:                10,
		Status:               domain.StatusActive,
		CreatedAt:            createdAt,
	}
	repo.activations[activation.ID] = activation
	return activation
}

func TestGetMessage_Waiting(t *testing.T) {
	repo := newFakeActivationRepo(90)
	seedActivation(repo, time.Now())
	provider := &fakeProvider{messageReplies: []string{"STATUS_WAIT_CODE"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	out, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("GetMessage returned error: %v", err)
	}
	if !out.Waiting || out.Received {
		t.Errorf("got %+v, want waiting", out)
	}
}

func TestGetMessage_ReceivedStoresCode(t *testing.T) {
	repo := newFakeActivationRepo(90)
	seedActivation(repo, time.Now())
	provider := &fakeProvider{messageReplies: []string{"STATUS_OK:482913"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	out, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("GetMessage returned error: %v", err)
	}
	if !out.Received || out.Message != "482913" || !out.HasOtp {
		t.Errorf("got %+v, want received 482913", out)
	}

	stored, _ := repo.GetByID("act-1")
	if !stored.HasOtpReceived || len(stored.Messages) != 1 {
		t.Errorf("stored activation = %+v, want one message and has_otp", stored)
	}
}

func TestGetMessage_RepeatedPollsIdempotent(t *testing.T) {
	repo := newFakeActivationRepo(90)
	seedActivation(repo, time.Now())
	provider := &fakeProvider{messageReplies: []string{"STATUS_OK:482913"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	for i := 0; i < 3; i++ {
		out, err := uc.GetMessage(context.Background(), "act-1")
		if err != nil {
			t.Fatalf("poll %d returned error: %v", i, err)
		}
		if !out.Received || out.Message != "482913" {
			t.Fatalf("poll %d got %+v", i, out)
		}
	}

	stored, _ := repo.GetByID("act-1")
	if len(stored.Messages) != 1 {
		t.Errorf("stored %d messages, want 1", len(stored.Messages))
	}
}

func TestGetMessage_CancelledActivationShortCircuits(t *testing.T) {
	repo := newFakeActivationRepo(100)
	activation := seedActivation(repo, time.Now())
	activation.Status = domain.StatusCancelled
	provider := &fakeProvider{}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	out, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("GetMessage returned error: %v", err)
	}
	if !out.Cancelled || out.APIStatus != "STATUS_CANCEL" {
		t.Errorf("got %+v, want cancelled", out)
	}
	if provider.messageCalls != 0 {
		t.Errorf("provider polled %d times for a closed activation", provider.messageCalls)
	}
}

func TestGetMessage_AutoExpiryRefundsExactlyOnce(t *testing.T) {
	repo := newFakeActivationRepo(90)
	seedActivation(repo, time.Now().Add(-21*time.Minute))
	provider := &fakeProvider{cancelReply: "ACCESS_CANCEL"}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	out, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("GetMessage returned error: %v", err)
	}
	if !out.Cancelled || !out.AutoCancelled {
		t.Fatalf("got %+v, want auto-cancelled", out)
	}
	if out.NewBalance == nil || *out.NewBalance != 100 {
		t.Fatalf("refund balance = %v, want 100", out.NewBalance)
	}
	if provider.cancelCalls != 1 {
		t.Errorf("provider cancel called %d times, want 1", provider.cancelCalls)
	}

	// A second poll sees the closed activation and must not refund again.
	out2, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("second poll returned error: %v", err)
	}
	if !out2.Cancelled || out2.NewBalance != nil {
		t.Errorf("second poll = %+v, want cancelled without a second refund", out2)
	}
	if repo.balance != 100 {
		t.Errorf("balance = %v, want 100 after exactly one refund", repo.balance)
	}
}

func TestGetMessage_NoAutoExpiryAfterCodeReceived(t *testing.T) {
	repo := newFakeActivationRepo(90)
	activation := seedActivation(repo, time.Now().Add(-2*time.Hour))
	activation.HasOtpReceived = true
	provider := &fakeProvider{messageReplies: []string{"STATUS_WAIT_CODE"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	out, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("GetMessage returned error: %v", err)
	}
	if out.Cancelled || out.AutoCancelled {
		t.Errorf("got %+v, activation with a code must not auto-expire", out)
	}
}

func TestGetMessage_ProviderCancelTriggersRefund(t *testing.T) {
	repo := newFakeActivationRepo(90)
	seedActivation(repo, time.Now())
	provider := &fakeProvider{messageReplies: []string{"STATUS_CANCEL"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	out, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("GetMessage returned error: %v", err)
	}
	if !out.Cancelled {
		t.Fatalf("got %+v, want cancelled", out)
	}
	if out.NewBalance == nil || *out.NewBalance != 100 {
		t.Errorf("refund balance = %v, want 100", out.NewBalance)
	}
}

func TestGetMessage_ProtocolErrorSurfaced(t *testing.T) {
	repo := newFakeActivationRepo(90)
	seedActivation(repo, time.Now())
	provider := &fakeProvider{messageReplies: []string{"NO_ACTIVATION"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	_, err := uc.GetMessage(context.Background(), "act-1")
	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if provErr.Kind != "NO_ACTIVATION" {
		t.Errorf("error kind = %q", provErr.Kind)
	}

	stored, _ := repo.GetByID("act-1")
	if stored.Status != domain.StatusActive {
		t.Errorf("protocol error must not mutate the activation, status = %v", stored.Status)
	}
}

func TestGetMessage_WaitRetryCarriesPreviousCode(t *testing.T) {
	repo := newFakeActivationRepo(90)
	seedActivation(repo, time.Now())
	provider := &fakeProvider{messageReplies: []string{"STATUS_WAIT_RETRY:482913"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	out, err := uc.GetMessage(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("GetMessage returned error: %v", err)
	}
	if !out.WaitingRetry || out.LastCode != "482913" {
		t.Errorf("got %+v, want waiting_retry with last code", out)
	}
}

func TestGetMessage_UnknownActivation(t *testing.T) {
	repo := newFakeActivationRepo(90)
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, &fakeProvider{}, &fakeCancelQueue{})

	_, err := uc.GetMessage(context.Background(), "missing")
	if !errors.Is(err, domain.ErrActivationNotFound) {
		t.Fatalf("err = %v, want ErrActivationNotFound", err)
	}
}
