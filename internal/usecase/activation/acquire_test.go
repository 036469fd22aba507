package activation

import (
	"context"
	"errors"
	"testing"

	"github.com/otpgate/activation-service/internal/domain"
	activationdto "github.com/otpgate/activation-service/internal/usecase/dto/activation"
)

func getNumberInput() *activationdto.GetNumberInput {
	return &activationdto.GetNumberInput{UserID: "user-1", ServerID: "srv-1", ServiceID: "svc-1"}
}

func TestGetNumber_Success(t *testing.T) {
	repo := newFakeActivationRepo(100)
	provider := &fakeProvider{numberReplies: []string{"ACCESS_NUMBER:555:79991234567"}}
	queue := &fakeCancelQueue{}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(12.5, 0)}, provider, queue)

	out, err := uc.GetNumber(context.Background(), getNumberInput())
	if err != nil {
		t.Fatalf("GetNumber returned error: %v", err)
	}
	if out.Activation.PhoneNumber != "79991234567" {
		t.Errorf("phone = %q", out.Activation.PhoneNumber)
	}
	if out.Activation.ProviderActivationID != "555" {
		t.Errorf("provider activation id = %q", out.Activation.ProviderActivationID)
	}
	if out.NewBalance != 87.5 {
		t.Errorf("new balance = %v, want 87.5", out.NewBalance)
	}
	if out.APIStatus != "ACCESS_NUMBER" {
		t.Errorf("api status = %q", out.APIStatus)
	}
	if len(queue.enqueued) != 0 {
		t.Errorf("enqueued %d surplus numbers, want 0", len(queue.enqueued))
	}
}

func TestGetNumber_InsufficientBalanceBeforeProviderCall(t *testing.T) {
	repo := newFakeActivationRepo(5)
	provider := &fakeProvider{numberReplies: []string{"ACCESS_NUMBER:1:79991234567"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(12.5, 0)}, provider, &fakeCancelQueue{})

	_, err := uc.GetNumber(context.Background(), getNumberInput())
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if provider.numberCalls != 0 {
		t.Errorf("provider called %d times, want 0", provider.numberCalls)
	}
	if repo.createCalls != 0 {
		t.Errorf("debit attempted %d times, want 0", repo.createCalls)
	}
}

func TestGetNumber_NoNumberWithoutRetries(t *testing.T) {
	repo := newFakeActivationRepo(100)
	provider := &fakeProvider{numberReplies: []string{"NO_NUMBER"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	_, err := uc.GetNumber(context.Background(), getNumberInput())
	if !errors.Is(err, domain.ErrNoNumber) {
		t.Fatalf("err = %v, want ErrNoNumber", err)
	}
	if provider.numberCalls != 1 {
		t.Errorf("provider called %d times, want 1", provider.numberCalls)
	}
}

func TestGetNumber_FanOutRetiresSurplusWins(t *testing.T) {
	repo := newFakeActivationRepo(100)
	provider := &fakeProvider{numberReplies: []string{
		"NO_NUMBER",
		"ACCESS_NUMBER:11:79990000001",
		"ACCESS_NUMBER:22:79990000002",
		"ACCESS_NUMBER:33:79990000003",
	}}
	queue := &fakeCancelQueue{}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(4), service: testService(10, 30)}, provider, queue)

	out, err := uc.GetNumber(context.Background(), getNumberInput())
	if err != nil {
		t.Fatalf("GetNumber returned error: %v", err)
	}

	// 1 initial attempt + min(retryCount-1, 3) speculative repeats.
	if provider.numberCalls != 4 {
		t.Errorf("provider called %d times, want 4", provider.numberCalls)
	}
	if repo.createCalls != 1 {
		t.Errorf("activations created %d, want exactly 1", repo.createCalls)
	}
	if len(queue.enqueued) != 2 {
		t.Fatalf("enqueued %d surplus numbers, want 2", len(queue.enqueued))
	}
	for _, surplus := range queue.enqueued {
		if surplus == out.Activation.ProviderActivationID {
			t.Errorf("primary win %q was also enqueued for retirement", surplus)
		}
	}
}

func TestGetNumber_FanOutCapped(t *testing.T) {
	repo := newFakeActivationRepo(100)
	provider := &fakeProvider{numberReplies: []string{"NO_NUMBER"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(10), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	_, err := uc.GetNumber(context.Background(), getNumberInput())
	if !errors.Is(err, domain.ErrNoNumber) {
		t.Fatalf("err = %v, want ErrNoNumber", err)
	}
	// 1 initial + capped 3 repeats even for retryCount=10.
	if provider.numberCalls != 4 {
		t.Errorf("provider called %d times, want 4", provider.numberCalls)
	}
}

func TestGetNumber_DebitRaceEnqueuesWonNumber(t *testing.T) {
	repo := newFakeActivationRepo(100)
	repo.debitErr = domain.ErrInsufficientBalance
	provider := &fakeProvider{numberReplies: []string{"ACCESS_NUMBER:777:79991234567"}}
	queue := &fakeCancelQueue{}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1), service: testService(10, 0)}, provider, queue)

	_, err := uc.GetNumber(context.Background(), getNumberInput())
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != "777" {
		t.Errorf("won number not enqueued after debit failure: %v", queue.enqueued)
	}
}

func TestGetNumber_UnparseableReplyFailsFast(t *testing.T) {
	repo := newFakeActivationRepo(100)
	provider := &fakeProvider{numberReplies: []string{"SOMETHING_ODD"}}
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(4), service: testService(10, 0)}, provider, &fakeCancelQueue{})

	_, err := uc.GetNumber(context.Background(), getNumberInput())
	if err == nil {
		t.Fatalf("expected error for unparseable reply")
	}
	// No fan-out on an unparseable reply, only an explicit NO_NUMBER repeats.
	if provider.numberCalls != 1 {
		t.Errorf("provider called %d times, want 1", provider.numberCalls)
	}
}

func TestGetNumber_UnknownService(t *testing.T) {
	repo := newFakeActivationRepo(100)
	uc := newTestUsecase(repo, &fakeCatalog{server: testServer(1)}, &fakeProvider{}, &fakeCancelQueue{})

	_, err := uc.GetNumber(context.Background(), getNumberInput())
	if !errors.Is(err, domain.ErrServiceNotFound) {
		t.Fatalf("err = %v, want ErrServiceNotFound", err)
	}
}
