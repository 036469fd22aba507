package background

import (
	"context"
	"log"
	"time"

	"github.com/otpgate/activation-service/internal/usecase/cancelqueue"
)

type BackgroundTasks struct {
	CancelQueue cancelqueue.Service
}

func NewBackgroundTasks(cancelQueue cancelqueue.Service) *BackgroundTasks {
	return &BackgroundTasks{
		CancelQueue: cancelQueue,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	go bt.startPendingCancellationSweep(ctx)
}

func (bt *BackgroundTasks) startPendingCancellationSweep(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := bt.CancelQueue.SweepDue(ctx); err != nil {
				log.Printf("Pending cancellation sweep error: %v\n", err)
			}
		}
	}
}
