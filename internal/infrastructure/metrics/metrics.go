package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ActivationMetrics covers the whole number lifecycle: acquisition,
// fan-out, polling and surplus retirement.
type ActivationMetrics struct {
	AcquisitionsTotal       prometheus.CounterVec
	FanoutAttemptsTotal     prometheus.CounterVec
	SurplusQueuedTotal      prometheus.CounterVec
	CancellationsTotal      prometheus.CounterVec
	PollResultsTotal        prometheus.CounterVec
	ProviderCallDuration    prometheus.HistogramVec
	PendingCancelSweepTotal prometheus.CounterVec
}

func NewActivationMetrics() *ActivationMetrics {
	return &ActivationMetrics{
		AcquisitionsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_acquisitions_total",
				Help: "Number acquisition attempts by outcome (success, no_number, unparseable)",
			},
			[]string{"server_id", "outcome"},
		),

		FanoutAttemptsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_fanout_attempts_total",
				Help: "Speculative parallel acquisition attempts by outcome",
			},
			[]string{"server_id", "outcome"},
		),

		SurplusQueuedTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_surplus_queued_total",
				Help: "Over-provisioned numbers handed to the cancellation queue",
			},
			[]string{"server_id"},
		),

		CancellationsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_cancellations_total",
				Help: "Activation cancellations by reason (explicit, auto_expired, provider)",
			},
			[]string{"server_id", "reason"},
		),

		PollResultsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_poll_results_total",
				Help: "OTP poll cycles by classified result kind",
			},
			[]string{"server_id", "kind"},
		),

		ProviderCallDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "activation_provider_call_duration_seconds",
				Help:    "Upstream provider call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"server_id", "endpoint"},
		),

		PendingCancelSweepTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activation_pending_cancel_sweep_total",
				Help: "Pending-cancellation sweep attempts by outcome (cancelled, failed)",
			},
			[]string{"server_id", "outcome"},
		),
	}
}
