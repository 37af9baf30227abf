// Package metrics registers the broker's Prometheus collectors on the default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "otpbroker"

var (
	providerRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Number provider API calls by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	providerRequestDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of number provider API calls.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	pollCyclesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Activation poll cycles by outcome.",
		},
		[]string{"outcome"},
	)

	pollItemsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_items_total",
			Help:      "Allocations inspected by poll cycles, by classified result.",
		},
		[]string{"result"},
	)

	pollCycleDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a full activation poll cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	providerBalanceGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "provider_balance",
			Help:      "Last account balance reported by the number provider.",
		},
	)

	relayCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_notifications_total",
			Help:      "Notifications sent to chat users by outcome.",
		},
		[]string{"outcome"},
	)
)

// Outcome labels shared by the counters.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeDecline = "declined"
)

// ObserveProviderCall records one provider API call.
func ObserveProviderCall(action, outcome string, elapsed time.Duration) {
	providerRequestsCounter.WithLabelValues(action, outcome).Inc()
	providerRequestDurationHist.WithLabelValues(action).Observe(elapsed.Seconds())
}

// SetProviderBalance records the latest balance reading.
func SetProviderBalance(balance float64) {
	providerBalanceGauge.Set(balance)
}

// ObservePollCycle records a finished cycle and the per-result item counts.
func ObservePollCycle(failed bool, elapsed time.Duration, items map[string]int) {
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeError
	}
	pollCyclesCounter.WithLabelValues(outcome).Inc()
	pollCycleDurationHist.Observe(elapsed.Seconds())
	for result, n := range items {
		if n > 0 {
			pollItemsCounter.WithLabelValues(result).Add(float64(n))
		}
	}
}

// ObserveRelay records one notification attempt.
func ObserveRelay(err error) {
	if err != nil {
		relayCounter.WithLabelValues(OutcomeError).Inc()
		return
	}
	relayCounter.WithLabelValues(OutcomeOK).Inc()
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
