// Package metrics exposes the Prometheus collectors recording digest
// verification activity: verdict counts, challenge issuance, and retry
// pressure on the nonce table.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type authMetrics struct {
	verdicts        *prometheus.CounterVec
	verifyLatency   prometheus.Histogram
	challengesTotal prometheus.Counter
	challengeRetry  *prometheus.CounterVec
	tableSlotsUsed  prometheus.Gauge
}

var (
	once     sync.Once
	registry *authMetrics
)

// Auth returns the lazily-initialised digest-authentication metrics
// registry, registering its collectors with the default registerer on
// first use.
func Auth() *authMetrics {
	once.Do(func() {
		registry = &authMetrics{
			verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "digestd",
				Subsystem: "auth",
				Name:      "verdicts_total",
				Help:      "Total digest verification attempts segmented by verdict.",
			}, []string{"verdict"}),
			verifyLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "digestd",
				Subsystem: "auth",
				Name:      "verify_duration_seconds",
				Help:      "Latency distribution for Verifier.Verify calls.",
				Buckets:   prometheus.DefBuckets,
			}),
			challengesTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "digestd",
				Subsystem: "auth",
				Name:      "challenges_total",
				Help:      "Total WWW-Authenticate challenges issued.",
			}),
			challengeRetry: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "digestd",
				Subsystem: "auth",
				Name:      "challenge_retries_total",
				Help:      "Count of nonce-slot collisions encountered while issuing a challenge.",
			}, []string{"outcome"}),
			tableSlotsUsed: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "digestd",
				Subsystem: "auth",
				Name:      "nonce_table_slots_occupied",
				Help:      "Approximate count of occupied nonce-nc table slots, sampled periodically.",
			}),
		}
		prometheus.MustRegister(
			registry.verdicts,
			registry.verifyLatency,
			registry.challengesTotal,
			registry.challengeRetry,
			registry.tableSlotsUsed,
		)
	})
	return registry
}

// ObserveVerdict records one verification outcome and its latency.
func (m *authMetrics) ObserveVerdict(verdict string, d time.Duration) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(verdict).Inc()
	m.verifyLatency.Observe(d.Seconds())
}

// RecordChallengeIssued increments the challenge counter.
func (m *authMetrics) RecordChallengeIssued() {
	if m == nil {
		return
	}
	m.challengesTotal.Inc()
}

// RecordChallengeRetry records whether a nonce-slot collision was
// eventually resolved ("resolved") or exhausted all attempts ("exhausted").
func (m *authMetrics) RecordChallengeRetry(outcome string) {
	if m == nil {
		return
	}
	m.challengeRetry.WithLabelValues(outcome).Inc()
}

// SetTableSlotsUsed updates the occupied-slots gauge.
func (m *authMetrics) SetTableSlotsUsed(n int) {
	if m == nil {
		return
	}
	m.tableSlotsUsed.Set(float64(n))
}
