package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Verification outcomes recorded by the verification use case
const (
	OutcomeVerified         = "verified"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeRejected         = "rejected"
	OutcomeInconclusive     = "inconclusive"
	OutcomeError            = "error"
)

// VerificationMetrics holds the collectors for the settlement pipeline
type VerificationMetrics struct {
	verifications *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	settledGifts  *prometheus.CounterVec
}

// NewVerificationMetrics creates and registers the collectors. A nil registerer skips
// registration.
func NewVerificationMetrics(reg prometheus.Registerer) *VerificationMetrics {
	m := &VerificationMetrics{
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftchain",
			Name:      "verifications_total",
			Help:      "Transaction verification requests by chain and outcome.",
		}, []string{"chain", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "giftchain",
			Name:      "verification_duration_seconds",
			Help:      "Time spent verifying a transaction reference against the chain.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"chain"}),
		settledGifts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "giftchain",
			Name:      "settled_gifts_total",
			Help:      "Gift records transitioned from unverified to sent.",
		}, []string{"chain"}),
	}

	if reg != nil {
		reg.MustRegister(m.verifications, m.duration, m.settledGifts)
	}
	return m
}

// ObserveVerification records one verification attempt
func (m *VerificationMetrics) ObserveVerification(chain, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(chain, outcome).Inc()
	m.duration.WithLabelValues(chain).Observe(elapsed.Seconds())
}

// AddSettledGifts records gifts flipped to sent by one settlement
func (m *VerificationMetrics) AddSettledGifts(chain string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.settledGifts.WithLabelValues(chain).Add(float64(n))
}
