package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records submission outcomes and handoff activity.
type CheckoutMetrics struct {
	duration    *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	handoffs    prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_submission_duration_seconds",
		Help:    "Duration of order submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	handoffs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_handoff_writes_total",
		Help: "Transfer envelopes written for confirmation handoff.",
	})
	reg.MustRegister(duration, submissions, handoffs)
	return &CheckoutMetrics{
		duration:    duration,
		submissions: submissions,
		handoffs:    handoffs,
	}
}

// ObserveSubmission records one submission attempt with its outcome.
func (c *CheckoutMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	label := normalizeLabel(outcome)
	if c.submissions != nil {
		c.submissions.WithLabelValues(label).Inc()
	}
	if c.duration != nil {
		c.duration.WithLabelValues(label).Observe(duration.Seconds())
	}
}

// IncHandoff counts one transfer envelope write.
func (c *CheckoutMetrics) IncHandoff() {
	if c == nil || c.handoffs == nil {
		return
	}
	c.handoffs.Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
