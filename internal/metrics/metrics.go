package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the payment and scheduler counters exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	clickRequests  *prometheus.CounterVec
	paymeWebhooks  *prometheus.CounterVec
	centralCalls   *prometheus.CounterVec
	leasesExpired  prometheus.Counter
	debtComputeSec prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		clickRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "click",
			Name:      "requests_total",
			Help:      "Click webhook requests by action and returned error code.",
		}, []string{"action", "code"}),
		paymeWebhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "payme",
			Name:      "webhooks_total",
			Help:      "Payme status webhooks by outcome.",
		}, []string{"outcome"}),
		centralCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "central",
			Name:      "requests_total",
			Help:      "Calls to the central payment service by outcome.",
		}, []string{"outcome"}),
		leasesExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marketplace",
			Subsystem: "scheduler",
			Name:      "leases_expired_total",
			Help:      "Leases deactivated by the expiry sweep.",
		}),
		debtComputeSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "marketplace",
			Subsystem: "billing",
			Name:      "debt_summary_seconds",
			Help:      "Time spent computing the dashboard debt summary.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.clickRequests, m.paymeWebhooks, m.centralCalls, m.leasesExpired, m.debtComputeSec)
	return m
}

func (m *Metrics) ClickRequest(action string, code int) {
	if m == nil {
		return
	}
	m.clickRequests.WithLabelValues(action, strconv.Itoa(code)).Inc()
}

func (m *Metrics) PaymeWebhook(outcome string) {
	if m == nil {
		return
	}
	m.paymeWebhooks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CentralCall(outcome string) {
	if m == nil {
		return
	}
	m.centralCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LeasesExpired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.leasesExpired.Add(float64(n))
}

func (m *Metrics) ObserveDebtSummary(seconds float64) {
	if m == nil {
		return
	}
	m.debtComputeSec.Observe(seconds)
}
