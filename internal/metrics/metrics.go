// Package metrics exposes price checker health as Prometheus collectors.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Check outcomes.
const (
	CheckOK    = "ok"
	CheckError = "error"
)

// Batch statuses.
const (
	BatchCompleted = "completed"
	BatchFailed    = "failed"
	BatchSkipped   = "skipped"
)

// Metrics implements provider.Observer and checker.Observer.
type Metrics struct {
	providerSearches *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	checks           *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	emails           *prometheus.CounterVec
	batchRuns        *prometheus.CounterVec
	batchDuration    prometheus.Histogram
}

// New builds the collectors and registers them on registerer. A nil
// registerer falls back to the default one.
func New(registerer prometheus.Registerer, environment string) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": "peregrinus", "env": environment}

	m := &Metrics{
		providerSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "peregrinus_provider_searches_total",
			Help:        "Price source searches by provider and outcome.",
			ConstLabels: constLabels,
		}, []string{"provider", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "peregrinus_provider_search_duration_seconds",
			Help:        "Price source search latency by provider.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			ConstLabels: constLabels,
		}, []string{"provider"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "peregrinus_price_checks_total",
			Help:        "Subscription price checks by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "peregrinus_notifications_total",
			Help:        "Notifications raised by type.",
			ConstLabels: constLabels,
		}, []string{"type"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "peregrinus_emails_total",
			Help:        "Alert emails by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		batchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "peregrinus_batch_runs_total",
			Help:        "Batch price check runs by status.",
			ConstLabels: constLabels,
		}, []string{"status"}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "peregrinus_batch_duration_seconds",
			Help:        "Wall time of completed batch price check runs.",
			Buckets:     []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
			ConstLabels: constLabels,
		}),
	}

	registerer.MustRegister(
		m.providerSearches,
		m.providerLatency,
		m.checks,
		m.notifications,
		m.emails,
		m.batchRuns,
		m.batchDuration,
	)
	return m
}

func (m *Metrics) ObserveProviderSearch(provider, outcome string, elapsed time.Duration) {
	m.providerSearches.WithLabelValues(provider, outcome).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCheck(outcome string) {
	m.checks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNotification(notificationType string) {
	m.notifications.WithLabelValues(notificationType).Inc()
}

func (m *Metrics) ObserveEmail(sent bool) {
	result := "failed"
	if sent {
		result = "sent"
	}
	m.emails.WithLabelValues(result).Inc()
}

// ObserveBatch records a batch run. Duration is only observed for runs that
// did work.
func (m *Metrics) ObserveBatch(status string, elapsed time.Duration) {
	m.batchRuns.WithLabelValues(status).Inc()
	if status == BatchCompleted {
		m.batchDuration.Observe(elapsed.Seconds())
	}
}
