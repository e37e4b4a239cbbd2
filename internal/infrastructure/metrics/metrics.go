package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. It implements usecase.Metrics.
type Metrics struct {
	// Journal metrics
	EntriesPosted   prometheus.Counter
	EntryLines      prometheus.Histogram
	PostDuration    prometheus.Histogram
	EntriesRejected *prometheus.CounterVec

	// Chart metrics
	AccountChanges *prometheus.CounterVec

	// Balance metrics
	BalanceRebuilds *prometheus.CounterVec
	DriftedAccounts prometheus.Gauge

	// Outbox metrics
	EventsPublished prometheus.Counter
	PublishFailures prometheus.Counter

	// API metrics
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	HTTPInFlight      prometheus.Gauge
	RateLimitHits     prometheus.Counter
	IdempotentReplays prometheus.Counter
}

// New creates all metrics and registers them with reg. Passing
// prometheus.DefaultRegisterer exposes them on promhttp.Handler().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Journal metrics
		EntriesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobooks_entries_posted_total",
			Help: "Total number of journal entries posted",
		}),
		EntryLines: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobooks_entry_lines",
			Help:    "Number of lines per posted entry",
			Buckets: []float64{2, 3, 4, 6, 8, 12, 20, 50},
		}),
		PostDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gobooks_post_duration_seconds",
			Help:    "Duration of validate and append",
			Buckets: prometheus.DefBuckets,
		}),
		EntriesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobooks_entries_rejected_total",
				Help: "Total number of rejected entries by reason",
			},
			[]string{"reason"},
		),

		// Chart metrics
		AccountChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobooks_account_changes_total",
				Help: "Total chart of accounts changes by operation",
			},
			[]string{"operation"},
		),

		// Balance metrics
		BalanceRebuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobooks_balance_rebuilds_total",
				Help: "Total balance rebuilds by reason",
			},
			[]string{"reason"},
		),
		DriftedAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gobooks_balance_drift_accounts",
			Help: "Accounts whose cached balance differed from the journal at the last check",
		}),

		// Outbox metrics
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobooks_outbox_events_published_total",
			Help: "Total outbox events published",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobooks_outbox_publish_failures_total",
			Help: "Total outbox publish failures",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gobooks_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gobooks_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gobooks_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobooks_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
		IdempotentReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "gobooks_idempotent_replays_total",
			Help: "Total responses served from the idempotency store",
		}),
	}
}

func (m *Metrics) EntryPosted(lines int, duration time.Duration) {
	m.EntriesPosted.Inc()
	m.EntryLines.Observe(float64(lines))
	m.PostDuration.Observe(duration.Seconds())
}

func (m *Metrics) EntryRejected(reason string) {
	m.EntriesRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) AccountChanged(operation string) {
	m.AccountChanges.WithLabelValues(operation).Inc()
}

func (m *Metrics) BalancesRebuilt(reason string) {
	m.BalanceRebuilds.WithLabelValues(reason).Inc()
}

func (m *Metrics) BalanceDrift(accounts int) {
	m.DriftedAccounts.Set(float64(accounts))
}

// EventPublished records one outbox publish attempt.
func (m *Metrics) EventPublished(err error) {
	if err != nil {
		m.PublishFailures.Inc()
		return
	}
	m.EventsPublished.Inc()
}

// ObserveHTTP records a finished request. path should be a route pattern.
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// InFlight adjusts the in-flight request gauge.
func (m *Metrics) InFlight(delta float64) {
	m.HTTPInFlight.Add(delta)
}

func (m *Metrics) RateLimited() {
	m.RateLimitHits.Inc()
}

func (m *Metrics) IdempotentReplay() {
	m.IdempotentReplays.Inc()
}
