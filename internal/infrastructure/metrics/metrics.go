// Package metrics exposes Prometheus collectors for invoicing and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"autobill/internal/domain/documents/invoice"
	"autobill/pkg/numerator"
)

// Metrics records invoice, sequencer and HTTP events.
type Metrics struct {
	invoicesCreated   prometheus.Counter
	sequenceRetries   *prometheus.CounterVec
	sequenceFailures  *prometheus.CounterVec
	itemMutations     *prometheus.CounterVec
	totalsRecomputed  prometheus.Counter
	httpRequestLength *prometheus.HistogramVec
}

var (
	_ invoice.Observer   = (*Metrics)(nil)
	_ numerator.Observer = (*Metrics)(nil)
)

// New creates and registers the collectors. A nil registerer means
// prometheus.DefaultRegisterer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		invoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autobill_invoices_created_total",
			Help: "Invoices created with an allocated number.",
		}),
		sequenceRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autobill_sequence_retries_total",
			Help: "Number allocations re-run after a conflict.",
		}, []string{"sequence"}),
		sequenceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autobill_sequence_failures_total",
			Help: "Number allocations that gave up, by reason.",
		}, []string{"sequence", "reason"}),
		itemMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autobill_line_item_mutations_total",
			Help: "Committed line item changes by operation.",
		}, []string{"op"}),
		totalsRecomputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autobill_totals_recomputed_total",
			Help: "Invoice total recomputations.",
		}),
		httpRequestLength: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "autobill_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route", "status"}),
	}

	registerer.MustRegister(
		m.invoicesCreated,
		m.sequenceRetries,
		m.sequenceFailures,
		m.itemMutations,
		m.totalsRecomputed,
		m.httpRequestLength,
	)
	return m
}

// InvoiceCreated implements invoice.Observer.
func (m *Metrics) InvoiceCreated() {
	m.invoicesCreated.Inc()
}

// LineItemMutated implements invoice.Observer.
func (m *Metrics) LineItemMutated(op string) {
	m.itemMutations.WithLabelValues(op).Inc()
}

// TotalsRecomputed implements invoice.Observer.
func (m *Metrics) TotalsRecomputed() {
	m.totalsRecomputed.Inc()
}

// SequenceRetried implements numerator.Observer.
func (m *Metrics) SequenceRetried(key string) {
	m.sequenceRetries.WithLabelValues(key).Inc()
}

// SequenceFailed implements numerator.Observer.
func (m *Metrics) SequenceFailed(key, reason string) {
	m.sequenceFailures.WithLabelValues(key, reason).Inc()
}

// ObserveRequest records one served HTTP request. route is the matched
// route pattern, never the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestLength.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
