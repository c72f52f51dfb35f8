package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reconcileOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sorbo",
		Subsystem: "orders",
		Name:      "reconcile_outcomes_total",
		Help:      "Reconciliation calls by observed outcome and result.",
	}, []string{"outcome", "result"})

	webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sorbo",
		Subsystem: "webhooks",
		Name:      "events_total",
		Help:      "Inbound provider webhook notifications by type and disposition.",
	}, []string{"type", "disposition"})

	stockWarnings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sorbo",
		Subsystem: "orders",
		Name:      "insufficient_stock_total",
		Help:      "Paid orders whose stock decrement found no stock left.",
	})
)

func init() {
	prometheus.MustRegister(reconcileOutcomes, webhookEvents, stockWarnings)
}

// Reconciliation results recorded alongside the observed outcome.
const (
	ResultApplied    = "applied"
	ResultNoop       = "noop"
	ResultError      = "error"
	ResultSuppressed = "suppressed" // duplicate/late notification swallowed
)

func IncReconcile(outcome, result string) {
	reconcileOutcomes.WithLabelValues(outcome, result).Inc()
}

func IncWebhookEvent(eventType, disposition string) {
	webhookEvents.WithLabelValues(eventType, disposition).Inc()
}

func IncInsufficientStock() {
	stockWarnings.Inc()
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
