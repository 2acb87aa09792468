// Package metrics exposes Prometheus counters for order execution and
// persistence outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersExecuted counts orders that reached a terminal state, labelled
	// by side and state (filled, simulated, rejected).
	OrdersExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_orders_executed_total",
		Help: "Orders that reached a terminal execution state.",
	}, []string{"side", "state"})

	// RiskRejections counts authorization rejections by violation code.
	RiskRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockledger_risk_rejections_total",
		Help: "Orders rejected by the risk limiter.",
	}, []string{"code"})

	// SimulatedFallbacks counts fills synthesized locally after the broker
	// submission failed with a transient error.
	SimulatedFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockledger_simulated_fallbacks_total",
		Help: "Orders filled by the simulated fallback path.",
	})

	// BrokerRetries counts retried broker submissions.
	BrokerRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockledger_broker_retries_total",
		Help: "Broker submissions retried after a transient failure.",
	})

	// PersistenceFailures counts transaction store writes that failed; the
	// in-memory ledger keeps going when they do.
	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockledger_persistence_failures_total",
		Help: "Transaction store writes that failed.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
