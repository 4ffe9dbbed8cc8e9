package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the fulfillment pipeline counters. Label values are
// kept low-cardinality: fulfillment statuses, gateway names, and
// claim results only.
type Metrics struct {
	Fulfillments     *prometheus.CounterVec
	DeliveryAttempts *prometheus.CounterVec
	VoucherClaims    *prometheus.CounterVec
	SweepRuns        prometheus.Counter
}

// New creates and registers the pipeline metrics on the given
// registerer. Pass prometheus.NewRegistry() in tests to avoid
// duplicate-registration panics.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Fulfillments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fulfillments_total",
			Help: "Fulfillment outcomes by status.",
		}, []string{"status"}),
		DeliveryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "delivery_attempts_total",
			Help: "SMS delivery attempts by gateway and outcome.",
		}, []string{"gateway", "outcome"}),
		VoucherClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voucher_claims_total",
			Help: "Voucher claim attempts by result (claimed, exhausted, released).",
		}, []string{"result"}),
		SweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Completed sweep passes over unfulfilled transactions.",
		}),
	}

	registerer.MustRegister(m.Fulfillments, m.DeliveryAttempts, m.VoucherClaims, m.SweepRuns)
	return m
}
