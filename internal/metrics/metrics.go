package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsCreated counts payments accepted by the engine.
	PaymentsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_created_total",
		Help: "Number of payments created.",
	})

	// PaymentTransitions counts applied payment status transitions.
	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_status_transitions_total",
		Help: "Number of payment status transitions applied, by target status.",
	}, []string{"status"})

	// InstrumentsCreated counts registered instruments by kind.
	InstrumentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "instruments_created_total",
		Help: "Number of payment instruments registered, by kind.",
	}, []string{"kind"})

	// ProcessorErrors counts translated gateway failures by class.
	ProcessorErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "processor_errors_total",
		Help: "Number of processor gateway failures, by class.",
	}, []string{"class"})
)
