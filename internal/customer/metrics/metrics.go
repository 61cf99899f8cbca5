package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the customer lifecycle.
type Metrics struct {
	CustomersRegistered   prometheus.Counter
	RegistrationConflicts prometheus.Counter
	KycTransitions        *prometheus.CounterVec
	NotifierFailures      prometheus.Counter
}

// New creates and registers all customer lifecycle metrics.
func New() *Metrics {
	return &Metrics{
		CustomersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerd_customers_registered_total",
			Help: "Total number of customer records created",
		}),
		RegistrationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerd_registration_conflicts_total",
			Help: "Registrations rejected because a unique identifier already exists",
		}),
		KycTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "customerd_kyc_transitions_total",
			Help: "KYC status updates by target status",
		}, []string{"status"}),
		NotifierFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "customerd_notifier_failures_total",
			Help: "Domain event publications that failed (best effort, never fatal)",
		}),
	}
}

func (m *Metrics) IncRegistered() {
	if m != nil {
		m.CustomersRegistered.Inc()
	}
}

func (m *Metrics) IncRegistrationConflict() {
	if m != nil {
		m.RegistrationConflicts.Inc()
	}
}

func (m *Metrics) IncKycTransition(status string) {
	if m != nil {
		m.KycTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncNotifierFailure() {
	if m != nil {
		m.NotifierFailures.Inc()
	}
}
