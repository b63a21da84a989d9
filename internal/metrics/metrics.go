package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics provides observability for monitoring workflows.
type Metrics struct {
	// Accepted status transitions by source and target status
	Transitions *prometheus.CounterVec

	// Rejected operations by error kind and operation
	Rejections *prometheus.CounterVec

	// Elimination reports and resolutions recorded
	Eliminations *prometheus.CounterVec
}

// New creates Metrics registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditline_monitoring_transitions_total",
			Help: "Total accepted monitoring status transitions",
		}, []string{"from", "to"}),

		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditline_rejected_operations_total",
			Help: "Total rejected monitoring operations by error kind",
		}, []string{"operation", "kind"}),

		Eliminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditline_elimination_records_total",
			Help: "Total elimination reports, documents and resolutions recorded",
		}, []string{"record"}), // record: "report", "document", "resolution"
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.Rejections, m.Eliminations)
	}
	return m
}

// IncrementTransition records an accepted status change.
func (m *Metrics) IncrementTransition(from, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(from, to).Inc()
	}
}

// IncrementRejection records a rejected operation.
func (m *Metrics) IncrementRejection(operation, kind string) {
	if m != nil {
		m.Rejections.WithLabelValues(operation, kind).Inc()
	}
}

// IncrementElimination records an elimination artefact.
func (m *Metrics) IncrementElimination(record string) {
	if m != nil {
		m.Eliminations.WithLabelValues(record).Inc()
	}
}
