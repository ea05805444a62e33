// ABOUTME: Prometheus counters for extraction, dialogue and preference-tree generation
// ABOUTME: Uses a private registry and can dump it as a node_exporter textfile
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for one pipeline run.
// All methods are safe on a nil receiver.
//
// Metrics:
//   - pedagogy_documents_written_total
//   - pedagogy_documents_rejected_total
//   - pedagogy_dialogues_written_total
//   - pedagogy_dialogues_abandoned_total
//   - pedagogy_dpo_nodes_written_total
//   - pedagogy_dpo_nodes_skipped_total
//   - pedagogy_oracle_calls_total{op}
//   - pedagogy_oracle_duration_seconds{op}
type Metrics struct {
	registry *prometheus.Registry

	DocumentsWritten  prometheus.Counter
	DocumentsRejected prometheus.Counter
	DialoguesWritten  prometheus.Counter
	DialoguesAbandon  prometheus.Counter
	NodesWritten      prometheus.Counter
	NodesSkipped      prometheus.Counter
	OracleCalls       *prometheus.CounterVec
	OracleDuration    *prometheus.HistogramVec
}

// New registers all metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedagogy_documents_written_total",
			Help: "Documents appended to the document store",
		}),
		DocumentsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedagogy_documents_rejected_total",
			Help: "Documents dropped for having too little usable text",
		}),
		DialoguesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedagogy_dialogues_written_total",
			Help: "Dialogues appended to the dialogue store",
		}),
		DialoguesAbandon: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedagogy_dialogues_abandoned_total",
			Help: "Dialogues or documents whose generation stopped on an oracle error",
		}),
		NodesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedagogy_dpo_nodes_written_total",
			Help: "Preference-tree nodes appended to the DPO store",
		}),
		NodesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedagogy_dpo_nodes_skipped_total",
			Help: "Candidate nodes skipped because they were already stored",
		}),
		OracleCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pedagogy_oracle_calls_total",
			Help: "Oracle calls by operation",
		}, []string{"op"}),
		OracleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pedagogy_oracle_duration_seconds",
			Help:    "Oracle call latency by operation",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"op"}),
	}
}

// Registry exposes the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveOracle records one oracle call
func (m *Metrics) ObserveOracle(op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OracleCalls.WithLabelValues(op).Inc()
	m.OracleDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// DocumentWritten counts one stored document
func (m *Metrics) DocumentWritten() {
	if m != nil {
		m.DocumentsWritten.Inc()
	}
}

// DocumentRejected counts one dropped document
func (m *Metrics) DocumentRejected() {
	if m != nil {
		m.DocumentsRejected.Inc()
	}
}

// DialogueWritten counts one stored dialogue
func (m *Metrics) DialogueWritten() {
	if m != nil {
		m.DialoguesWritten.Inc()
	}
}

// DialogueAbandoned counts one unit of work stopped by an oracle error
func (m *Metrics) DialogueAbandoned() {
	if m != nil {
		m.DialoguesAbandon.Inc()
	}
}

// NodeWritten counts one stored DPO node
func (m *Metrics) NodeWritten() {
	if m != nil {
		m.NodesWritten.Inc()
	}
}

// NodeSkipped counts one candidate already present in the store
func (m *Metrics) NodeSkipped() {
	if m != nil {
		m.NodesSkipped.Inc()
	}
}

// WriteTextfile writes every metric in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
