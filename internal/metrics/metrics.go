// Package metrics counts import outcomes for node_exporter's textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ppiankov/openalexbot/internal/claims"
	"github.com/ppiankov/openalexbot/internal/model"
)

// Recorder owns a private registry so runs and tests do not share state
type Recorder struct {
	registry *prometheus.Registry
	imports  *prometheus.CounterVec
	claims   *prometheus.CounterVec
	duration prometheus.Histogram
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openalexbot_imports_total",
			Help: "Processed identifiers by terminal state",
		}, []string{"outcome"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "openalexbot_claims_total",
			Help: "Assembled claims by claim group",
		}, []string{"group"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "openalexbot_import_duration_seconds",
			Help:    "Time spent on one identifier",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
	r.registry.MustRegister(r.imports, r.claims, r.duration)
	return r
}

// ObserveOutcome counts one terminal state and its duration
func (r *Recorder) ObserveOutcome(o model.Outcome) {
	r.imports.WithLabelValues(string(o.State)).Inc()
	r.duration.Observe(o.Duration.Seconds())
}

// ObserveItem counts the claims of an assembled item by group
func (r *Recorder) ObserveItem(item *model.KnowledgeBaseItem) {
	if item == nil {
		return
	}
	for _, c := range item.Claims {
		r.claims.WithLabelValues(claims.Group(c.Property)).Inc()
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every metric atomically to path
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
