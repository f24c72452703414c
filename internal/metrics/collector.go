// Package metrics records engine activity as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Veraticus/the-closet-must-flow/internal/common"
)

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeNotActive    = "not_active"
	OutcomeNotTargeted  = "not_targeted"
	OutcomeConflict     = "conflict"
	OutcomeUnavailable  = "unavailable"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"
)

// Collector implements analytics.Recorder on a private registry so that
// several collectors can coexist in one process.
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	conflicts  prometheus.Counter
}

// NewCollector creates a collector with all metrics registered.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "closet_engine_operations_total",
				Help: "Count of analytics engine operations by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "closet_engine_operation_duration_seconds",
				Help:    "Latency of analytics engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "closet_challenge_progress_conflicts_total",
			Help: "Compare-and-swap conflicts while updating challenge progress.",
		}),
	}
	c.registry.MustRegister(c.operations, c.durations, c.conflicts)
	return c
}

// ObserveOperation counts one finished operation.
func (c *Collector) ObserveOperation(operation string, err error, elapsed time.Duration) {
	c.operations.WithLabelValues(operation, Outcome(err)).Inc()
	c.durations.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveConflict counts one lost compare-and-swap.
func (c *Collector) ObserveConflict() {
	c.conflicts.Inc()
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteToTextfile writes the current values in the text exposition format,
// for the node exporter textfile collector.
func (c *Collector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// Outcome classifies an operation error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, common.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, common.ErrNotActive):
		return OutcomeNotActive
	case errors.Is(err, common.ErrNotTargeted):
		return OutcomeNotTargeted
	case errors.Is(err, common.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, common.ErrLedgerUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, common.ErrInvalidInput):
		return OutcomeInvalidInput
	default:
		return OutcomeError
	}
}
