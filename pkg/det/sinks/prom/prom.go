// Package prom provides a sink that counts reports in Prometheus metrics.
package prom

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

// PromSinkOption configures the Prometheus sink.
type PromSinkOption func(*promSinkConfig)

type promSinkConfig struct {
	namespace string
}

// WithNamespace sets the metric namespace (default: "det").
func WithNamespace(ns string) PromSinkOption {
	return func(c *promSinkConfig) {
		c.namespace = ns
	}
}

type promSink struct {
	reports *prometheus.CounterVec
}

// NewPromSink registers det_reports_total{category,module} on reg and
// returns a sink that increments it for every event.
func NewPromSink(reg prometheus.Registerer, opts ...PromSinkOption) (det.Sink, error) {
	cfg := &promSinkConfig{namespace: "det"}
	for _, opt := range opts {
		opt(cfg)
	}

	reports := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.namespace,
			Name:      "reports_total",
			Help:      "Total number of failures reported to the tracer, by category and module",
		},
		[]string{"category", "module"},
	)
	if err := reg.Register(reports); err != nil {
		return nil, fmt.Errorf("register reports counter: %w", err)
	}

	return &promSink{reports: reports}, nil
}

// ModuleLabel formats a module id as the "module" label value.
func ModuleLabel(moduleID uint16) string {
	return fmt.Sprintf("0x%04x", moduleID)
}

func (s *promSink) Write(ctx context.Context, event det.Event) error {
	s.reports.WithLabelValues(event.Category.String(), ModuleLabel(event.Record.ModuleID)).Inc()
	return nil
}

func (s *promSink) Flush(ctx context.Context) error {
	return nil
}

func (s *promSink) Close() error {
	return nil
}

