// Package noop provides a sink that discards all trace events.
// Useful for headless tests and for running a tracer without output.
package noop

import (
	"context"

	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

type noopSink struct{}

// NewNoopSink creates a sink that discards all events.
func NewNoopSink() det.Sink {
	return noopSink{}
}

func (noopSink) Write(ctx context.Context, event det.Event) error { return nil }

func (noopSink) Flush(ctx context.Context) error { return nil }

func (noopSink) Close() error { return nil }
