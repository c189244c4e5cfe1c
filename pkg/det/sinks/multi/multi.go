// Package multi provides a sink that fans out to multiple sinks.
// All sinks receive all events; errors are aggregated.
package multi

import (
	"context"
	"errors"

	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

type multiSink struct {
	sinks []det.Sink
}

// NewMultiSink creates a sink that writes to every given sink, in order.
// Errors are aggregated via errors.Join.
func NewMultiSink(sinks ...det.Sink) det.Sink {
	return &multiSink{sinks: sinks}
}

// Write sends the event to all sinks, even if some return errors.
func (s *multiSink) Write(ctx context.Context, event det.Event) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *multiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *multiSink) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
