// Package stderr provides a sink that traces reports in human-readable form.
// Useful for development and bench debugging.
package stderr

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

// StderrSinkOption configures the stderr sink.
type StderrSinkOption func(*stderrSinkConfig)

type stderrSinkConfig struct {
	verbose bool
	out     io.Writer
}

// WithVerbose adds the fingerprint, tracer ID and sequence to each trace.
func WithVerbose() StderrSinkOption {
	return func(c *stderrSinkConfig) {
		c.verbose = true
	}
}

// WithWriter redirects output away from os.Stderr.
func WithWriter(w io.Writer) StderrSinkOption {
	return func(c *stderrSinkConfig) {
		c.out = w
	}
}

type stderrSink struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewStderrSink creates a sink that writes to stderr.
func NewStderrSink(opts ...StderrSinkOption) det.Sink {
	cfg := &stderrSinkConfig{out: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}
	return &stderrSink{
		out:     cfg.out,
		verbose: cfg.verbose,
	}
}

// Write formats one event:
//
//	[DET] <timestamp> <CATEGORY> module=0x0001 instance=1 api=0x01 error=0x01
func (s *stderrSink) Write(ctx context.Context, event det.Event) error {
	var b strings.Builder

	timestamp := event.Timestamp.Format("2006-01-02T15:04:05Z07:00")
	category := strings.ToUpper(event.Category.String())
	fmt.Fprintf(&b, "[DET] %s %s %s\n", timestamp, category, event.Record)

	if s.verbose {
		fmt.Fprintf(&b, "        Fingerprint: %s\n", event.Fingerprint)
		fmt.Fprintf(&b, "        Tracer: %s (seq %d)\n", event.TracerID, event.Sequence)
	}

	// One write per event so concurrent reports do not interleave.
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.out, b.String())
	return err
}

// Flush is a no-op for stderr sink.
func (s *stderrSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for stderr sink.
func (s *stderrSink) Close() error {
	return nil
}
