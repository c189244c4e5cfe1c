// sink.go defines the Sink interface for trace event destinations.

package det

import "context"

// Sink is an output for trace events (console, metrics, cxdb).
// Implementations must be safe for concurrent use.
type Sink interface {
	// Write outputs one event. Called after the record has been stored.
	Write(ctx context.Context, event Event) error

	// Flush ensures any buffered events are written.
	// For synchronous sinks, this may be a no-op.
	Flush(ctx context.Context) error

	// Close releases resources held by the sink.
	Close() error
}

// noopSinkInternal is the default sink; it avoids an import cycle with sinks/noop.
type noopSinkInternal struct{}

func (noopSinkInternal) Write(ctx context.Context, event Event) error { return nil }

func (noopSinkInternal) Flush(ctx context.Context) error { return nil }

func (noopSinkInternal) Close() error { return nil }
