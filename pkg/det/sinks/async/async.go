// Package async provides a sink wrapper with a bounded queue, so that slow
// outputs never block a reporting module.
// Events are processed in the background; the oldest queued event is
// dropped when the queue is full.
package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

// ErrSinkClosed is returned by Write after Close.
var ErrSinkClosed = errors.New("async sink is closed")

// AsyncSinkOption configures the async sink.
type AsyncSinkOption func(*asyncSinkConfig)

type asyncSinkConfig struct {
	queueSize     int
	flushInterval time.Duration
	onDropped     func(count int)
}

// WithQueueSize sets the maximum number of queued events (default: 1000).
func WithQueueSize(size int) AsyncSinkOption {
	return func(c *asyncSinkConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithFlushInterval sets how often Flush polls the queue (default: 10ms).
func WithFlushInterval(d time.Duration) AsyncSinkOption {
	return func(c *asyncSinkConfig) {
		if d > 0 {
			c.flushInterval = d
		}
	}
}

// WithOnDropped sets a callback invoked when events are dropped due to queue overflow.
func WithOnDropped(fn func(count int)) AsyncSinkOption {
	return func(c *asyncSinkConfig) {
		c.onDropped = fn
	}
}

type asyncSink struct {
	inner         det.Sink
	queue         chan det.Event
	done          chan struct{}
	flushInterval time.Duration
	onDropped     func(count int)

	closeOnce sync.Once
	closeMu   sync.RWMutex
	closed    bool
	wg        sync.WaitGroup

	// inflight counts events taken off the queue but not yet written.
	inflightMu sync.Mutex
	inflight   int
}

// NewAsyncSink wraps a sink with a bounded queue for async writes.
// Write returns immediately; events are written to inner in the background.
func NewAsyncSink(inner det.Sink, opts ...AsyncSinkOption) det.Sink {
	cfg := &asyncSinkConfig{
		queueSize:     1000,
		flushInterval: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &asyncSink{
		inner:         inner,
		queue:         make(chan det.Event, cfg.queueSize),
		done:          make(chan struct{}),
		flushInterval: cfg.flushInterval,
		onDropped:     cfg.onDropped,
	}

	s.wg.Add(1)
	go s.processLoop()

	return s
}

func (s *asyncSink) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		case <-s.done:
			// Drain remaining events
			for {
				select {
				case event := <-s.queue:
					s.write(event)
				default:
					return
				}
			}
		}
	}
}

func (s *asyncSink) write(event det.Event) {
	// Errors from the inner sink are dropped; the tracer has already stored the record.
	_ = s.inner.Write(context.Background(), event)

	s.inflightMu.Lock()
	s.inflight--
	s.inflightMu.Unlock()
}

// Write enqueues an event. If the queue is full, the oldest event is dropped.
func (s *asyncSink) Write(ctx context.Context, event det.Event) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}

	s.inflightMu.Lock()
	s.inflight++
	s.inflightMu.Unlock()

	select {
	case s.queue <- event:
		return nil
	default:
		s.dropOldestAndEnqueue(event)
		return nil
	}
}

func (s *asyncSink) dropOldestAndEnqueue(event det.Event) {
	select {
	case <-s.queue:
		s.drop()
	default:
		// Queue was emptied by the processor, try again
	}

	select {
	case s.queue <- event:
	default:
		// Still full, drop the new event
		s.drop()
	}
}

func (s *asyncSink) drop() {
	s.inflightMu.Lock()
	s.inflight--
	s.inflightMu.Unlock()
	if s.onDropped != nil {
		s.onDropped(1)
	}
}

func (s *asyncSink) pending() int {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	return s.inflight
}

// Flush blocks until every accepted event has been written or dropped,
// then flushes the inner sink.
func (s *asyncSink) Flush(ctx context.Context) error {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for s.pending() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return s.inner.Flush(ctx)
}

// Close stops the background writer after draining the queue, then closes
// the inner sink.
func (s *asyncSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()

		close(s.done)
		s.wg.Wait()
	})

	return s.inner.Close()
}
