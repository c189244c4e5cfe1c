// tracer.go provides the Tracer, the reporting sink for all three categories.

package det

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/strongdm/ai-cxdb-det/pkg/stdtypes"
)

// Config is the initialization value passed to Init.
// The tracer does not interpret it; it is accepted as-is and traced.
type Config struct{}

// Option configures a Tracer.
type Option func(*tracerConfig)

type tracerConfig struct {
	sink      Sink
	logger    *slog.Logger
	capacity  int
	policy    OverflowPolicy
	onDropped func(Category, Record)
}

// WithSink sets the sink that receives an Event for every accepted report.
func WithSink(sink Sink) Option {
	return func(c *tracerConfig) {
		c.sink = sink
	}
}

// WithLogger sets the logger for lifecycle traces and sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *tracerConfig) {
		c.logger = logger
	}
}

// WithCapacity bounds each category log to n records, with policy deciding
// what happens when a log is full. n <= 0 keeps the logs unbounded.
func WithCapacity(n int, policy OverflowPolicy) Option {
	return func(c *tracerConfig) {
		c.capacity = n
		c.policy = policy
	}
}

// WithOnDropped sets a callback invoked with every record that is evicted
// or rejected by a bounded log. It is called without the tracer lock held.
func WithOnDropped(fn func(Category, Record)) Option {
	return func(c *tracerConfig) {
		c.onDropped = fn
	}
}

// Tracer records reported failures in three independent logs.
// It is safe for concurrent use.
type Tracer struct {
	id        string
	sink      Sink
	logger    *slog.Logger
	onDropped func(Category, Record)
	now       func() time.Time

	started atomic.Bool

	mu   sync.Mutex
	logs [numCategories]*recordLog
	seq  uint64
}

// New creates a Tracer with empty logs.
func New(opts ...Option) *Tracer {
	cfg := &tracerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	// Default to a silent tracer
	if cfg.sink == nil {
		cfg.sink = noopSinkInternal{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	t := &Tracer{
		id:        uuid.NewString(),
		sink:      cfg.sink,
		logger:    cfg.logger,
		onDropped: cfg.onDropped,
		now:       time.Now,
	}
	for i := range t.logs {
		t.logs[i] = newRecordLog(cfg.capacity, cfg.policy)
	}
	t.logger = t.logger.With("tracer_id", t.id)
	return t
}

// ID returns the UUID assigned to this tracer at construction.
func (t *Tracer) ID() string {
	return t.id
}

// Init accepts the initialization value. It performs no validation and
// never fails.
func (t *Tracer) Init(cfg Config) {
	t.logger.Debug("det init", "config", cfg)
}

// Start marks the tracer operational. It is idempotent. Reporting does not
// depend on it.
func (t *Tracer) Start() {
	if t.started.CompareAndSwap(false, true) {
		t.logger.Info("det started")
	}
}

// Started reports whether Start has been called.
func (t *Tracer) Started() bool {
	return t.started.Load()
}

// ReportError records a development error.
func (t *Tracer) ReportError(ctx context.Context, moduleID uint16, instanceID, apiID, errorID uint8) stdtypes.Outcome {
	return t.Report(ctx, DevelopmentError, Record{ModuleID: moduleID, InstanceID: instanceID, APIID: apiID, ErrorID: errorID})
}

// ReportRuntimeError records a runtime error.
func (t *Tracer) ReportRuntimeError(ctx context.Context, moduleID uint16, instanceID, apiID, errorID uint8) stdtypes.Outcome {
	return t.Report(ctx, RuntimeError, Record{ModuleID: moduleID, InstanceID: instanceID, APIID: apiID, ErrorID: errorID})
}

// ReportTransientFault records a transient fault.
func (t *Tracer) ReportTransientFault(ctx context.Context, moduleID uint16, instanceID, apiID, errorID uint8) stdtypes.Outcome {
	return t.Report(ctx, TransientFault, Record{ModuleID: moduleID, InstanceID: instanceID, APIID: apiID, ErrorID: errorID})
}

// Report appends rec to the log of category and forwards it to the sink.
// Identifiers are stored verbatim. The outcome is NotOK only for an unknown
// category or a full log under RejectNew; sink failures do not affect it.
func (t *Tracer) Report(ctx context.Context, category Category, rec Record) stdtypes.Outcome {
	if !category.Valid() {
		t.logger.Warn("det report with unknown category", "category", category.String(), "record", rec.String())
		return stdtypes.NotOK
	}

	t.mu.Lock()
	accepted, evicted := t.logs[category].add(rec)
	var seq uint64
	if accepted {
		t.seq++
		seq = t.seq
	}
	t.mu.Unlock()

	if evicted != nil {
		t.dropped(category, *evicted)
	}
	if !accepted {
		t.dropped(category, rec)
		return stdtypes.NotOK
	}

	event := Event{
		TracerID:    t.id,
		Sequence:    seq,
		Timestamp:   t.now(),
		Category:    category,
		Record:      rec,
		Fingerprint: Fingerprint(category, rec),
	}
	if err := t.sink.Write(ctx, event); err != nil {
		t.logger.Warn("det sink write failed", "category", category.String(), "sequence", seq, "error", err)
	}
	return stdtypes.OK
}

func (t *Tracer) dropped(category Category, rec Record) {
	t.logger.Debug("det record dropped", "category", category.String(), "record", rec.String())
	if t.onDropped != nil {
		t.onDropped(category, rec)
	}
}

// Errors returns the development error log in insertion order.
func (t *Tracer) Errors() []Record {
	return t.Records(DevelopmentError)
}

// RuntimeErrors returns the runtime error log in insertion order.
func (t *Tracer) RuntimeErrors() []Record {
	return t.Records(RuntimeError)
}

// TransientFaults returns the transient fault log in insertion order.
func (t *Tracer) TransientFaults() []Record {
	return t.Records(TransientFault)
}

// Records returns a copy of the log of category, oldest first.
// The result is empty, never nil, for an empty log or unknown category.
func (t *Tracer) Records(category Category) []Record {
	if !category.Valid() {
		return []Record{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logs[category].snapshot()
}

// Len returns the number of records in the log of category.
func (t *Tracer) Len(category Category) int {
	if !category.Valid() {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logs[category].len()
}

// Dropped returns how many records the log of category has evicted or
// rejected since construction. Always 0 for unbounded logs.
func (t *Tracer) Dropped(category Category) uint64 {
	if !category.Valid() {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logs[category].dropped
}

// ClearErrors empties the development error log only.
func (t *Tracer) ClearErrors() {
	t.Clear(DevelopmentError)
}

// ClearRuntimeErrors empties the runtime error log only.
func (t *Tracer) ClearRuntimeErrors() {
	t.Clear(RuntimeError)
}

// ClearTransientFaults empties the transient fault log only.
func (t *Tracer) ClearTransientFaults() {
	t.Clear(TransientFault)
}

// Clear empties the log of category. Clearing an empty log is a no-op.
func (t *Tracer) Clear(category Category) {
	if !category.Valid() {
		return
	}
	t.mu.Lock()
	t.logs[category].clear()
	t.mu.Unlock()
}

// Close flushes and closes the sink. Logs stay readable afterwards.
func (t *Tracer) Close(ctx context.Context) error {
	return errors.Join(t.sink.Flush(ctx), t.sink.Close())
}
