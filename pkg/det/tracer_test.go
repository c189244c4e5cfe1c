package det

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strongdm/ai-cxdb-det/pkg/stdtypes"
)

// testSink captures events for verification in tests.
type testSink struct {
	mu       sync.Mutex
	events   []Event
	writeErr error
	flushed  int
	closed   int
}

func (s *testSink) Write(ctx context.Context, event Event) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *testSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed++
	return nil
}

func (s *testSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *testSink) getEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Event, len(s.events))
	copy(result, s.events)
	return result
}

func TestTracer_ReportError_AppendsLast(t *testing.T) {
	tracer := New()
	ctx := context.Background()

	tracer.ReportError(ctx, 7, 0, 1, 2)
	before := len(tracer.Errors())

	outcome := tracer.ReportError(ctx, 0x1234, 3, 0x10, 0x20)
	require.Equal(t, stdtypes.OK, outcome)

	errs := tracer.Errors()
	require.Len(t, errs, before+1)
	assert.Equal(t, Record{ModuleID: 0x1234, InstanceID: 3, APIID: 0x10, ErrorID: 0x20}, errs[len(errs)-1])
}

func TestTracer_ReportThenClear(t *testing.T) {
	tracer := New()
	ctx := context.Background()

	tracer.ReportError(ctx, 1, 1, 1, 1)
	tracer.ReportError(ctx, 2, 0, 3, 5)

	assert.Equal(t, []Record{
		{ModuleID: 1, InstanceID: 1, APIID: 1, ErrorID: 1},
		{ModuleID: 2, InstanceID: 0, APIID: 3, ErrorID: 5},
	}, tracer.Errors())

	tracer.ClearErrors()
	assert.Empty(t, tracer.Errors())
	assert.NotNil(t, tracer.Errors(), "empty log should be an empty slice, not nil")
}

func TestTracer_PreservesInsertionOrder(t *testing.T) {
	tracer := New()
	ctx := context.Background()

	a := Record{ModuleID: 10, InstanceID: 1, APIID: 1, ErrorID: 1}
	b := Record{ModuleID: 20, InstanceID: 2, APIID: 2, ErrorID: 2}
	c := Record{ModuleID: 30, InstanceID: 3, APIID: 3, ErrorID: 3}
	for _, r := range []Record{a, b, c} {
		tracer.ReportError(ctx, r.ModuleID, r.InstanceID, r.APIID, r.ErrorID)
	}

	assert.Equal(t, []Record{a, b, c}, tracer.Errors())
}

func TestTracer_CategoriesAreIndependent(t *testing.T) {
	tracer := New()
	ctx := context.Background()

	tracer.ReportError(ctx, 1, 1, 1, 1)
	devBefore := tracer.Errors()

	for i := 0; i < 5; i++ {
		assert.Equal(t, stdtypes.OK, tracer.ReportRuntimeError(ctx, uint16(i), 0, 0, 0))
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, stdtypes.OK, tracer.ReportTransientFault(ctx, uint16(i), 0, 0, 0))
	}

	assert.Equal(t, devBefore, tracer.Errors())
	assert.Len(t, tracer.RuntimeErrors(), 5)
	assert.Len(t, tracer.TransientFaults(), 3)
}

func TestTracer_RuntimeAndTransientLeaveDevelopmentEmpty(t *testing.T) {
	tracer := New()
	ctx := context.Background()

	tracer.ReportRuntimeError(ctx, 4, 0, 2, 9)
	tracer.ReportTransientFault(ctx, 5, 1, 3, 7)

	assert.Empty(t, tracer.Errors())
	assert.Equal(t, []Record{{ModuleID: 4, APIID: 2, ErrorID: 9}}, tracer.RuntimeErrors())
	assert.Equal(t, []Record{{ModuleID: 5, InstanceID: 1, APIID: 3, ErrorID: 7}}, tracer.TransientFaults())
}

func TestTracer_ClearErrors_Idempotent(t *testing.T) {
	tracer := New()

	tracer.ClearErrors()
	assert.Empty(t, tracer.Errors())

	tracer.ReportError(context.Background(), 1, 1, 1, 1)
	tracer.ClearErrors()
	tracer.ClearErrors()
	assert.Empty(t, tracer.Errors())
}

func TestTracer_ClearIsScopedToCategory(t *testing.T) {
	tracer := New()
	ctx := context.Background()

	tracer.ReportError(ctx, 1, 0, 0, 1)
	tracer.ReportRuntimeError(ctx, 2, 0, 0, 2)
	tracer.ReportTransientFault(ctx, 3, 0, 0, 3)

	tracer.ClearErrors()
	assert.Empty(t, tracer.Errors())
	assert.Len(t, tracer.RuntimeErrors(), 1)
	assert.Len(t, tracer.TransientFaults(), 1)

	tracer.ClearRuntimeErrors()
	assert.Empty(t, tracer.RuntimeErrors())
	assert.Len(t, tracer.TransientFaults(), 1)

	tracer.ClearTransientFaults()
	assert.Empty(t, tracer.TransientFaults())
}

func TestTracer_ReportAfterClear(t *testing.T) {
	tracer := New()
	ctx := context.Background()

	tracer.ReportError(ctx, 1, 1, 1, 1)
	tracer.ClearErrors()
	tracer.ReportError(ctx, 9, 9, 9, 9)

	assert.Equal(t, []Record{{ModuleID: 9, InstanceID: 9, APIID: 9, ErrorID: 9}}, tracer.Errors())
}

func TestTracer_ErrorsReturnsCopy(t *testing.T) {
	tracer := New()
	tracer.ReportError(context.Background(), 1, 1, 1, 1)

	errs := tracer.Errors()
	errs[0].ModuleID = 99

	assert.Equal(t, uint16(1), tracer.Errors()[0].ModuleID, "mutating the result must not change the log")
}

func TestTracer_ReportsWithoutInitOrStart(t *testing.T) {
	tracer := New()

	assert.False(t, tracer.Started())
	assert.Equal(t, stdtypes.OK, tracer.ReportError(context.Background(), 0xffff, 0xff, 0xff, 0xff))
	assert.Len(t, tracer.Errors(), 1)
}

func TestTracer_StartIsIdempotent(t *testing.T) {
	tracer := New()
	tracer.Init(Config{})

	tracer.Start()
	tracer.Start()

	assert.True(t, tracer.Started())
}

func TestTracer_Report_UnknownCategory(t *testing.T) {
	tracer := New()

	outcome := tracer.Report(context.Background(), Category(42), Record{ModuleID: 1})

	assert.Equal(t, stdtypes.NotOK, outcome)
	assert.Empty(t, tracer.Records(Category(42)))
	for _, c := range Categories() {
		assert.Zero(t, tracer.Len(c))
	}
}

func TestTracer_ForwardsEventsToSink(t *testing.T) {
	sink := &testSink{}
	tracer := New(WithSink(sink))
	fixed := time.Date(2025, 1, 26, 12, 0, 0, 0, time.UTC)
	tracer.now = func() time.Time { return fixed }
	ctx := context.Background()

	tracer.ReportError(ctx, 1, 2, 3, 4)
	tracer.ReportRuntimeError(ctx, 5, 6, 7, 8)
	tracer.ReportTransientFault(ctx, 9, 10, 11, 12)

	events := sink.getEvents()
	require.Len(t, events, 3)

	for i, ev := range events {
		assert.Equal(t, tracer.ID(), ev.TracerID)
		assert.Equal(t, uint64(i+1), ev.Sequence)
		assert.Equal(t, fixed, ev.Timestamp)
		assert.Equal(t, Fingerprint(ev.Category, ev.Record), ev.Fingerprint)
	}
	assert.Equal(t, DevelopmentError, events[0].Category)
	assert.Equal(t, RuntimeError, events[1].Category)
	assert.Equal(t, TransientFault, events[2].Category)
	assert.Equal(t, Record{ModuleID: 5, InstanceID: 6, APIID: 7, ErrorID: 8}, events[1].Record)
}

func TestTracer_SinkErrorDoesNotAffectOutcome(t *testing.T) {
	sink := &testSink{writeErr: errors.New("sink down")}
	tracer := New(WithSink(sink))

	outcome := tracer.ReportError(context.Background(), 1, 1, 1, 1)

	assert.Equal(t, stdtypes.OK, outcome)
	assert.Len(t, tracer.Errors(), 1, "record must be stored even when the sink fails")
}

func TestTracer_Close_FlushesAndClosesSink(t *testing.T) {
	sink := &testSink{}
	tracer := New(WithSink(sink))
	tracer.ReportError(context.Background(), 1, 1, 1, 1)

	require.NoError(t, tracer.Close(context.Background()))

	assert.Equal(t, 1, sink.flushed)
	assert.Equal(t, 1, sink.closed)
	assert.Len(t, tracer.Errors(), 1, "logs stay readable after Close")
}

func TestTracer_IDsAreUnique(t *testing.T) {
	a, b := New(), New()
	assert.Len(t, a.ID(), 36)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestTracer_DropOldest(t *testing.T) {
	var dropped []Record
	tracer := New(
		WithCapacity(2, DropOldest),
		WithOnDropped(func(c Category, r Record) {
			assert.Equal(t, DevelopmentError, c)
			dropped = append(dropped, r)
		}),
	)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		assert.Equal(t, stdtypes.OK, tracer.ReportError(ctx, uint16(i), 0, 0, 0))
	}

	assert.Equal(t, []Record{{ModuleID: 3}, {ModuleID: 4}}, tracer.Errors())
	assert.Equal(t, []Record{{ModuleID: 1}, {ModuleID: 2}}, dropped)
	assert.Equal(t, uint64(2), tracer.Dropped(DevelopmentError))
	assert.Zero(t, tracer.Dropped(RuntimeError))
}

func TestTracer_RejectNew(t *testing.T) {
	sink := &testSink{}
	tracer := New(WithSink(sink), WithCapacity(1, RejectNew))
	ctx := context.Background()

	assert.Equal(t, stdtypes.OK, tracer.ReportRuntimeError(ctx, 1, 0, 0, 0))
	assert.Equal(t, stdtypes.NotOK, tracer.ReportRuntimeError(ctx, 2, 0, 0, 0))

	assert.Equal(t, []Record{{ModuleID: 1}}, tracer.RuntimeErrors())
	assert.Equal(t, uint64(1), tracer.Dropped(RuntimeError))
	assert.Len(t, sink.getEvents(), 1, "rejected records are not forwarded")

	// Other categories have their own capacity.
	assert.Equal(t, stdtypes.OK, tracer.ReportError(ctx, 3, 0, 0, 0))

	tracer.ClearRuntimeErrors()
	assert.Equal(t, stdtypes.OK, tracer.ReportRuntimeError(ctx, 4, 0, 0, 0))
}

func TestTracer_ConcurrentReports(t *testing.T) {
	sink := &testSink{}
	tracer := New(WithSink(sink))
	ctx := context.Background()

	const workers, perWorker = 8, 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tracer.ReportError(ctx, uint16(w), 0, 0, uint8(i))
			}
		}(w)
	}
	wg.Wait()

	errs := tracer.Errors()
	require.Len(t, errs, workers*perWorker)

	// Per-caller order is preserved.
	next := make(map[uint16]uint8)
	for _, r := range errs {
		assert.Equal(t, next[r.ModuleID], r.ErrorID)
		next[r.ModuleID]++
	}

	seen := make(map[uint64]bool)
	for _, ev := range sink.getEvents() {
		assert.False(t, seen[ev.Sequence], "duplicate sequence %d", ev.Sequence)
		seen[ev.Sequence] = true
	}
	assert.Len(t, seen, workers*perWorker)
}
