// Package cxdb provides a sink that persists trace events to cxdb as
// SystemMessage items, one cxdb context per tracer.
package cxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/strongdm/ai-cxdb-det/pkg/det"
	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"
)

// CXDBClient is the minimal interface for cxdb client operations.
// The real *cxdb.Client satisfies this interface.
type CXDBClient interface {
	CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error)
	AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error)
}

// CXDBSinkOption configures the CXDB sink.
type CXDBSinkOption func(*cxdbSinkConfig)

type cxdbSinkConfig struct {
	labels    []string
	clientTag string
}

// WithLabels sets the labels attached to each tracer context.
func WithLabels(labels []string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.labels = labels
	}
}

// WithClientTag sets the client tag attached to each tracer context.
func WithClientTag(tag string) CXDBSinkOption {
	return func(c *cxdbSinkConfig) {
		c.clientTag = tag
	}
}

type cxdbSink struct {
	client    CXDBClient
	labels    []string
	clientTag string

	mu       sync.Mutex
	contexts map[string]*tracerContext // keyed by tracer ID
}

// tracerContext is the cxdb context of one tracer. described is set once a
// turn carrying ContextMetadata has been appended.
type tracerContext struct {
	id        uint64
	described bool
}

// NewCXDBSink creates a sink that writes to cxdb.
func NewCXDBSink(client CXDBClient, opts ...CXDBSinkOption) det.Sink {
	cfg := &cxdbSinkConfig{
		labels:    []string{"det"},
		clientTag: "det",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cxdbSink{
		client:    client,
		labels:    cfg.labels,
		clientTag: cfg.clientTag,
		contexts:  make(map[string]*tracerContext),
	}
}

// Write appends the event to the context of its tracer, creating the
// context on the tracer's first event. Context metadata is sent with every
// turn until one such turn has been appended.
func (s *cxdbSink) Write(ctx context.Context, event det.Event) error {
	contextID, needsMetadata, err := s.contextFor(ctx, event.TracerID)
	if err != nil {
		return err
	}

	item := s.buildConversationItem(event, needsMetadata)

	payload, err := cxdbclient.EncodeMsgpack(item)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req := &cxdbclient.AppendRequest{
		ContextID:      contextID,
		ParentTurnID:   0,
		TypeID:         cxdtypes.TypeIDConversationItem,
		TypeVersion:    cxdtypes.TypeVersionConversationItem,
		Payload:        payload,
		IdempotencyKey: IdempotencyKey(event),
	}

	if _, err := s.client.AppendTurn(ctx, req); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	if needsMetadata {
		s.markDescribed(event.TracerID)
	}
	return nil
}

// contextFor returns the cxdb context of a tracer and whether its metadata
// still has to be sent. The lock is held across CreateContext so concurrent
// first events do not create two contexts.
func (s *cxdbSink) contextFor(ctx context.Context, tracerID string) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tc, ok := s.contexts[tracerID]; ok {
		return tc.id, !tc.described, nil
	}
	head, err := s.client.CreateContext(ctx, 0)
	if err != nil {
		return 0, false, fmt.Errorf("create tracer context: %w", err)
	}
	s.contexts[tracerID] = &tracerContext{id: head.ContextID}
	return head.ContextID, true, nil
}

func (s *cxdbSink) markDescribed(tracerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tc, ok := s.contexts[tracerID]; ok {
		tc.described = true
	}
}

// IdempotencyKey returns "<tracer-id>:<sequence>", unique per accepted report.
func IdempotencyKey(event det.Event) string {
	return event.TracerID + ":" + strconv.FormatUint(event.Sequence, 10)
}

func (s *cxdbSink) buildConversationItem(event det.Event, withMetadata bool) *cxdtypes.ConversationItem {
	// Title: "runtime_error: module=0x0002 instance=0 api=0x03 error=0x05"
	title := event.Category.String() + ": " + event.Record.String()

	item := &cxdtypes.ConversationItem{
		ItemType:  cxdtypes.ItemTypeSystem,
		Status:    cxdtypes.ItemStatusComplete,
		Timestamp: event.Timestamp.UnixMilli(),
		ID:        IdempotencyKey(event),
		System: &cxdtypes.SystemMessage{
			Kind:    cxdtypes.SystemKindError,
			Title:   title,
			Content: buildDetails(event),
		},
	}

	// cxdb expects context metadata on the first turn.
	if withMetadata {
		item.ContextMetadata = &cxdtypes.ContextMetadata{
			Labels:    s.labels,
			ClientTag: s.clientTag,
		}
	}

	return item
}

// buildDetails encodes the event as JSON for SystemMessage.Content.
func buildDetails(event det.Event) string {
	details := map[string]any{
		"tracer_id":   event.TracerID,
		"sequence":    event.Sequence,
		"category":    event.Category.String(),
		"module_id":   event.Record.ModuleID,
		"instance_id": event.Record.InstanceID,
		"api_id":      event.Record.APIID,
		"error_id":    event.Record.ErrorID,
		"fingerprint": event.Fingerprint,
	}

	jsonBytes, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to encode details: %s"}`, err)
	}
	return string(jsonBytes)
}

// Flush is a no-op for the cxdb sink (writes are synchronous).
func (s *cxdbSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op; the caller owns the client.
func (s *cxdbSink) Close() error {
	return nil
}
