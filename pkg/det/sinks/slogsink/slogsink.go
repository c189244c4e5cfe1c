// Package slogsink provides a sink that traces reports as structured log
// records through a *slog.Logger.
package slogsink

import (
	"context"
	"log/slog"

	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

// Option configures the slog sink.
type Option func(*slogSink)

// WithMessage overrides the log message (default: "det report").
func WithMessage(msg string) Option {
	return func(s *slogSink) {
		s.msg = msg
	}
}

// WithLevel overrides the level used for a category.
func WithLevel(category det.Category, level slog.Level) Option {
	return func(s *slogSink) {
		if category.Valid() {
			s.levels[category] = level
		}
	}
}

type slogSink struct {
	logger *slog.Logger
	msg    string
	levels map[det.Category]slog.Level
}

// NewSlogSink creates a sink that logs every event to logger.
// Development and runtime errors log at error level, transient faults at warn.
func NewSlogSink(logger *slog.Logger, opts ...Option) det.Sink {
	s := &slogSink{
		logger: logger,
		msg:    "det report",
		levels: map[det.Category]slog.Level{
			det.DevelopmentError: slog.LevelError,
			det.RuntimeError:     slog.LevelError,
			det.TransientFault:   slog.LevelWarn,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *slogSink) Write(ctx context.Context, event det.Event) error {
	level, ok := s.levels[event.Category]
	if !ok {
		level = slog.LevelError
	}
	s.logger.LogAttrs(ctx, level, s.msg,
		slog.String("category", event.Category.String()),
		slog.Int("module_id", int(event.Record.ModuleID)),
		slog.Int("instance_id", int(event.Record.InstanceID)),
		slog.Int("api_id", int(event.Record.APIID)),
		slog.Int("error_id", int(event.Record.ErrorID)),
		slog.Uint64("sequence", event.Sequence),
		slog.String("fingerprint", event.Fingerprint),
		slog.String("tracer_id", event.TracerID),
	)
	return nil
}

func (s *slogSink) Flush(ctx context.Context) error {
	return nil
}

func (s *slogSink) Close() error {
	return nil
}
