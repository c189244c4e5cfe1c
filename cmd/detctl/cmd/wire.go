package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/strongdm/ai-cxdb-det/internal/config"
	"github.com/strongdm/ai-cxdb-det/pkg/det"
	"github.com/strongdm/ai-cxdb-det/pkg/det/sinks/async"
	"github.com/strongdm/ai-cxdb-det/pkg/det/sinks/cxdb"
	"github.com/strongdm/ai-cxdb-det/pkg/det/sinks/multi"
	"github.com/strongdm/ai-cxdb-det/pkg/det/sinks/prom"
	"github.com/strongdm/ai-cxdb-det/pkg/det/sinks/slogsink"
	"github.com/strongdm/ai-cxdb-det/pkg/det/sinks/stderr"
	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
)

// dialCXDB is replaced in tests.
var dialCXDB = func(addr, clientTag string) (cxdb.CXDBClient, io.Closer, error) {
	client, err := cxdbclient.Dial(addr, cxdbclient.WithClientTag(clientTag))
	if err != nil {
		return nil, nil, err
	}
	return client, closerFunc(func() error {
		client.Close()
		return nil
	}), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// wiring holds what buildTracer created, for teardown.
type wiring struct {
	tracer  *det.Tracer
	closers []io.Closer
}

func (w *wiring) close() error {
	var errs []error
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// buildTracer wires a tracer from configuration. reg may be nil to skip
// Prometheus metrics; traceOut receives the stderr sink output.
func buildTracer(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer, traceOut io.Writer) (_ *wiring, err error) {
	policy, err := cfg.Tracer.Policy()
	if err != nil {
		return nil, err
	}

	w := &wiring{}
	defer func() {
		if err != nil {
			_ = w.close()
		}
	}()
	var sinks []det.Sink

	if cfg.Sinks.Stderr {
		opts := []stderr.StderrSinkOption{stderr.WithWriter(traceOut)}
		if cfg.Sinks.Verbose {
			opts = append(opts, stderr.WithVerbose())
		}
		sinks = append(sinks, stderr.NewStderrSink(opts...))
	}

	if cfg.Sinks.Slog {
		sinks = append(sinks, slogsink.NewSlogSink(logger))
	}

	if reg != nil {
		sink, err := prom.NewPromSink(reg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}

	if cfg.Sinks.CXDBAddr != "" {
		client, closer, err := dialCXDB(cfg.Sinks.CXDBAddr, cfg.Sinks.CXDBClientTag)
		if err != nil {
			return nil, fmt.Errorf("connect to cxdb at %s: %w", cfg.Sinks.CXDBAddr, err)
		}
		w.closers = append(w.closers, closer)

		var sink det.Sink = cxdb.NewCXDBSink(client, cxdb.WithClientTag(cfg.Sinks.CXDBClientTag))
		if cfg.Sinks.AsyncQueue > 0 {
			sink = async.NewAsyncSink(sink,
				async.WithQueueSize(cfg.Sinks.AsyncQueue),
				async.WithOnDropped(func(n int) {
					logger.Warn("cxdb trace queue overflow", "dropped", n)
				}),
			)
		}
		sinks = append(sinks, sink)
		logger.Info("cxdb sink enabled", "addr", cfg.Sinks.CXDBAddr, "async_queue", cfg.Sinks.AsyncQueue)
	}

	w.tracer = det.New(
		det.WithSink(multi.NewMultiSink(sinks...)),
		det.WithLogger(logger),
		det.WithCapacity(cfg.Tracer.Capacity, policy),
		det.WithOnDropped(func(c det.Category, r det.Record) {
			logger.Warn("det log full", "category", c.String(), "record", r.String(), "policy", policy.String())
		}),
	)
	return w, nil
}
