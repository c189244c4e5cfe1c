// Package det provides a development error tracer: the central sink that
// base software modules report anomalies to.
//
// A Tracer keeps three independent append-only logs, one per Category:
//
//   - DevelopmentError: incorrect use of an API by a caller
//   - RuntimeError: a failure detected during normal operation
//   - TransientFault: a failure expected to resolve on its own
//
// Each report is a Record of four identifiers (module, instance, api,
// error). The tracer never interprets, filters or rate-limits what it is
// given; it records and forwards.
//
// # Quick Start
//
//	tracer := det.New(
//	    det.WithSink(stderr.NewStderrSink()),
//	    det.WithLogger(logger),
//	)
//	tracer.Init(det.Config{})
//	tracer.Start()
//
//	if tracer.ReportError(ctx, moduleID, 0, apiID, errParamPointer) != stdtypes.OK {
//	    // only possible with WithCapacity(n, det.RejectNew)
//	}
//	for _, rec := range tracer.Errors() {
//	    fmt.Println(rec)
//	}
//
// # Design Principles
//
//   - Reporting never fails the caller: sink errors are logged and swallowed
//   - Categories are disjoint: clearing one never touches another
//   - Unbounded by default: WithCapacity opts into a ring per category
package det
