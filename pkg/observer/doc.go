// Package observer provides an event-driven observer pattern for pipeline
// execution.
//
// # Overview
//
// The observer package lets library consumers monitor execution lifecycle
// (execution start/end, operation start/success/failure) without coupling
// to the executor implementation. A Manager fans a single Event out to any
// number of registered Observer implementations, each notified in its own
// goroutine so a slow or panicking observer cannot stall or crash the
// execution it is watching.
//
// # Basic usage
//
//	mgr := observer.NewManager()
//	mgr.Register(observer.NewConsoleObserver())
//	mgr.Register(telemetry.NewTelemetryObserver(provider))
//
//	mgr.Notify(ctx, observer.Event{
//		Type:        observer.EventOperationStart,
//		Status:      observer.StatusStarted,
//		ExecutionID: execID,
//		OperationName: op.Name(),
//	})
//
// # Built-in observers
//
// NoOpObserver discards every event. ConsoleObserver renders events through
// a Logger (DefaultLogger writes to stdout/stderr via log.Logger, or supply
// any Logger implementation, e.g. one backed by pkg/logging).
//
// # Thread safety
//
// Manager.Notify dispatches to each observer in its own goroutine and
// recovers observer panics so one faulty observer cannot affect another or
// the caller. Observer implementations should treat OnEvent as concurrent.
package observer
