// Package logging provides structured logging for the pipeline engine.
//
// # Overview
//
// The logging package wraps log/slog with pipeline-specific contextual
// fields: execution_id, network_id, operation_name, and op_state. It
// supports JSON (production) and text (development) output.
//
// # Basic usage
//
//	logger := logging.New(logging.Config{Level: "info"})
//	logger.WithExecutionID(execID).Info("execution started")
//
//	opLogger := logger.WithOperation(op.Name())
//	opLogger.WithState(executor.Completed.String()).Debugf("merged %d outputs", len(out))
//
// # Context propagation
//
//	ctx = logger.WithContext(ctx)
//	// later, in a different call frame:
//	logging.FromContext(ctx).Info("resumed")
//
// # Thread safety
//
// Logger values are immutable after construction; With* methods return
// a new *Logger sharing the underlying slog handler, so a logger may be
// derived and used concurrently from multiple goroutines without
// additional synchronization.
package logging
