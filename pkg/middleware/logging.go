package middleware

import (
	"context"
	"time"

	"github.com/pygraphkit/graphtik/pkg/logging"
	"github.com/pygraphkit/graphtik/pkg/operation"
)

// LoggingMiddleware logs operation execution start and completion,
// recording execution time and errors.
type LoggingMiddleware struct {
	logger *logging.Logger
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger *logging.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

// Process logs operation execution.
func (m *LoggingMiddleware) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	opLogger := m.logger.WithOperation(op.Name())

	opLogger.Debug("operation execution started")
	startTime := time.Now()

	out, err := next(ctx, op, in)

	duration := time.Since(startTime)

	if err != nil {
		opLogger.
			WithError(err).
			WithField("duration_ms", duration.Milliseconds()).
			Error("operation execution failed")
	} else {
		opLogger.
			WithField("duration_ms", duration.Milliseconds()).
			Debug("operation execution completed")
	}

	return out, err
}

// Name returns the middleware name.
func (m *LoggingMiddleware) Name() string {
	return "Logging"
}
