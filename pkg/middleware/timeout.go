package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/pygraphkit/graphtik/pkg/operation"
)

// TimeoutMiddleware enforces execution timeouts for operations. If an
// operation's body takes longer than the configured timeout, the call
// is abandoned and an error is returned (the body's goroutine is not
// forcibly killed, matching Go's cooperative cancellation model).
type TimeoutMiddleware struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddleware creates a new timeout middleware with a default timeout.
func NewTimeoutMiddleware(defaultTimeout time.Duration) *TimeoutMiddleware {
	return &TimeoutMiddleware{defaultTimeout: defaultTimeout}
}

// Process enforces the execution timeout.
func (m *TimeoutMiddleware) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	timeout := m.defaultTimeout
	if timeout <= 0 {
		return next(ctx, op, in)
	}

	type result struct {
		out operation.Outputs
		err error
	}
	resultChan := make(chan result, 1)

	go func() {
		out, err := next(ctx, op, in)
		resultChan <- result{out: out, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.out, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("operation %q timed out after %v", op.Name(), timeout)
	}
}

// Name returns the middleware name.
func (m *TimeoutMiddleware) Name() string {
	return "Timeout"
}

// TimeoutMiddlewareWithContext is a context-aware timeout middleware that
// also cancels ctx passed to next so a well-behaved body can observe
// cancellation rather than only being abandoned.
type TimeoutMiddlewareWithContext struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddlewareWithContext creates a context-aware timeout middleware.
func NewTimeoutMiddlewareWithContext(defaultTimeout time.Duration) *TimeoutMiddlewareWithContext {
	return &TimeoutMiddlewareWithContext{defaultTimeout: defaultTimeout}
}

// Process enforces the execution timeout via context cancellation.
func (m *TimeoutMiddlewareWithContext) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	timeout := m.defaultTimeout
	if timeout <= 0 {
		return next(ctx, op, in)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		out operation.Outputs
		err error
	}
	resultChan := make(chan result, 1)

	go func() {
		out, err := next(timeoutCtx, op, in)
		resultChan <- result{out: out, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.out, res.err
	case <-timeoutCtx.Done():
		return nil, fmt.Errorf("operation %q timed out after %v", op.Name(), timeout)
	}
}

// Name returns the middleware name.
func (m *TimeoutMiddlewareWithContext) Name() string {
	return "TimeoutWithContext"
}
