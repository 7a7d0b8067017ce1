// Package middleware provides the Chain of Responsibility pattern for
// operation execution. This enables cross-cutting concerns like logging,
// metrics, rate limiting, retries, timeouts, and size/validation limits
// to be layered around an operation.Body without modifying the executor
// or the operation itself.
package middleware

import (
	"context"

	"github.com/pygraphkit/graphtik/pkg/operation"
)

// Handler runs one operation against a set of inputs and returns its
// outputs. Both the executor and middleware use this signature, so a
// Chain can wrap operation.Body with a Handler-shaped adapter.
type Handler func(ctx context.Context, op *operation.Operation, in operation.Inputs) (operation.Outputs, error)

// Middleware can inspect, modify, or short-circuit an operation's
// execution.
//
// Example middleware implementations:
//   - LoggingMiddleware: logs execution start/end
//   - MetricsMiddleware: records performance metrics
//   - ValidationMiddleware: validates inputs before execution
//   - TimeoutMiddleware: enforces execution timeouts
//   - RetryMiddleware: retries failed executions
type Middleware interface {
	// Process handles the operation's execution, optionally calling next
	// to continue the chain. Middleware can:
	//   - Pre-process: modify ctx or in before calling next
	//   - Execute: call next to continue the chain
	//   - Post-process: inspect or modify the outputs after next returns
	//   - Short-circuit: return without calling next
	Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error)

	// Name returns the middleware name for logging and debugging
	Name() string
}

// Chain is an ordered chain of middleware, executed in the order added.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates a new, empty middleware chain.
func NewChain() *Chain {
	return &Chain{middlewares: make([]Middleware, 0)}
}

// Use adds middleware to the chain. Middleware run in the order added.
func (c *Chain) Use(middleware Middleware) *Chain {
	c.middlewares = append(c.middlewares, middleware)
	return c
}

// Execute runs the middleware chain followed by the final handler.
//
// Example execution flow with 3 middleware:
//
//	M1.Process(pre) -> M2.Process(pre) -> M3.Process(pre) -> handler() ->
//	M3.Process(post) -> M2.Process(post) -> M1.Process(post) -> return
func (c *Chain) Execute(ctx context.Context, op *operation.Operation, in operation.Inputs, handler Handler) (operation.Outputs, error) {
	if len(c.middlewares) == 0 {
		return handler(ctx, op, in)
	}

	index := 0
	var next Handler
	next = func(ctx context.Context, op *operation.Operation, in operation.Inputs) (operation.Outputs, error) {
		if index >= len(c.middlewares) {
			return handler(ctx, op, in)
		}
		mw := c.middlewares[index]
		index++
		return mw.Process(ctx, op, in, next)
	}

	return next(ctx, op, in)
}

// Len returns the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Middlewares returns a copy of all middleware in the chain.
func (c *Chain) Middlewares() []Middleware {
	result := make([]Middleware, len(c.middlewares))
	copy(result, c.middlewares)
	return result
}

// WrapBody adapts a Chain into an operation.Body decorator: every call
// to the returned Body runs through the chain before reaching body.
func WrapBody(op *operation.Operation, body operation.Body, chain *Chain) operation.Body {
	return func(in operation.Inputs) (operation.Outputs, error) {
		return chain.Execute(context.Background(), op, in, func(_ context.Context, _ *operation.Operation, in operation.Inputs) (operation.Outputs, error) {
			return body(in)
		})
	}
}
