// Package middleware implements the Chain of Responsibility pattern
// around operation execution, letting cross-cutting concerns wrap an
// operation.Body without the executor or the operation knowing about
// them.
//
// # Overview
//
// A Chain holds an ordered list of Middleware. Chain.Execute (or the
// WrapBody convenience adapter) runs each middleware in registration
// order, each able to inspect or modify inputs before calling next,
// inspect or modify outputs after next returns, or short-circuit by
// not calling next at all.
//
// # Built-in middleware
//
//   - LoggingMiddleware: logs start/completion through pkg/logging
//   - MetricsMiddleware: records duration/success/failure via a
//     pluggable MetricsCollector (InMemoryMetricsCollector for tests)
//   - RetryMiddleware / ConditionalRetryMiddleware: retries a failing
//     body call with exponential backoff
//   - TimeoutMiddleware / TimeoutMiddlewareWithContext: bounds body
//     execution time
//   - RateLimitMiddleware: token-bucket limiting, globally,
//     per-operation, and per-network
//   - SizeLimitMiddleware: bounds input/output size via JSON-estimated
//     byte counts; ValidateNetworkSize checks a whole composed Network
//     before execution begins
//   - ValidationMiddleware / InputValidationMiddleware: pre-execution
//     structural checks
//
// # Basic usage
//
//	chain := middleware.NewChain().
//		Use(middleware.NewLoggingMiddleware(logger)).
//		Use(middleware.NewMetricsMiddleware(collector)).
//		Use(middleware.NewTimeoutMiddleware(5 * time.Second))
//
//	wrapped := middleware.WrapBody(op, body, chain)
package middleware
