package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/pygraphkit/graphtik/pkg/operation"
)

// MetricsCollector defines the interface for metrics collection.
type MetricsCollector interface {
	RecordOperationExecution(operationName string, duration time.Duration, success bool)
	RecordOperationError(operationName string, errorType string)
}

// MetricsMiddleware collects execution metrics for operations: timing,
// success/failure rates, and error types.
type MetricsMiddleware struct {
	collector MetricsCollector
}

// NewMetricsMiddleware creates a new metrics middleware.
func NewMetricsMiddleware(collector MetricsCollector) *MetricsMiddleware {
	return &MetricsMiddleware{collector: collector}
}

// Process records metrics for an operation's execution.
func (m *MetricsMiddleware) Process(ctx context.Context, op *operation.Operation, in operation.Inputs, next Handler) (operation.Outputs, error) {
	startTime := time.Now()

	out, err := next(ctx, op, in)

	duration := time.Since(startTime)
	success := err == nil

	if m.collector != nil {
		m.collector.RecordOperationExecution(op.Name(), duration, success)
		if err != nil {
			m.collector.RecordOperationError(op.Name(), err.Error())
		}
	}

	return out, err
}

// Name returns the middleware name.
func (m *MetricsMiddleware) Name() string {
	return "Metrics"
}

// InMemoryMetricsCollector is a simple in-memory metrics collector, used
// in tests and in deployments that don't wire a Prometheus exporter.
type InMemoryMetricsCollector struct {
	mu             sync.RWMutex
	executionCount map[string]int64
	successCount   map[string]int64
	failureCount   map[string]int64
	totalDuration  map[string]time.Duration
	errorCount     map[string]int64
}

// NewInMemoryMetricsCollector creates a new in-memory metrics collector.
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		executionCount: make(map[string]int64),
		successCount:   make(map[string]int64),
		failureCount:   make(map[string]int64),
		totalDuration:  make(map[string]time.Duration),
		errorCount:     make(map[string]int64),
	}
}

// RecordOperationExecution records one operation execution.
func (c *InMemoryMetricsCollector) RecordOperationExecution(operationName string, duration time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.executionCount[operationName]++
	c.totalDuration[operationName] += duration

	if success {
		c.successCount[operationName]++
	} else {
		c.failureCount[operationName]++
	}
}

// RecordOperationError records an operation error by error message.
func (c *InMemoryMetricsCollector) RecordOperationError(operationName string, errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorCount[errorType]++
}

// GetExecutionCount returns the total execution count for an operation.
func (c *InMemoryMetricsCollector) GetExecutionCount(operationName string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.executionCount[operationName]
}

// GetSuccessCount returns the success count for an operation.
func (c *InMemoryMetricsCollector) GetSuccessCount(operationName string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.successCount[operationName]
}

// GetFailureCount returns the failure count for an operation.
func (c *InMemoryMetricsCollector) GetFailureCount(operationName string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failureCount[operationName]
}

// GetAverageDuration returns the average execution duration for an operation.
func (c *InMemoryMetricsCollector) GetAverageDuration(operationName string) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()

	count := c.executionCount[operationName]
	if count == 0 {
		return 0
	}
	return c.totalDuration[operationName] / time.Duration(count)
}

// GetErrorCount returns the count for a specific error message.
func (c *InMemoryMetricsCollector) GetErrorCount(errorType string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errorCount[errorType]
}

// Reset clears all metrics.
func (c *InMemoryMetricsCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.executionCount = make(map[string]int64)
	c.successCount = make(map[string]int64)
	c.failureCount = make(map[string]int64)
	c.totalDuration = make(map[string]time.Duration)
	c.errorCount = make(map[string]int64)
}
