package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "graphtik-pipeline-engine"

	metricExecutions     = "execution.total"
	metricExecutionDur   = "execution.duration"
	metricExecSuccess    = "execution.success.total"
	metricExecFailure    = "execution.failure.total"
	metricOperations     = "operation.total"
	metricOperationDur   = "operation.duration"
	metricOpSuccess      = "operation.success.total"
	metricOpFailure      = "operation.failure.total"
	metricOpEndured      = "operation.endured.total"
	metricOpRescheduled  = "operation.rescheduled.total"
)

// Provider manages OpenTelemetry setup and provides access to tracers and meters.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider trace.TracerProvider
	meter          metric.Meter
	tracer         trace.Tracer

	executions    metric.Int64Counter
	executionDur  metric.Float64Histogram
	execSuccess   metric.Int64Counter
	execFailure   metric.Int64Counter
	operations    metric.Int64Counter
	operationDur  metric.Float64Histogram
	opSuccess     metric.Int64Counter
	opFailure     metric.Int64Counter
	opEndured     metric.Int64Counter
	opRescheduled metric.Int64Counter

	mu sync.RWMutex
}

// Config holds telemetry configuration
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	EnableMetrics  bool
}

// DefaultConfig returns default telemetry configuration
func DefaultConfig() Config {
	return Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    "development",
		EnableTracing:  true,
		EnableMetrics:  true,
	}
}

// NewProvider creates a new telemetry provider with a Prometheus metrics
// exporter, initializing OpenTelemetry per config.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	provider := &Provider{}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			attribute.String("environment", config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if config.EnableMetrics {
		if err := provider.initMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	if config.EnableTracing {
		provider.initTracing()
	}

	return provider, nil
}

func (p *Provider) initMetrics(res *resource.Resource) error {
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(p.meterProvider)
	p.meter = p.meterProvider.Meter(serviceName)

	if err := p.createMetricInstruments(); err != nil {
		return fmt.Errorf("failed to create metric instruments: %w", err)
	}
	return nil
}

func (p *Provider) initTracing() {
	p.tracerProvider = otel.GetTracerProvider()
	p.tracer = p.tracerProvider.Tracer(serviceName)
}

func (p *Provider) createMetricInstruments() error {
	var err error

	if p.executions, err = p.meter.Int64Counter(metricExecutions,
		metric.WithDescription("Total number of network executions")); err != nil {
		return err
	}
	if p.executionDur, err = p.meter.Float64Histogram(metricExecutionDur,
		metric.WithDescription("Execution duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return err
	}
	if p.execSuccess, err = p.meter.Int64Counter(metricExecSuccess,
		metric.WithDescription("Total number of fully-completed executions")); err != nil {
		return err
	}
	if p.execFailure, err = p.meter.Int64Counter(metricExecFailure,
		metric.WithDescription("Total number of executions ending in a fatal failure")); err != nil {
		return err
	}

	if p.operations, err = p.meter.Int64Counter(metricOperations,
		metric.WithDescription("Total number of operation executions")); err != nil {
		return err
	}
	if p.operationDur, err = p.meter.Float64Histogram(metricOperationDur,
		metric.WithDescription("Operation execution duration in milliseconds"), metric.WithUnit("ms")); err != nil {
		return err
	}
	if p.opSuccess, err = p.meter.Int64Counter(metricOpSuccess,
		metric.WithDescription("Total number of successful operation executions")); err != nil {
		return err
	}
	if p.opFailure, err = p.meter.Int64Counter(metricOpFailure,
		metric.WithDescription("Total number of failed operation executions")); err != nil {
		return err
	}
	if p.opEndured, err = p.meter.Int64Counter(metricOpEndured,
		metric.WithDescription("Total number of endured operation failures (execution continued)")); err != nil {
		return err
	}
	if p.opRescheduled, err = p.meter.Int64Counter(metricOpRescheduled,
		metric.WithDescription("Total number of rescheduled (partial-output) operation outcomes")); err != nil {
		return err
	}
	return nil
}

// Tracer returns the tracer for creating spans
func (p *Provider) Tracer() trace.Tracer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tracer
}

// Meter returns the meter for recording metrics
func (p *Provider) Meter() metric.Meter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meter
}

// RecordExecution records metrics for one Solution being produced.
func (p *Provider) RecordExecution(ctx context.Context, networkID string, duration time.Duration, success bool, operationsExecuted int) {
	if p.meter == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("network.id", networkID),
		attribute.Int("operations.executed", operationsExecuted),
	}

	p.executions.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.executionDur.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if success {
		p.execSuccess.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		p.execFailure.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordOperation records metrics for one operation's execution.
func (p *Provider) RecordOperation(ctx context.Context, operationName string, duration time.Duration, success, endured, rescheduled bool) {
	if p.meter == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation.name", operationName),
	}

	p.operations.Add(ctx, 1, metric.WithAttributes(attrs...))
	p.operationDur.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if success {
		p.opSuccess.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		p.opFailure.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if endured {
		p.opEndured.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if rescheduled {
		p.opRescheduled.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// Shutdown gracefully shuts down the telemetry provider
func (p *Provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown meter provider: %w", err)
		}
	}
	return nil
}
