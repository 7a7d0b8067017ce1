package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pygraphkit/graphtik/pkg/observer"
)

// TelemetryObserver implements observer.Observer and records telemetry
// data for pipeline execution events.
type TelemetryObserver struct {
	provider *Provider

	executionSpan trace.Span
	opSpans       map[string]trace.Span

	executionStartTime time.Time
	opStartTimes       map[string]time.Time
}

// NewTelemetryObserver creates a new telemetry observer
func NewTelemetryObserver(provider *Provider) *TelemetryObserver {
	return &TelemetryObserver{
		provider:     provider,
		opSpans:      make(map[string]trace.Span),
		opStartTimes: make(map[string]time.Time),
	}
}

// OnEvent handles execution events and records telemetry data
func (o *TelemetryObserver) OnEvent(ctx context.Context, event observer.Event) {
	switch event.Type {
	case observer.EventExecutionStart:
		o.handleExecutionStart(ctx, event)
	case observer.EventExecutionEnd:
		o.handleExecutionEnd(ctx, event)
	case observer.EventOperationStart:
		o.handleOperationStart(ctx, event)
	case observer.EventOperationSuccess:
		o.handleOperationSuccess(ctx, event)
	case observer.EventOperationFailure:
		o.handleOperationFailure(ctx, event)
	}
}

func (o *TelemetryObserver) handleExecutionStart(ctx context.Context, event observer.Event) {
	_, span := o.provider.Tracer().Start(ctx, "network.execute",
		trace.WithAttributes(
			attribute.String("network.id", event.NetworkID),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	o.executionSpan = span
	o.executionStartTime = event.Timestamp
}

func (o *TelemetryObserver) handleExecutionEnd(ctx context.Context, event observer.Event) {
	duration := time.Since(o.executionStartTime)

	executed := 0
	if val, ok := event.Metadata["operations_executed"]; ok {
		if count, ok := val.(int); ok {
			executed = count
		}
	}

	success := event.Status == observer.StatusCompleted || event.Status == observer.StatusSuccess
	o.provider.RecordExecution(ctx, event.NetworkID, duration, success, executed)

	if o.executionSpan != nil {
		if event.Error != nil {
			o.executionSpan.RecordError(event.Error)
			o.executionSpan.SetStatus(codes.Error, event.Error.Error())
		} else {
			o.executionSpan.SetStatus(codes.Ok, "execution completed successfully")
		}
		o.executionSpan.End()
	}
}

func (o *TelemetryObserver) handleOperationStart(ctx context.Context, event observer.Event) {
	var spanCtx context.Context
	if o.executionSpan != nil {
		spanCtx = trace.ContextWithSpan(ctx, o.executionSpan)
	} else {
		spanCtx = ctx
	}

	_, span := o.provider.Tracer().Start(spanCtx, "operation.execute",
		trace.WithAttributes(
			attribute.String("operation.name", event.OperationName),
			attribute.String("execution.id", event.ExecutionID),
		),
	)

	o.opSpans[event.OperationName] = span
	o.opStartTimes[event.OperationName] = event.Timestamp
}

func (o *TelemetryObserver) handleOperationSuccess(ctx context.Context, event observer.Event) {
	o.handleOperationEnd(ctx, event, true)
}

func (o *TelemetryObserver) handleOperationFailure(ctx context.Context, event observer.Event) {
	o.handleOperationEnd(ctx, event, false)
}

func (o *TelemetryObserver) handleOperationEnd(ctx context.Context, event observer.Event, success bool) {
	var duration time.Duration
	if startTime, ok := o.opStartTimes[event.OperationName]; ok {
		duration = time.Since(startTime)
		delete(o.opStartTimes, event.OperationName)
	}

	endured, _ := event.Metadata["endured"].(bool)
	rescheduled, _ := event.Metadata["rescheduled"].(bool)
	o.provider.RecordOperation(ctx, event.OperationName, duration, success, endured, rescheduled)

	if span, ok := o.opSpans[event.OperationName]; ok {
		if event.Error != nil {
			span.RecordError(event.Error)
			span.SetStatus(codes.Error, event.Error.Error())
		} else {
			span.SetStatus(codes.Ok, "operation completed successfully")
		}
		span.End()
		delete(o.opSpans, event.OperationName)
	}
}
