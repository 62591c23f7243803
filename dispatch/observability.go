package dispatch

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/metacall/metacall-go/telemetry"
)

// operation identifies a Dispatcher-level action for logging, metrics, and
// tracing purposes.
type operation string

const (
	opLoad    operation = "load"
	opInvoke  operation = "invoke"
	opAwait   operation = "await"
	opDestroy operation = "destroy"
)

// observability bundles the telemetry.Set a Dispatcher instruments itself
// with, mirroring the span-plus-counter-plus-timer pattern the retrieved
// registry/observability.go example wraps every operation in.
type observability struct {
	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer
}

func newObservability(tel telemetry.Set) *observability {
	obs := &observability{logger: tel.Logger, metrics: tel.Metrics, tracer: tel.Tracer}
	if obs.logger == nil {
		obs.logger = telemetry.NewNoopLogger()
	}
	if obs.metrics == nil {
		obs.metrics = telemetry.NewNoopMetrics()
	}
	if obs.tracer == nil {
		obs.tracer = telemetry.NewNoopTracer()
	}
	return obs
}

// startOp opens a span for op against name (a tag, symbol, or handle name
// depending on the caller) and returns the wall-clock start time endOp
// needs to record the operation's duration.
func (o *observability) startOp(ctx context.Context, op operation, name string) (context.Context, time.Time, telemetry.Span) {
	spanCtx, span := o.tracer.Start(ctx, "dispatch."+string(op),
		trace.WithAttributes(attribute.String("dispatch.name", name)))
	return spanCtx, time.Now(), span
}

// endOp closes out the span opened by startOp, emitting a log line and
// duration/outcome metrics.
func (o *observability) endOp(ctx context.Context, start time.Time, span telemetry.Span, op operation, name string, err error) {
	dur := time.Since(start)
	tags := []string{"operation", string(op), "name", name}
	o.metrics.RecordTimer("dispatch.operation.duration", dur, tags...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.IncCounter("dispatch.operation.error", 1, tags...)
		o.logger.Error(ctx, "dispatch operation failed", "operation", string(op), "name", name, "duration_ms", dur.Milliseconds(), "error", err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		o.metrics.IncCounter("dispatch.operation.success", 1, tags...)
		o.logger.Info(ctx, "dispatch operation completed", "operation", string(op), "name", name, "duration_ms", dur.Milliseconds())
	}
	span.End()
}
