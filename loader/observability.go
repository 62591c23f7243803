package loader

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/metacall/metacall-go/telemetry"
)

// operation identifies a Registry-level action for logging, metrics, and
// tracing purposes.
type operation string

const (
	opInit    operation = "init"
	opDestroy operation = "destroy"
)

// observability bundles the telemetry.Set a Registry instruments itself
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

// startOp opens a span for op against tag and returns the wall-clock
// start time endOp needs to record the operation's duration.
func (o *observability) startOp(ctx context.Context, op operation, tag string) (context.Context, time.Time, telemetry.Span) {
	spanCtx, span := o.tracer.Start(ctx, "loader.registry."+string(op),
		trace.WithAttributes(attribute.String("loader.tag", tag)))
	return spanCtx, time.Now(), span
}

// endOp closes out the span opened by startOp, emitting a log line and
// duration/outcome metrics.
func (o *observability) endOp(ctx context.Context, start time.Time, span telemetry.Span, op operation, tag string, err error) {
	dur := time.Since(start)
	tags := []string{"operation", string(op), "tag", tag}
	o.metrics.RecordTimer("loader.registry.operation.duration", dur, tags...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.IncCounter("loader.registry.operation.error", 1, tags...)
		o.logger.Error(ctx, "registry operation failed", "operation", string(op), "tag", tag, "duration_ms", dur.Milliseconds(), "error", err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		o.metrics.IncCounter("loader.registry.operation.success", 1, tags...)
		o.logger.Info(ctx, "registry operation completed", "operation", string(op), "tag", tag, "duration_ms", dur.Milliseconds())
	}
	span.End()
}

// recordOp logs and records a metric for an operation that failed before
// a span could meaningfully be opened (e.g. an unknown tag), without the
// duration a startOp/endOp pair would measure.
func (o *observability) recordOp(ctx context.Context, op operation, tag string, dur time.Duration, err error) {
	tags := []string{"operation", string(op), "tag", tag}
	o.metrics.IncCounter("loader.registry.operation.error", 1, tags...)
	o.logger.Error(ctx, "registry operation failed", "operation", string(op), "tag", tag, "duration_ms", dur.Milliseconds(), "error", err.Error())
}
