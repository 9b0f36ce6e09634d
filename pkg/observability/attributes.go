package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Assessment semantic convention attributes.
var (
	AttrOperation = attribute.Key("agiaef.operation")
	AttrSystem    = attribute.Key("agiaef.system")
	AttrMode      = attribute.Key("agiaef.mode")
	AttrDimension = attribute.Key("agiaef.dimension")
	AttrComposite = attribute.Key("agiaef.composite")
	AttrStatus    = attribute.Key("agiaef.audit_status")
	AttrDomain    = attribute.Key("agiaef.domain")
	AttrParallel  = attribute.Key("agiaef.parallel")
)

// AssessmentOperation creates attributes for a full assessment run.
func AssessmentOperation(system, mode string, parallel bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrSystem.String(system),
		AttrMode.String(mode),
		AttrParallel.Bool(parallel),
	}
}

// DimensionOperation creates attributes for one dimension assessment.
func DimensionOperation(dimension string) []attribute.KeyValue {
	return []attribute.KeyValue{AttrDimension.String(dimension)}
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanStatus records err on the current span.
func SetSpanStatus(ctx context.Context, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
