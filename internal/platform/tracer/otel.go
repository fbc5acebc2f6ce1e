package tracer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "facebank/pkg/domain-errors"
)

const instrumentationName = "facebank"

// OTel reports spans to the global OpenTelemetry provider, or to the trace.Tracer
// given to NewOTelWith.
type OTel struct {
	tracer trace.Tracer
}

func NewOTel() *OTel {
	return NewOTelWith(otel.Tracer(instrumentationName))
}

func NewOTelWith(t trace.Tracer) *OTel {
	if t == nil {
		t = otel.Tracer(instrumentationName)
	}
	return &OTel{tracer: t}
}

func (t *OTel) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(keyValues(attrs)...))
	return ctx, otelSpan{span}
}

type otelSpan struct {
	span trace.Span
}

// End tags the span with the domain error code. Only faults (transport, internal)
// mark the span as errored; rejections and validation failures are expected outcomes
// and are recorded as events.
func (s otelSpan) End(err error) {
	if err != nil {
		code, description := status(err)
		s.span.SetAttributes(attribute.String(AttrErrorCode, string(dErrors.CodeOf(err))))
		if code == codes.Error {
			s.span.RecordError(err)
			s.span.SetStatus(code, description)
		} else {
			s.span.AddEvent("outcome", trace.WithAttributes(attribute.String("message", description)))
		}
	}
	s.span.End()
}

func (s otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(keyValues(attrs)...)
}

func (s otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(keyValues(attrs)...))
}

func status(err error) (codes.Code, string) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeTransport, dErrors.CodeInternal:
		return codes.Error, err.Error()
	default:
		return codes.Unset, err.Error()
	}
}

func keyValues(attrs []Attribute) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		switch v := a.Value.(type) {
		case string:
			kvs = append(kvs, attribute.String(a.Key, v))
		case bool:
			kvs = append(kvs, attribute.Bool(a.Key, v))
		case int64:
			kvs = append(kvs, attribute.Int64(a.Key, v))
		case int:
			kvs = append(kvs, attribute.Int(a.Key, v))
		case time.Duration:
			kvs = append(kvs, attribute.Int64(a.Key, v.Milliseconds()))
		}
	}
	return kvs
}

var (
	_ Tracer = (*OTel)(nil)
	_ Tracer = Noop{}
)
