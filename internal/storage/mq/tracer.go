package mq

import (
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// tracer creates the RabbitMQ publish and delivery spans.
var tracer = otel.Tracer("internal/storage/mq")

// kTracer is installed as a hook on every franz-go client. Record headers
// carry the W3C trace context and baggage written by the outbox.
var kTracer = kotel.NewTracer(
	kotel.TracerPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)),
)
