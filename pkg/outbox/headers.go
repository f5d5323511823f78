// Package outbox moves request context across the event bus as message headers.
package outbox

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

// SourceHeader names the service that emitted an event.
const SourceHeader = "Event-Source"

// BuildHeaders returns the headers for an event emitted by source, carrying the
// trace context and correlation id found in ctx.
func BuildHeaders(ctx context.Context, source string) map[string]string {
	headers := map[string]string{}

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	if correlationID, ok := correlationid.FromContext(ctx); ok {
		headers[correlationid.Header] = correlationID
	}
	if source != "" {
		headers[SourceHeader] = source
	}

	return headers
}

// ExtractContextFromHeaders restores the trace context and correlation id from
// headers into ctx. Header names are matched case-insensitively because some
// bridges lower-case them in transit.
func ExtractContextFromHeaders(ctx context.Context, headers map[string]string) context.Context {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headers))

	if correlationID := Lookup(headers, correlationid.Header); correlationID != "" {
		ctx = correlationid.NewContext(ctx, correlationID)
	}

	return ctx
}

// Lookup returns the value of the header named key, ignoring case.
func Lookup(headers map[string]string, key string) string {
	if v, ok := headers[key]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
