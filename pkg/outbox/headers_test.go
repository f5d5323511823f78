package outbox_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
)

func TestHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))
	ctx = correlationid.NewContext(ctx, "corr-1")

	headers := outbox.BuildHeaders(ctx, "product-catalog")
	assert.Equal(t, "corr-1", headers[correlationid.Header])
	assert.Equal(t, "product-catalog", headers[outbox.SourceHeader])
	assert.Contains(t, headers["traceparent"], traceID.String())

	got := outbox.ExtractContextFromHeaders(context.Background(), headers)

	id, ok := correlationid.FromContext(got)
	assert.True(t, ok)
	assert.Equal(t, "corr-1", id)
	assert.Equal(t, traceID, trace.SpanContextFromContext(got).TraceID())
}

func TestBuildHeadersWithoutContext(t *testing.T) {
	headers := outbox.BuildHeaders(context.Background(), "")

	assert.NotContains(t, headers, correlationid.Header)
	assert.NotContains(t, headers, outbox.SourceHeader)
}

func TestExtractLowerCasedHeaders(t *testing.T) {
	headers := map[string]string{"x-correlation-id": "corr-2"}

	got := outbox.ExtractContextFromHeaders(context.Background(), headers)

	id, ok := correlationid.FromContext(got)
	assert.True(t, ok)
	assert.Equal(t, "corr-2", id)
}

func TestLookup(t *testing.T) {
	headers := map[string]string{"event-source": "product-catalog"}

	assert.Equal(t, "product-catalog", outbox.Lookup(headers, outbox.SourceHeader))
	assert.Empty(t, outbox.Lookup(headers, "Missing"))
}
