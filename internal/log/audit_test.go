package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/pkg/correlationid"
)

func TestNewAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(newEnrichedHandler(slog.NewJSONHandler(&buf, nil)))

	logger := NewAuditLogger(base, config.Otel{})

	ctx := correlationid.NewContext(context.Background(), "corr-1")
	logger.InfoContext(ctx, "Product created: p1", slog.String("product_id", "p1"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Product created: p1", rec["msg"])
	assert.Equal(t, "audit", rec["log_type"])
	assert.Equal(t, "p1", rec["product_id"])
	assert.Equal(t, "corr-1", rec["correlation_id"])
}

func TestFanoutHandler(t *testing.T) {
	var first, second bytes.Buffer
	h := fanoutHandler{
		slog.NewJSONHandler(&first, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&second, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	logger := slog.New(h)

	logger.Info("info message")
	assert.Contains(t, first.String(), "info message")
	assert.Empty(t, second.String())

	logger.Error("error message")
	assert.Contains(t, first.String(), "error message")
	assert.Contains(t, second.String(), "error message")
}
