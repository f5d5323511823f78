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
)

func TestContextWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newEnrichedHandler(slog.NewJSONHandler(&buf, nil)))

	ctx := ContextWithAttrs(context.Background(), slog.String("object_key", "for_create/a.csv"))
	ctx = ContextWithAttrs(ctx, slog.String("product_id", "p1"))
	logger.InfoContext(ctx, "row imported")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "for_create/a.csv", rec["object_key"])
	assert.Equal(t, "p1", rec["product_id"])
}

func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	h := newHandler(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelWarn})
	logger := slog.New(newEnrichedHandler(h).WithAttrs([]slog.Attr{slog.String("app", "pc-worker")}))

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "pc-worker", rec["app"])
}
