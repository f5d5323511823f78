package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

// InitLoggerProvider installs the global OTel logger provider that ships
// audit records to the managed log backend. It is a no-op unless logs are enabled.
func InitLoggerProvider(ctx context.Context, cfg config.Otel) (CleanupFunc, error) {
	if !cfg.LogsEnabled || cfg.LogsURL == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlploghttp.Option{
		otlploghttp.WithEndpointURL(cfg.LogsURL),
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}
	if cfg.CollectorAuth != "" {
		opts = append(opts, otlploghttp.WithHeaders(map[string]string{
			"Authorization": cfg.CollectorAuth,
		}))
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create log exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter,
			sdklog.WithExportTimeout(10*time.Second),
		)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(provider)

	return provider.Shutdown, nil
}
