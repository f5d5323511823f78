package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

// NewSlogLogger creates the process logger and installs it as the slog default.
// attrs are attached to every record, typically the name of the binary.
func NewSlogLogger(cfg config.Log, attrs ...slog.Attr) *slog.Logger {
	handler := newEnrichedHandler(newHandler(os.Stdout, cfg)).WithAttrs(attrs)

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func newHandler(w io.Writer, cfg config.Log) slog.Handler {
	if cfg.Format == config.LogFormatJSON {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     cfg.Level,
			AddSource: cfg.AddSource,
		})
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      cfg.Level,
		AddSource:  cfg.AddSource,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			// errors are printed in red
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
}
