package log

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

const auditScope = "github.com/tuanvumaihuynh/product-catalog/audit"

// NewAuditLogger returns the logger used for audit records such as product creation.
// Records always go to base; when OTel logs are enabled they are also handed to the
// global OTel logger provider.
func NewAuditLogger(base *slog.Logger, cfg config.Otel) *slog.Logger {
	handler := base.Handler()
	if cfg.LogsEnabled {
		handler = fanoutHandler{handler, otelslog.NewHandler(auditScope)}
	}

	return slog.New(handler).With(slog.String("log_type", "audit"))
}

var _ slog.Handler = (fanoutHandler)(nil)

type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		errs = errors.Join(errs, h.Handle(ctx, r.Clone()))
	}
	return errs
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make(fanoutHandler, len(f))
	for i, h := range f {
		hs[i] = h.WithAttrs(attrs)
	}
	return hs
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	hs := make(fanoutHandler, len(f))
	for i, h := range f {
		hs[i] = h.WithGroup(name)
	}
	return hs
}
