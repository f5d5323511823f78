package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/metric"
)

// Recoverer turns a handler panic into a 500 with the generic internal error
// body. The panic is logged with its stack, counted in m and recorded on the
// request span. http.ErrAbortHandler is re-panicked untouched.
func Recoverer(log *slog.Logger, m *metric.Metrics) func(http.Handler) http.Handler {
	errorMsg, err := json.Marshal(apierr.InternalServerErr)
	if err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				route := routePattern(r)
				m.PanicsTotal.WithLabelValues(r.Method, route).Inc()

				span := trace.SpanFromContext(r.Context())
				span.SetStatus(codes.Error, fmt.Sprintf("panic: %v", rvr))

				log.ErrorContext(r.Context(), "panic",
					slog.Any("recover", rvr),
					slog.String("method", r.Method),
					slog.String("route", route),
					slog.String("stack", string(debug.Stack())),
				)

				if r.Header.Get("Connection") != "Upgrade" {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					//nolint:errcheck
					w.Write(errorMsg)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// routePattern returns the chi route pattern of r, or "<unknown>" before routing.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "<unknown>"
}
