package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mekongmart/api/internal/platform/httpx"
	"github.com/mekongmart/api/internal/platform/requestctx"
)

// InjectLoggerMiddleware stores the base logger in the request context so
// downstream handlers and services can annotate it.
func InjectLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestctx.WithLogger(r.Context(), logger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLoggerMiddleware emits one structured log line per request with
// latency, status, and Cloud Trace correlation fields.
func RequestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		ctx := r.Context()
		logger := requestctx.Logger(ctx)

		route := r.URL.Path
		if rctx := chi.RouteContext(ctx); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		fields := []zap.Field{
			zap.String("method", SanitizeMethod(r.Method)),
			zap.String("route", SanitizeRoute(route)),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(ctx)),
		}
		if info, ok := requestctx.Trace(ctx); ok && info.TraceID != "" {
			if info.ProjectID != "" {
				fields = append(fields, zap.String("logging.googleapis.com/trace",
					fmt.Sprintf("projects/%s/traces/%s", info.ProjectID, info.TraceID)))
			}
			fields = append(fields,
				zap.String("logging.googleapis.com/spanId", info.SpanID),
				zap.Bool("logging.googleapis.com/trace_sampled", info.Sampled),
			)
		}

		logger.Info("request", fields...)
	})
}

// RecoveryMiddleware converts panics into 500 responses with a logged
// stack trace instead of tearing down the connection.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				logger := requestctx.Logger(r.Context())
				logger.Error("panic recovered",
					zap.Any("panic", rvr),
					zap.Stack("stacktrace"),
					zap.String("route", SanitizeRoute(r.URL.Path)),
				)
				httpx.WriteError(r.Context(), w, httpx.Error{
					Status:  http.StatusInternalServerError,
					Code:    "internal",
					Message: "internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
