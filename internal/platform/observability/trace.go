package observability

import (
	"encoding/binary"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mekongmart/api/internal/platform/requestctx"
)

const tracerName = "github.com/mekongmart/api/internal/platform/observability"

// TraceMiddleware starts a server span for each request, honouring the
// X-Cloud-Trace-Context header when Cloud Load Balancing supplies one.
func TraceMiddleware(projectID string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if parent, ok := parseCloudTraceHeader(r.Header.Get("X-Cloud-Trace-Context")); ok {
				ctx = trace.ContextWithRemoteSpanContext(ctx, parent)
			}

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", SanitizeMethod(r.Method)),
					attribute.String("http.target", sanitizeString(r.URL.Path)),
				),
			)
			defer span.End()

			sc := span.SpanContext()
			info := requestctx.TraceInfo{
				TraceID:   sc.TraceID().String(),
				SpanID:    sc.SpanID().String(),
				Sampled:   sc.IsSampled(),
				ProjectID: projectID,
			}
			ctx = requestctx.WithTrace(ctx, info)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseCloudTraceHeader parses "TRACE_ID/SPAN_ID;o=OPTIONS" into a remote
// span context. The span component is a decimal uint64.
func parseCloudTraceHeader(header string) (trace.SpanContext, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return trace.SpanContext{}, false
	}

	slash := strings.IndexByte(header, '/')
	if slash <= 0 {
		return trace.SpanContext{}, false
	}

	traceID, err := trace.TraceIDFromHex(strings.ToLower(header[:slash]))
	if err != nil {
		return trace.SpanContext{}, false
	}

	rest := header[slash+1:]
	sampled := false
	if semi := strings.IndexByte(rest, ';'); semi >= 0 {
		opts := rest[semi+1:]
		rest = rest[:semi]
		sampled = strings.Contains(opts, "o=1")
	}

	spanDecimal, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || spanDecimal == 0 {
		return trace.SpanContext{}, false
	}
	var spanID trace.SpanID
	binary.BigEndian.PutUint64(spanID[:], spanDecimal)

	flags := trace.TraceFlags(0)
	if sampled {
		flags = trace.FlagsSampled
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	})
	if !sc.IsValid() {
		return trace.SpanContext{}, false
	}
	return sc, true
}
