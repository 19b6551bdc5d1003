package observability

import (
	"net/http"
	"strings"

	"github.com/lechic-cafe/api/internal/platform/requestctx"
)

const traceparentHeader = "traceparent"

// TraceMiddleware extracts W3C traceparent headers and stores trace metadata on
// the request context so log lines can be correlated with upstream traces.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if info, ok := parseTraceparent(r.Header.Get(traceparentHeader)); ok {
				ctx = requestctx.WithTrace(ctx, info)
				r = r.WithContext(ctx)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// parseTraceparent understands the "00-<trace-id>-<span-id>-<flags>" form.
func parseTraceparent(header string) (requestctx.TraceInfo, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return requestctx.TraceInfo{}, false
	}

	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return requestctx.TraceInfo{}, false
	}

	version, traceID, spanID, flags := parts[0], parts[1], parts[2], parts[3]
	if len(version) != 2 || len(traceID) != 32 || len(spanID) != 16 || len(flags) != 2 {
		return requestctx.TraceInfo{}, false
	}
	if !isLowerHex(traceID) || !isLowerHex(spanID) {
		return requestctx.TraceInfo{}, false
	}
	if traceID == strings.Repeat("0", 32) || spanID == strings.Repeat("0", 16) {
		return requestctx.TraceInfo{}, false
	}

	return requestctx.TraceInfo{
		TraceID: traceID,
		SpanID:  spanID,
		Sampled: strings.HasSuffix(flags, "1"),
	}, true
}

func isLowerHex(value string) bool {
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
