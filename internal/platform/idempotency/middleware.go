package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lechic-cafe/api/internal/platform/httpx"
	"github.com/lechic-cafe/api/internal/platform/requestctx"
)

const (
	// KeyHeader is the client supplied idempotency key for order submissions.
	KeyHeader = "Idempotency-Key"
	// ReplayHeader marks responses served from a stored record.
	ReplayHeader = "Idempotency-Replayed"

	maxKeyLength       = 128
	maxCapturedBody    = 64 * 1024
	maxFingerprintBody = 64 * 1024
)

// MiddlewareConfig tunes the idempotency middleware.
type MiddlewareConfig struct {
	Store Store
	TTL   time.Duration
	Clock func() time.Time
}

// Middleware makes POST submissions replay-safe: a repeated request with the
// same Idempotency-Key and body gets the stored response instead of a second
// dispatch. Requests without the key header pass through untouched.
func Middleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	store := cfg.Store
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			key := strings.TrimSpace(r.Header.Get(KeyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			if len(key) > maxKeyLength {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_idempotency_key", "idempotency key is too long", http.StatusBadRequest))
				return
			}

			// The key is scoped to the cart session so two customers cannot
			// collide on a shared key value.
			if session, ok := requestctx.CartSession(ctx); ok {
				key = session + ":" + key
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxFingerprintBody))
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "failed to read request body", http.StatusBadRequest))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := sha256Hex(append([]byte(r.Method+" "+r.URL.Path+"\n"), body...))

			now := clock()
			reservation, err := store.Reserve(ctx, key, fingerprint, now, ttl)
			if err != nil {
				if errors.Is(err, ErrFingerprintMismatch) {
					httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_reused", "idempotency key was already used with a different request", http.StatusUnprocessableEntity))
					return
				}
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_unavailable", "idempotency store is unavailable", http.StatusServiceUnavailable))
				return
			}

			switch reservation.State {
			case ReservationStateCompleted:
				replay(w, reservation.Record)
				return
			case ReservationStatePending:
				httpx.WriteError(ctx, w, httpx.NewError("request_in_progress", "a request with this idempotency key is already being processed", http.StatusConflict))
				return
			}

			capture := newCaptureWriter(w)
			next.ServeHTTP(capture, r)

			resp := Response{
				Status:  capture.status,
				Headers: capture.Header(),
				Body:    capture.body.Bytes(),
			}
			// Only successful outcomes are worth replaying; release failures so
			// clients can retry them with the same key.
			if resp.Status >= 200 && resp.Status < 300 && !capture.dropped {
				_ = store.SaveResponse(ctx, key, fingerprint, resp, clock(), ttl)
			} else {
				_ = store.Release(ctx, key, fingerprint)
			}
		})
	}
}

func replay(w http.ResponseWriter, record Record) {
	for name, values := range headersFromRecord(record.ResponseHeaders) {
		for _, value := range values {
			w.Header().Add(name, value)
		}
	}
	w.Header().Set(ReplayHeader, "true")
	status := record.ResponseStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(record.ResponseBody)
}

// captureWriter tees the response so it can be stored for replay. Bodies over
// the capture limit stream through but are not recorded.
type captureWriter struct {
	http.ResponseWriter
	status  int
	body    bytes.Buffer
	dropped bool
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{ResponseWriter: w, status: http.StatusOK}
}

func (c *captureWriter) WriteHeader(status int) {
	c.status = status
	c.ResponseWriter.WriteHeader(status)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if !c.dropped {
		if c.body.Len()+len(b) <= maxCapturedBody {
			c.body.Write(b)
		} else {
			c.body.Reset()
			c.dropped = true
		}
	}
	return c.ResponseWriter.Write(b)
}
