package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/response"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/service"
)

const (
	idempotencyKeyHeader      = "Idempotency-Key"
	idempotencyReplayedHeader = "X-Idempotency-Replayed"
	maxIdempotentBodyBytes    = 1 << 20
)

// Idempotency replays the first response recorded under an
// Idempotency-Key. The fingerprint binds the key to the exact request, so
// reusing a key with a different body is rejected instead of silently
// returning someone else's order.
type Idempotency struct {
	store  service.IdempotencyStore
	ttl    time.Duration
	logger *slog.Logger
}

func NewIdempotency(store service.IdempotencyStore, ttl time.Duration, logger *slog.Logger) *Idempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Idempotency{store: store, ttl: ttl, logger: logger}
}

func (i *Idempotency) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
			if key == "" {
				response.Error(w, r, http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED", "Idempotency-Key header is required", nil)
				return
			}
			if len(key) > 128 {
				response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "Idempotency-Key exceeds 128 characters", nil)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBodyBytes))
			if err != nil {
				response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "unreadable request body", nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			scope := r.Method + " " + r.URL.Path
			fingerprint := requestFingerprint(r.Method, r.URL.Path, body)

			claim, err := i.store.Claim(r.Context(), scope, key, fingerprint, i.ttl)
			if err != nil {
				i.logger.ErrorContext(r.Context(), "idempotency claim failed", "key", key, "error", err)
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "idempotency store unavailable", nil)
				return
			}

			switch claim.Outcome {
			case service.ClaimReplayed:
				w.Header().Set(idempotencyReplayedHeader, "true")
				if claim.Response.ContentType != "" {
					w.Header().Set("Content-Type", claim.Response.ContentType)
				}
				w.WriteHeader(claim.Response.StatusCode)
				_, _ = w.Write(claim.Response.Body)
				return
			case service.ClaimMismatch:
				response.Error(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_CONFLICT", "Idempotency-Key was already used with a different request", nil)
				return
			case service.ClaimPending:
				response.Error(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_CONFLICT", "request with this Idempotency-Key is still being processed", nil)
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			finishErr := i.store.Finish(r.Context(), scope, key, fingerprint, service.StoredResponse{
				StatusCode:  recorder.status,
				ContentType: recorder.Header().Get("Content-Type"),
				Body:        recorder.body.Bytes(),
			}, i.ttl)
			if finishErr != nil {
				i.logger.ErrorContext(r.Context(), "idempotency finish failed", "key", key, "error", finishErr)
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
