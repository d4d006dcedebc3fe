package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/security"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/service"
)

const maxWebhookBodyBytes = 1 << 20

// WebhookHandler terminates the Stripe delivery endpoint. Response bodies
// follow the provider's expectations, not the API envelope: Stripe only
// inspects the status code, and operators grepping delivery logs expect
// the bare shapes.
type WebhookHandler struct {
	processor *service.WebhookProcessor
	secret    string
	tolerance time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewWebhookHandler(processor *service.WebhookProcessor, secret string, tolerance time.Duration, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		processor: processor,
		secret:    secret,
		tolerance: tolerance,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *WebhookHandler) HandleStripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes+1))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}
	if len(payload) > maxWebhookBodyBytes {
		h.writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	sigErr := security.VerifyStripeSignature(payload, r.Header.Get("Stripe-Signature"), h.secret, h.tolerance, h.now())
	if sigErr != nil {
		h.logger.WarnContext(r.Context(), "rejected webhook delivery", "error", sigErr, "remote", r.RemoteAddr)
		switch {
		case errors.Is(sigErr, security.ErrMissingSignature):
			h.writeError(w, http.StatusBadRequest, "missing Stripe-Signature header")
		case errors.Is(sigErr, security.ErrStaleTimestamp):
			h.writeError(w, http.StatusBadRequest, "webhook timestamp outside tolerance")
		default:
			h.writeError(w, http.StatusBadRequest, "invalid signature")
		}
		return
	}

	var event service.StripeEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.ID == "" {
		h.writeError(w, http.StatusBadRequest, "malformed event payload")
		return
	}

	if err := h.processor.Process(r.Context(), event); err != nil {
		h.logger.ErrorContext(r.Context(), "webhook processing failed", "event_id", event.ID, "type", event.Type, "error", err)
		h.writeError(w, http.StatusInternalServerError, "event processing failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

func (h *WebhookHandler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
