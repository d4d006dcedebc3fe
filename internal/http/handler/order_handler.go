package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/middleware"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/response"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/service"
)

// OrderHandler serves checkout order creation and lookups. Creation sits
// behind the per-client attempt limiter: repeated failed checkouts from
// one address trip an escalating block before they reach the database.
type OrderHandler struct {
	svc      *service.OrderService
	limiter  *service.AttemptLimiter
	archiver service.InvoiceArchiver
	logger   *slog.Logger
}

func NewOrderHandler(svc *service.OrderService, limiter *service.AttemptLimiter, archiver service.InvoiceArchiver, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, limiter: limiter, archiver: archiver, logger: logger}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	key := middleware.ClientIPKey(r)

	limited, err := h.limiter.IsRateLimited(r.Context(), key)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "attempt limiter unavailable", nil)
		return
	}
	if limited {
		remaining, err := h.limiter.RemainingTime(r.Context(), key)
		if err == nil && remaining > 0 {
			w.Header().Set("Retry-After", strconv.FormatInt(remaining, 10))
		}
		response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many checkout attempts, retry later", nil)
		return
	}

	var input service.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.recordAttempt(r, key, false)
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), input)
	if err != nil {
		h.recordAttempt(r, key, false)
		switch {
		case errors.Is(err, service.ErrOrderNoItems),
			errors.Is(err, service.ErrOrderInvalidTotal),
			errors.Is(err, service.ErrOrderMissingDeliver):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to create order", nil)
		}
		return
	}
	h.recordAttempt(r, key, true)
	response.JSON(w, r, http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if _, err := uuid.Parse(id); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, order)
}

// DownloadInvoice hands the back-office a short-lived link to the
// archived invoice copy. Orders whose invoice was never archived fall
// back to 404; the hosted provider URL stays available on the order row.
func (h *OrderHandler) DownloadInvoice(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if _, err := uuid.Parse(id); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if order.InvoiceArchiveKey == "" {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "no archived invoice for order", nil)
		return
	}
	url, err := h.archiver.InvoiceDownloadURL(r.Context(), order.InvoiceArchiveKey)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "presign archived invoice failed", "order_id", id, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to build invoice link", nil)
		return
	}
	if url == "" {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "invoice archive is not configured", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{"url": url})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := repository.PageRequest{
		Page:     queryInt(r, "page", repository.DefaultPage),
		PageSize: queryInt(r, "page_size", repository.DefaultPageSize),
	}
	result, err := h.svc.ListOrders(r.Context(), page)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"items":       result.Items,
		"page":        result.Page,
		"page_size":   result.PageSize,
		"total":       result.Total,
		"total_pages": result.TotalPages,
	})
}

// limiter bookkeeping never fails the request itself
func (h *OrderHandler) recordAttempt(r *http.Request, key string, success bool) {
	if err := h.limiter.RecordAttempt(r.Context(), key, success); err != nil {
		h.logger.WarnContext(r.Context(), "attempt limiter write failed", "key", key, "error", err)
	}
}

func queryInt(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
