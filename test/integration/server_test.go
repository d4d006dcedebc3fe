package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/database"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/handler"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/middleware"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/http/router"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/messaging"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/repository"
	"github.com/teamflp/agri-direct-marketplace-sub002/internal/service"
)

const testWebhookSecret = "whsec_integration_test"

type testServerOptions struct {
	apiRateLimit        int
	checkoutMaxAttempts int
	checkoutBlock       time.Duration
	intents             service.PaymentIntentReader
	archiver            service.InvoiceArchiver
}

type stubIntentReader struct {
	intents map[string]*service.PaymentIntent
}

func (r stubIntentReader) GetPaymentIntent(_ context.Context, id string) (*service.PaymentIntent, error) {
	intent, ok := r.intents[id]
	if !ok {
		return nil, fmt.Errorf("unknown intent %s", id)
	}
	return intent, nil
}

type stubInvoiceArchiver struct {
	key     string
	baseURL string
}

func (a stubInvoiceArchiver) ArchiveInvoice(context.Context, string, string) (string, error) {
	return a.key, nil
}

func (a stubInvoiceArchiver) InvoiceDownloadURL(_ context.Context, objectKey string) (string, error) {
	return a.baseURL + objectKey, nil
}

func newTestServer(t *testing.T, opts testServerOptions) (*httptest.Server, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	orders := repository.NewOrderRepository(db)
	zones := repository.NewDeliveryZoneRepository(db)
	events := repository.NewWebhookEventRepository(db)

	intents := opts.intents
	if intents == nil {
		intents = stubIntentReader{}
	}

	archiver := opts.archiver
	if archiver == nil {
		archiver = service.NoopInvoiceArchiver{}
	}

	processor := service.NewWebhookProcessor(orders, events, intents, nil, archiver, messaging.NoopPublisher{}, "order-events", log)

	maxAttempts := opts.checkoutMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 100
	}
	block := opts.checkoutBlock
	if block <= 0 {
		block = time.Minute
	}
	limiter := service.NewAttemptLimiter(service.AttemptLimiterConfig{
		MaxAttempts:        maxAttempts,
		Window:             10 * time.Minute,
		InitialBlock:       block,
		ExponentialBackoff: true,
	}, service.NewMemoryAttemptStore())

	apiLimit := opts.apiRateLimit
	if apiLimit <= 0 {
		apiLimit = 10000
	}

	deps := router.Dependencies{
		Health:          handler.NewHealthHandler(db, nil),
		Orders:          handler.NewOrderHandler(service.NewOrderService(orders), limiter, archiver, log),
		Shipping:        handler.NewShippingHandler(service.NewRateAggregator(zones, log)),
		Zones:           handler.NewDeliveryZoneHandler(zones),
		Webhooks:        handler.NewWebhookHandler(processor, testWebhookSecret, 5*time.Minute, log),
		Idempotency:     middleware.NewIdempotency(service.NewDBIdempotencyStore(db), time.Minute, log),
		APILimiter:      middleware.NewLocalFixedWindowLimiter(),
		APIRateLimitRPM: apiLimit,
	}

	srv := httptest.NewServer(router.New(deps))
	t.Cleanup(srv.Close)
	return srv, db
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, method, url string, payload any, headers map[string]string) (*http.Response, envelope, string) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	raw, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp, env, string(raw)
}

func createTestOrder(t *testing.T, baseURL, idempotencyKey string) string {
	t.Helper()
	payload := map[string]any{
		"customer_email": "buyer@example.com",
		"items": []map[string]any{
			{"product_name": "Panier de légumes", "unit_price": 18.50, "quantity": 1},
		},
		"delivery_method":      "colissimo-standard",
		"delivery_fee":         6.45,
		"delivery_description": "Livraison standard à domicile sous 48h",
	}
	resp, env, raw := doJSON(t, http.MethodPost, baseURL+"/api/v1/orders", payload, map[string]string{
		"Idempotency-Key": idempotencyKey,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", resp.StatusCode, raw)
	}
	var order struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &order); err != nil || order.ID == "" {
		t.Fatalf("missing order id in response: %s", raw)
	}
	return order.ID
}
