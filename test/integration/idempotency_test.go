package integration

import (
	"encoding/json"
	"net/http"
	"testing"
)

func orderPayload(unitPrice float64) map[string]any {
	return map[string]any{
		"customer_email": "buyer@example.com",
		"items": []map[string]any{
			{"product_name": "Fromage de chèvre", "unit_price": unitPrice, "quantity": 2},
		},
		"delivery_method":      "local-7",
		"delivery_fee":         2.50,
		"delivery_description": "Livraison locale",
	}
}

func TestOrderCreationRequiresIdempotencyKey(t *testing.T) {
	srv, _ := newTestServer(t, testServerOptions{})

	resp, env, raw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", orderPayload(6.80), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, raw)
	}
	if env.Error == nil || env.Error.Code != "IDEMPOTENCY_KEY_REQUIRED" {
		t.Fatalf("expected IDEMPOTENCY_KEY_REQUIRED, got %s", raw)
	}
}

func TestOrderCreationReplaysUnderSameKey(t *testing.T) {
	srv, _ := newTestServer(t, testServerOptions{})
	headers := map[string]string{"Idempotency-Key": "idem-replay-1"}

	first, firstEnv, firstRaw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", orderPayload(6.80), headers)
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", first.StatusCode, firstRaw)
	}
	if first.Header.Get("X-Idempotency-Replayed") != "" {
		t.Fatal("first request must not be marked as replayed")
	}

	second, secondEnv, secondRaw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", orderPayload(6.80), headers)
	if second.StatusCode != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d body=%s", second.StatusCode, secondRaw)
	}
	if second.Header.Get("X-Idempotency-Replayed") != "true" {
		t.Fatal("replay must set X-Idempotency-Replayed")
	}

	var firstOrder, secondOrder struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(firstEnv.Data, &firstOrder); err != nil {
		t.Fatalf("decode first order: %v", err)
	}
	if err := json.Unmarshal(secondEnv.Data, &secondOrder); err != nil {
		t.Fatalf("decode second order: %v", err)
	}
	if firstOrder.ID == "" || firstOrder.ID != secondOrder.ID {
		t.Fatalf("replay must return the original order, got %q and %q", firstOrder.ID, secondOrder.ID)
	}

	_, listEnv, listRaw := doJSON(t, http.MethodGet, srv.URL+"/api/v1/orders", nil, nil)
	var list struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(listEnv.Data, &list); err != nil {
		t.Fatalf("decode list: %v body=%s", err, listRaw)
	}
	if list.Total != 1 {
		t.Fatalf("expected a single persisted order, got %d", list.Total)
	}
}

func TestOrderCreationRejectsKeyReuseWithDifferentBody(t *testing.T) {
	srv, _ := newTestServer(t, testServerOptions{})
	headers := map[string]string{"Idempotency-Key": "idem-conflict-1"}

	first, _, firstRaw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", orderPayload(6.80), headers)
	if first.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", first.StatusCode, firstRaw)
	}

	second, env, raw := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", orderPayload(9.90), headers)
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", second.StatusCode, raw)
	}
	if env.Error == nil || env.Error.Code != "IDEMPOTENCY_KEY_CONFLICT" {
		t.Fatalf("expected IDEMPOTENCY_KEY_CONFLICT, got %s", raw)
	}
}
