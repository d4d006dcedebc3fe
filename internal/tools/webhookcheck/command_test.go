package webhookcheck

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teamflp/agri-direct-marketplace-sub002/internal/security"
)

func TestNewRootCommandHasRun(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "webhookcheck" {
		t.Fatalf("unexpected use: %s", cmd.Use)
	}
	if c, _, err := cmd.Find([]string{"run"}); err != nil || c == nil {
		t.Fatalf("expected run subcommand: err=%v", err)
	}
}

func TestDeliverTestEventSignsAndAcks(t *testing.T) {
	const secret = "whsec_check"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/webhooks/stripe" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := security.VerifyStripeSignature(payload, r.Header.Get("Stripe-Signature"), secret, time.Minute, time.Now()); err != nil {
			t.Errorf("delivered event not verifiable: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
	}))
	defer srv.Close()

	eventID, err := deliverTestEvent(context.Background(), options{apiURL: srv.URL, secret: secret, eventType: "payment_intent.succeeded", orderID: "ord-1"})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if !strings.HasPrefix(eventID, "evt_check_") {
		t.Fatalf("unexpected event id %q", eventID)
	}
}

func TestDeliverTestEventRejectedEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid signature"}`))
	}))
	defer srv.Close()

	if _, err := deliverTestEvent(context.Background(), options{apiURL: srv.URL, secret: "whsec_x"}); err == nil {
		t.Fatal("expected error from rejecting endpoint")
	}
}

func TestDeliverTestEventMissingSecret(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	if _, err := deliverTestEvent(context.Background(), options{apiURL: "http://localhost:0"}); err == nil {
		t.Fatal("expected missing secret error")
	}
}

func TestDeliverTestEventSecretFromEnvironment(t *testing.T) {
	const secret = "whsec_env"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := security.VerifyStripeSignature(payload, r.Header.Get("Stripe-Signature"), secret, time.Minute, time.Now()); err != nil {
			t.Errorf("event not signed with env secret: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
	}))
	defer srv.Close()

	t.Setenv("STRIPE_WEBHOOK_SECRET", secret)
	if _, err := deliverTestEvent(context.Background(), options{apiURL: srv.URL, eventType: "payment_intent.succeeded"}); err != nil {
		t.Fatalf("deliver with env secret: %v", err)
	}
}

func TestBuildTestEventCarriesOrderMetadata(t *testing.T) {
	raw, err := buildTestEvent("evt_1", "payment_intent.succeeded", "ord-9")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.ID != "evt_1" || event.Type != "payment_intent.succeeded" {
		t.Fatalf("unexpected envelope: %+v", event)
	}
	if event.Data.Object.Metadata["orderId"] != "ord-9" {
		t.Fatalf("missing order correlation: %+v", event.Data.Object.Metadata)
	}
}
