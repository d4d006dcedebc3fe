package integration

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

type problemBody struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance"`
	Code     string `json:"code"`
}

func decodeProblem(t *testing.T, raw string, into *problemBody) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), into); err != nil {
		t.Fatalf("decode problem body: %v raw=%s", err, raw)
	}
}

func TestErrorsNegotiateProblemDetails(t *testing.T) {
	srv, _ := newTestServer(t, testServerOptions{})

	resp, _, raw := doJSON(t, http.MethodGet, srv.URL+"/api/v1/orders/not-a-uuid", nil, map[string]string{
		"Accept": "application/problem+json",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, raw)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected problem+json content type, got %q", ct)
	}

	var problem problemBody
	decodeProblem(t, raw, &problem)
	if problem.Type != "urn:problem:agri-market:bad-request" {
		t.Fatalf("unexpected problem type %q", problem.Type)
	}
	if problem.Title != "Bad Request" || problem.Status != http.StatusBadRequest {
		t.Fatalf("unexpected title/status: %q/%d", problem.Title, problem.Status)
	}
	if problem.Instance != "/api/v1/orders/not-a-uuid" {
		t.Fatalf("unexpected instance %q", problem.Instance)
	}
	if problem.Code != "BAD_REQUEST" || problem.Detail == "" {
		t.Fatalf("unexpected code/detail: %s", raw)
	}
}

func TestNotFoundAsProblemDetails(t *testing.T) {
	srv, _ := newTestServer(t, testServerOptions{})

	missing := uuid.NewString()
	resp, _, raw := doJSON(t, http.MethodGet, srv.URL+"/api/v1/orders/"+missing, nil, map[string]string{
		"Accept": "application/problem+json;q=0.9",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", resp.StatusCode, raw)
	}

	var problem problemBody
	decodeProblem(t, raw, &problem)
	if problem.Type != "urn:problem:agri-market:not-found" || problem.Title != "Not Found" {
		t.Fatalf("unexpected problem: %s", raw)
	}
}

func TestZeroQualityProblemJSONKeepsEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, testServerOptions{})

	resp, env, raw := doJSON(t, http.MethodGet, srv.URL+"/api/v1/orders/not-a-uuid", nil, map[string]string{
		"Accept": "application/problem+json;q=0",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, raw)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected envelope content type, got %q", ct)
	}
	if env.Error == nil || env.Error.Code != "BAD_REQUEST" {
		t.Fatalf("expected envelope error, got %s", raw)
	}
}
