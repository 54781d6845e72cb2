package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	rr := doRequest(server, http.MethodGet, "/health", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	payload := decodeJSON(t, rr)
	if payload["status"] != "healthy" {
		t.Fatalf("expected status healthy, got %v", payload["status"])
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated X-Request-ID header")
	}
}

func TestRootDescribesAPI(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	rr := doRequest(server, http.MethodGet, "/", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if payload := decodeJSON(t, rr); payload["docs"] != apiPrefix {
		t.Fatalf("expected docs %q, got %v", apiPrefix, payload["docs"])
	}
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	fs := &fakeStore{
		pingFn: func(context.Context) error { return errors.New("connection refused") },
	}
	server := newTestServer(newTestService(fs, Options{}))

	rr := doRequest(server, http.MethodGet, "/ready", "", "")

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	payload := decodeJSON(t, rr)
	if payload["ok"] != false || payload["status"] != "not_ready" {
		t.Fatalf("unexpected payload %v", payload)
	}
	checks, _ := payload["checks"].(map[string]any)
	database, _ := checks["database"].(map[string]any)
	if database["error"] != "connection refused" {
		t.Fatalf("expected database error, got %v", database)
	}
}

func TestReadyWhenDatabaseAnswers(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	rr := doRequest(server, http.MethodGet, "/ready", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if payload := decodeJSON(t, rr); payload["ok"] != true {
		t.Fatalf("expected ok=true, got %v", payload["ok"])
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()

	server.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "req-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected Cache-Control no-store, got %q", got)
	}
}

func TestMetricsEndpointExposesCollectors(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))
	doRequest(server, http.MethodGet, "/health", "", "")

	rr := doRequest(server, http.MethodGet, "/metrics", "", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	server := newTestServer(newTestService(&fakeStore{}, Options{}))

	rr := doRequest(server, http.MethodGet, "/api/v2/tasks", "", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
