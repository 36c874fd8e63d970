package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNewRouterUnknownRouteReturnsEnvelope(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented && rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 or 501, got %d", rr.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse error envelope: %v", err)
	}
	if resp.Error == "" {
		t.Fatalf("expected error code in envelope, got %s", rr.Body.String())
	}
}

func TestNewRouterHealthEndpoints(t *testing.T) {
	router := NewRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected %s to return 200, got %d", path, rr.Code)
		}
	}
}

func TestNewRouterMountsGroups(t *testing.T) {
	router := NewRouter(
		WithCartRoutes(func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusTeapot)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected registered cart route to run, got %d", rr.Code)
	}

	// unregistered groups answer 501 rather than 404
	orderReq := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, orderReq)
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 for unregistered group, got %d", rr.Code)
	}
}

func TestNewRouterGroupMiddlewares(t *testing.T) {
	var webhookMWHit bool
	router := NewRouter(
		WithWebhookRoutes(func(r chi.Router) {
			r.Get("/vnpay/ipn", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
		WithWebhookMiddlewares(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				webhookMWHit = true
				next.ServeHTTP(w, r)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/vnpay/ipn", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !webhookMWHit {
		t.Fatalf("expected webhook middleware to run")
	}
}

func TestNewRouterCustomBasePath(t *testing.T) {
	router := NewRouter(
		WithBasePath("/api/v2"),
		WithOrderRoutes(func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on custom base path, got %d", rr.Code)
	}
}

func TestNewRouterReadyzFailure(t *testing.T) {
	health := NewHealthHandlers(
		WithReadinessCheck("firestore", func(ctx context.Context) error {
			return errors.New("deadline exceeded")
		}),
	)

	router := NewRouter(WithHealthHandlers(health))
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when a readiness check fails, got %d", rr.Code)
	}
}
