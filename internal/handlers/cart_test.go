package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mekongmart/api/internal/services"
)

func newCartRouter(service services.CartService) chi.Router {
	handler := NewCartHandlers(nil, service)
	router := chi.NewRouter()
	router.Route("/cart", handler.Routes)
	return router
}

func sampleCartView() services.CartView {
	sale := int64(180_000)
	return services.CartView{
		UserID: "user-1",
		Items: []services.CartLineView{
			{
				ItemID:       "itm_1",
				ProductID:    "prod_coffee",
				ProductName:  "Cà phê Buôn Ma Thuột",
				OptionID:     "opt_cf_500",
				OptionName:   "Gói 500g",
				Quantity:     1,
				UnitPrice:    200_000,
				SalePrice:    &sale,
				LineTotal:    180_000,
				Available:    true,
				InStock:      true,
				StockLeft:    3,
				PriceDisplay: "180.000 ₫",
			},
		},
		TotalPrice:   180_000,
		TotalDisplay: "180.000 ₫",
	}
}

func TestCartHandlersGetCart(t *testing.T) {
	service := &stubCartService{
		getFn: func(ctx context.Context, userID string) (services.CartView, error) {
			if userID != "user-1" {
				t.Fatalf("expected user-1, got %s", userID)
			}
			return sampleCartView(), nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/cart", nil), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp cartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Cart.Items) != 1 || resp.Cart.TotalPrice != 180_000 {
		t.Fatalf("unexpected cart payload: %#v", resp.Cart)
	}
	item := resp.Cart.Items[0]
	if item.SalePrice == nil || *item.SalePrice != 180_000 {
		t.Fatalf("expected sale price in payload, got %#v", item)
	}
	if !item.InStock || item.StockLeft != 3 {
		t.Fatalf("expected stock flags in payload, got %#v", item)
	}
}

func TestCartHandlersGetCartRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rr := httptest.NewRecorder()
	newCartRouter(&stubCartService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestCartHandlersAddItem(t *testing.T) {
	var captured services.CartAddCommand
	service := &stubCartService{
		addFn: func(ctx context.Context, cmd services.CartAddCommand) (services.CartView, error) {
			captured = cmd
			return sampleCartView(), nil
		},
	}

	body := bytes.NewBufferString(`{"product_id":"prod_coffee","option_id":"opt_cf_500","quantity":1}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/cart/items", body), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.UserID != "user-1" || captured.OptionID != "opt_cf_500" || captured.Quantity != 1 {
		t.Fatalf("unexpected add command: %#v", captured)
	}
}

func TestCartHandlersAddItemRejectsBadJSON(t *testing.T) {
	body := bytes.NewBufferString(`{"quantity":`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/cart/items", body), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(&stubCartService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestCartHandlersAddItemUnknownOption(t *testing.T) {
	service := &stubCartService{
		addFn: func(ctx context.Context, cmd services.CartAddCommand) (services.CartView, error) {
			return services.CartView{}, services.ErrCartOptionNotFound
		},
	}

	body := bytes.NewBufferString(`{"product_id":"prod_x","option_id":"opt_missing","quantity":1}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/cart/items", body), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestCartHandlersUpdateItemQuantity(t *testing.T) {
	var captured services.CartUpdateCommand
	service := &stubCartService{
		updateFn: func(ctx context.Context, cmd services.CartUpdateCommand) (services.CartView, error) {
			captured = cmd
			return sampleCartView(), nil
		},
	}

	body := bytes.NewBufferString(`{"quantity":3}`)
	req := asUser(httptest.NewRequest(http.MethodPatch, "/cart/items/itm_1", body), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.ItemID != "itm_1" || captured.Quantity != 3 {
		t.Fatalf("unexpected update command: %#v", captured)
	}
}

func TestCartHandlersUpdateMissingItem(t *testing.T) {
	service := &stubCartService{
		updateFn: func(ctx context.Context, cmd services.CartUpdateCommand) (services.CartView, error) {
			return services.CartView{}, services.ErrCartItemNotFound
		},
	}

	body := bytes.NewBufferString(`{"quantity":3}`)
	req := asUser(httptest.NewRequest(http.MethodPatch, "/cart/items/itm_ghost", body), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestCartHandlersRemoveItem(t *testing.T) {
	var capturedItem string
	service := &stubCartService{
		removeFn: func(ctx context.Context, userID, itemID string) (services.CartView, error) {
			capturedItem = itemID
			return services.CartView{UserID: userID}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodDelete, "/cart/items/itm_1", nil), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if capturedItem != "itm_1" {
		t.Fatalf("expected itm_1, got %s", capturedItem)
	}
}

func TestCartHandlersClearCart(t *testing.T) {
	var cleared string
	service := &stubCartService{
		clearFn: func(ctx context.Context, userID string) error {
			cleared = userID
			return nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodDelete, "/cart", nil), "user-1")
	rr := httptest.NewRecorder()
	newCartRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if cleared != "user-1" {
		t.Fatalf("expected cart cleared for user-1, got %q", cleared)
	}
}
