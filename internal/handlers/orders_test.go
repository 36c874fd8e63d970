package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/platform/auth"
	"github.com/mekongmart/api/internal/repositories"
	"github.com/mekongmart/api/internal/services"
)

func newOrderRouter(service services.OrderService, opts ...OrderHandlerOption) chi.Router {
	handler := NewOrderHandlers(nil, service, opts...)
	router := chi.NewRouter()
	router.Route("/orders", handler.Routes)
	return router
}

func asUser(req *http.Request, uid string, roles ...string) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), &auth.Identity{UID: uid, Roles: roles}))
}

func wrapStock(err *repositories.StockError) error {
	return fmt.Errorf("%w: %w", services.ErrOrderInsufficientStock, err)
}

func TestOrderHandlersCreateOrderSuccess(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	var captured services.CreateOrderCommand
	service := &stubOrderService{
		createFn: func(ctx context.Context, cmd services.CreateOrderCommand) (services.OrderResult, error) {
			captured = cmd
			return services.OrderResult{
				Order: domain.Order{
					ID:              "ord_123",
					UserID:          "user-1",
					Status:          domain.OrderStatusPending,
					TotalPrice:      480_000,
					ShippingAddress: "12 Hàng Gai, Hoàn Kiếm, Hà Nội",
					PaymentMethod:   domain.PaymentMethodVNPay,
					Items: []domain.OrderItem{
						{ID: "itm_1", OptionID: "opt_tea_100", Quantity: 2, UnitPrice: 150_000, LineTotal: 300_000},
					},
					Payments: []domain.Payment{
						{ID: "pay_1", Amount: 480_000, Method: domain.PaymentMethodVNPay, Status: domain.PaymentStatusUnpaid},
					},
					CreatedAt: now,
				},
				PayURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_TxnRef=ord_123",
			}, nil
		},
	}

	body := bytes.NewBufferString(`{"shipping_address":"12 Hàng Gai, Hoàn Kiếm, Hà Nội","payment_method":"VNPAY"}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/orders", body), "user-1")
	req.RemoteAddr = "203.113.131.1:51123"
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.UserID != "user-1" {
		t.Fatalf("expected command user user-1, got %s", captured.UserID)
	}
	if captured.PaymentMethod != "VNPAY" {
		t.Fatalf("expected payment method VNPAY, got %s", captured.PaymentMethod)
	}
	if captured.ClientIP != "203.113.131.1" {
		t.Fatalf("expected client ip 203.113.131.1, got %s", captured.ClientIP)
	}

	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Order.ID != "ord_123" || resp.Order.Status != "PENDING" {
		t.Fatalf("unexpected order payload: %#v", resp.Order)
	}
	if resp.Order.TotalDisplay == "" {
		t.Fatalf("expected formatted total, got empty string")
	}
	if resp.PayURL == "" {
		t.Fatalf("expected pay_url for VNPAY order")
	}
}

func TestOrderHandlersCreateOrderRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(`{}`))
	rr := httptest.NewRecorder()
	newOrderRouter(&stubOrderService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestOrderHandlersCreateOrderEmptyBody(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodPost, "/orders", nil), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(&stubOrderService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestOrderHandlersCreateOrderInsufficientStock(t *testing.T) {
	service := &stubOrderService{
		createFn: func(ctx context.Context, cmd services.CreateOrderCommand) (services.OrderResult, error) {
			stockErr := &repositories.StockError{
				Code: repositories.CodeInsufficientStock,
				Shortages: []repositories.StockShortage{
					{OptionID: "opt_tea_100", ProductID: "prod_tea", Requested: 5, Available: 2},
				},
			}
			return services.OrderResult{}, wrapStock(stockErr)
		},
	}

	body := bytes.NewBufferString(`{"shipping_address":"addr","payment_method":"COD"}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/orders", body), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Error   string `json:"error"`
		Details struct {
			Shortages []map[string]any `json:"shortages"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Error != "insufficient_stock" {
		t.Fatalf("expected insufficient_stock, got %s", resp.Error)
	}
	if len(resp.Details.Shortages) != 1 {
		t.Fatalf("expected 1 shortage detail, got %d", len(resp.Details.Shortages))
	}
}

func TestOrderHandlersListOrdersParsesQuery(t *testing.T) {
	fromExpected := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	var captured services.OrderListQuery
	service := &stubOrderService{
		listFn: func(ctx context.Context, actor services.Actor, query services.OrderListQuery) (domain.CursorPage[domain.Order], error) {
			captured = query
			return domain.CursorPage[domain.Order]{
				Items:         []domain.Order{{ID: "ord_1", Status: domain.OrderStatusDelivered}},
				NextPageToken: "tok-next",
			}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/orders?status=DELIVERED&page_size=10&page_token=tok123&created_after=2025-05-01T00:00:00Z", nil), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Status != "DELIVERED" {
		t.Fatalf("expected status filter DELIVERED, got %s", captured.Status)
	}
	if captured.PageSize != 10 || captured.PageToken != "tok123" {
		t.Fatalf("unexpected pagination: %#v", captured)
	}
	if captured.From == nil || !captured.From.Equal(fromExpected) {
		t.Fatalf("expected created_after %s, got %#v", fromExpected, captured.From)
	}

	var resp listOrdersResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Orders) != 1 || resp.NextPageToken != "tok-next" {
		t.Fatalf("unexpected list response: %#v", resp)
	}
}

func TestOrderHandlersListOrdersInvalidParams(t *testing.T) {
	cases := map[string]string{
		"bad page size": "/orders?page_size=abc",
		"bad date":      "/orders?created_after=yesterday",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodGet, target, nil), "user-1")
			rr := httptest.NewRecorder()
			newOrderRouter(&stubOrderService{}).ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestOrderHandlersListOrdersCapsPageSize(t *testing.T) {
	var captured services.OrderListQuery
	service := &stubOrderService{
		listFn: func(ctx context.Context, actor services.Actor, query services.OrderListQuery) (domain.CursorPage[domain.Order], error) {
			captured = query
			return domain.CursorPage[domain.Order]{}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/orders?page_size=5000", nil), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.PageSize != maxOrderPageSize {
		t.Fatalf("expected page size capped at %d, got %d", maxOrderPageSize, captured.PageSize)
	}
}

func TestOrderHandlersGetOrderForbidden(t *testing.T) {
	service := &stubOrderService{
		getFn: func(ctx context.Context, actor services.Actor, orderID string) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderForbidden
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/orders/ord_123", nil), "user-2")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
}

func TestOrderHandlersGetOrderNotFound(t *testing.T) {
	service := &stubOrderService{
		getFn: func(ctx context.Context, actor services.Actor, orderID string) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderNotFound
		},
	}

	req := asUser(httptest.NewRequest(http.MethodGet, "/orders/ord_missing", nil), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestOrderHandlersCancelOrder(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	var captured services.CancelOrderCommand
	service := &stubOrderService{
		cancelFn: func(ctx context.Context, actor services.Actor, cmd services.CancelOrderCommand) (domain.Order, error) {
			captured = cmd
			return domain.Order{
				ID:           "ord_123",
				UserID:       "user-1",
				Status:       domain.OrderStatusCancelled,
				CancelledAt:  &now,
				CancelReason: cmd.Reason,
			}, nil
		},
	}

	body := bytes.NewBufferString(`{"reason":"đặt nhầm sản phẩm"}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/orders/ord_123:cancel", body), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.OrderID != "ord_123" || captured.Reason != "đặt nhầm sản phẩm" {
		t.Fatalf("unexpected cancel command: %#v", captured)
	}

	var resp orderResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Order.Status != "CANCELLED" || resp.Order.CancelledAt == "" {
		t.Fatalf("unexpected cancelled payload: %#v", resp.Order)
	}
}

func TestOrderHandlersCancelOrderWithoutBody(t *testing.T) {
	service := &stubOrderService{
		cancelFn: func(ctx context.Context, actor services.Actor, cmd services.CancelOrderCommand) (domain.Order, error) {
			return domain.Order{ID: cmd.OrderID, Status: domain.OrderStatusCancelled}, nil
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/orders/ord_123:cancel", nil), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestOrderHandlersCancelOrderConflict(t *testing.T) {
	service := &stubOrderService{
		cancelFn: func(ctx context.Context, actor services.Actor, cmd services.CancelOrderCommand) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderNotCancellable
		},
	}

	req := asUser(httptest.NewRequest(http.MethodPost, "/orders/ord_123:cancel", nil), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}
}

func TestOrderHandlersCreateOrderMiddlewareApplied(t *testing.T) {
	var middlewareHit bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			middlewareHit = true
			next.ServeHTTP(w, r)
		})
	}
	service := &stubOrderService{
		createFn: func(ctx context.Context, cmd services.CreateOrderCommand) (services.OrderResult, error) {
			return services.OrderResult{Order: domain.Order{ID: "ord_1"}}, nil
		},
	}

	body := bytes.NewBufferString(`{"shipping_address":"addr","payment_method":"COD"}`)
	req := asUser(httptest.NewRequest(http.MethodPost, "/orders", body), "user-1")
	rr := httptest.NewRecorder()
	newOrderRouter(service, WithCreateOrderMiddleware(mw)).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if !middlewareHit {
		t.Fatalf("expected create middleware to run")
	}

	// the middleware must not wrap the read endpoints
	middlewareHit = false
	listReq := asUser(httptest.NewRequest(http.MethodGet, "/orders", nil), "user-1")
	rr = httptest.NewRecorder()
	newOrderRouter(service, WithCreateOrderMiddleware(mw)).ServeHTTP(rr, listReq)
	if middlewareHit {
		t.Fatalf("expected list endpoint to bypass create middleware")
	}
}
