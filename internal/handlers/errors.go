package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/mekongmart/api/internal/platform/httpx"
	"github.com/mekongmart/api/internal/repositories"
	"github.com/mekongmart/api/internal/services"
)

// writeServiceError translates service layer errors into the JSON error
// envelope. Stock shortages and snapshot issues keep their per-line details.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var snapshotErr *services.SnapshotError
	if errors.As(err, &snapshotErr) {
		httpx.WriteError(ctx, w, httpx.NewError("cart_snapshot_invalid", "cart contains unavailable or out of stock items", http.StatusBadRequest).
			WithDetails(map[string]any{"issues": snapshotErr.Issues}))
		return
	}

	var stockErr *repositories.StockError
	if errors.As(err, &stockErr) {
		shortages := make([]map[string]any, 0, len(stockErr.Shortages))
		for _, s := range stockErr.Shortages {
			shortages = append(shortages, map[string]any{
				"option_id":  s.OptionID,
				"product_id": s.ProductID,
				"requested":  s.Requested,
				"available":  s.Available,
			})
		}
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "requested quantity exceeds available stock", http.StatusConflict).
			WithDetails(map[string]any{"shortages": shortages}))
		return
	}

	switch {
	case errors.Is(err, services.ErrCartInvalidInput),
		errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, services.ErrInventoryInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusBadRequest))
	case errors.Is(err, services.ErrCartItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_item_not_found", "cart item not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartOptionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("option_not_found", "product option not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartOptionUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("option_unavailable", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInventoryOptionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("option_not_found", "product option not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "caller may not access this resource", http.StatusForbidden))
	case errors.Is(err, services.ErrOrderInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidStatus):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_status_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderNotCancellable):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_cancellable", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPaymentNotPending):
		httpx.WriteError(ctx, w, httpx.NewError("payment_not_pending", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPaymentAmountMismatch):
		httpx.WriteError(ctx, w, httpx.NewError("payment_amount_mismatch", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "backing store is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
