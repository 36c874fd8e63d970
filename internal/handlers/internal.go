package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mekongmart/api/internal/platform/auth"
	"github.com/mekongmart/api/internal/platform/httpx"
	"github.com/mekongmart/api/internal/services"
)

// InternalHandlers serves service-to-service endpoints used by warehouse
// tooling. The OIDC middleware on the /internal group authenticates the
// calling service; handlers only need its verified identity.
type InternalHandlers struct {
	inventory services.InventoryService
}

// NewInternalHandlers constructs the internal route handlers.
func NewInternalHandlers(inventory services.InventoryService) *InternalHandlers {
	return &InternalHandlers{inventory: inventory}
}

// Routes registers the /internal endpoints.
func (h *InternalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/inventory/low-stock", h.listLowStock)
	r.Post("/inventory/options/{optionID}/restock", h.restock)
}

func (h *InternalHandlers) listLowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := h.requireService(w, r); !ok {
		return
	}

	values := r.URL.Query()
	filter := services.LowStockFilter{
		PageToken: strings.TrimSpace(values.Get("page_token")),
	}
	if raw := strings.TrimSpace(values.Get("threshold")); raw != "" {
		threshold, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || threshold < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "threshold must be a non-negative integer", http.StatusBadRequest))
			return
		}
		filter.Threshold = threshold
	}
	if raw := strings.TrimSpace(values.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "page_size must be an integer", http.StatusBadRequest))
			return
		}
		if size > 0 {
			filter.PageSize = size
		}
	}

	page, err := h.inventory.ListLowStock(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := lowStockResponse{
		Options:       make([]optionPayload, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
	}
	for _, option := range page.Items {
		resp.Options = append(resp.Options, buildOptionPayload(option))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *InternalHandlers) restock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := h.requireService(w, r)
	if !ok {
		return
	}

	optionID := strings.TrimSpace(chi.URLParam(r, "optionID"))
	if optionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "optionID is required", http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req restockRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	option, err := h.inventory.Restock(ctx, actor, services.RestockCommand{
		OptionID: optionID,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, restockResponse{Option: buildOptionPayload(option)})
}

// requireService maps the verified service principal to an operator actor.
func (h *InternalHandlers) requireService(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	ctx := r.Context()
	if h.inventory == nil {
		httpx.WriteError(ctx, w, httpx.NewError("inventory_service_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
		return services.Actor{}, false
	}
	identity, ok := auth.ServiceIdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "service authentication required", http.StatusUnauthorized))
		return services.Actor{}, false
	}
	return services.Actor{
		UserID: "svc:" + strings.TrimSpace(identity.Subject),
		Roles:  []string{auth.RoleAdmin},
	}, true
}
