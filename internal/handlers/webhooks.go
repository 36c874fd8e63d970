package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mekongmart/api/internal/payments"
	"github.com/mekongmart/api/internal/platform/requestctx"
	"github.com/mekongmart/api/internal/services"
)

// VNPay IPN acknowledgement codes. The gateway retries until it receives
// RspCode 00 or a terminal rejection.
const (
	vnpRspConfirmed        = "00"
	vnpRspOrderNotFound    = "01"
	vnpRspAlreadyConfirmed = "02"
	vnpRspInvalidAmount    = "04"
	vnpRspInvalidSignature = "97"
	vnpRspUnknownError     = "99"
)

type vnpIPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// WebhookHandlers terminates gateway callbacks. Authentication is the
// gateway's own HMAC signature, verified before any state is touched.
type WebhookHandlers struct {
	gateway  *payments.Gateway
	payments services.PaymentService
	logger   *zap.Logger
}

// NewWebhookHandlers constructs the webhook route handlers.
func NewWebhookHandlers(gateway *payments.Gateway, paymentSvc services.PaymentService, logger *zap.Logger) *WebhookHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandlers{
		gateway:  gateway,
		payments: paymentSvc,
		logger:   logger,
	}
}

// Routes registers the /webhooks endpoints.
func (h *WebhookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/vnpay/ipn", h.vnpayIPN)
}

// vnpayIPN reconciles a server-to-server payment notification. Responses
// always use HTTP 200 with the gateway's RspCode contract; a non-00 code
// tells VNPay to stop retrying for terminal failures.
func (h *WebhookHandlers) vnpayIPN(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger
	if ctxLogger := requestctx.Logger(ctx); ctxLogger != requestctx.NoopLogger() {
		logger = ctxLogger
	}

	if h.gateway == nil || h.payments == nil {
		writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspUnknownError, Message: "Gateway not configured"})
		return
	}

	notification, err := h.gateway.VerifyIPN(r.URL.Query())
	if err != nil {
		logger.Warn("webhook.vnpay_ipn_rejected", zap.Error(err))
		switch {
		case errors.Is(err, payments.ErrInvalidSignature), errors.Is(err, payments.ErrMissingSignature):
			writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspInvalidSignature, Message: "Invalid signature"})
		case errors.Is(err, payments.ErrMissingOrderRef):
			writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspOrderNotFound, Message: "Order not found"})
		default:
			writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspUnknownError, Message: "Unknown error"})
		}
		return
	}

	payment, err := h.payments.SyncFromGateway(ctx, notification)
	if err != nil {
		logger.Warn("webhook.vnpay_sync_failed",
			zap.String("order_id", notification.OrderID),
			zap.Error(err))
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspOrderNotFound, Message: "Order not found"})
		case errors.Is(err, services.ErrPaymentNotPending):
			writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspAlreadyConfirmed, Message: "Order already confirmed"})
		case errors.Is(err, services.ErrPaymentAmountMismatch):
			writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspInvalidAmount, Message: "Invalid amount"})
		default:
			writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspUnknownError, Message: "Unknown error"})
		}
		return
	}

	logger.Info("webhook.vnpay_ipn_confirmed",
		zap.String("order_id", notification.OrderID),
		zap.String("payment_id", payment.ID),
		zap.String("payment_status", string(payment.Status)))
	writeJSONResponse(w, http.StatusOK, vnpIPNResponse{RspCode: vnpRspConfirmed, Message: "Confirm Success"})
}
