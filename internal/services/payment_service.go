package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/payments"
	"github.com/mekongmart/api/internal/repositories"
)

// PaymentServiceDeps bundles the collaborators required to construct a
// payment service.
type PaymentServiceDeps struct {
	Orders        repositories.OrderRepository
	PaymentEvents PaymentEventPublisher
	Clock         func() time.Time
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type paymentService struct {
	orders        repositories.OrderRepository
	paymentEvents PaymentEventPublisher
	clock         func() time.Time
	logger        func(context.Context, string, map[string]any)
}

// NewPaymentService wires dependencies into a concrete PaymentService.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &paymentService{
		orders:        deps.Orders,
		paymentEvents: deps.PaymentEvents,
		clock:         func() time.Time { return clock().UTC() },
		logger:        logger,
	}, nil
}

// SyncFromGateway applies a verified gateway notification to the order's
// pending payment. A PAID payment is never downgraded: once the pending
// record is settled, replayed notifications fail with ErrPaymentNotPending.
func (s *paymentService) SyncFromGateway(ctx context.Context, n payments.Notification) (domain.Payment, error) {
	orderID := strings.TrimSpace(n.OrderID)
	if orderID == "" {
		return domain.Payment{}, fmt.Errorf("%w: order reference is required", ErrOrderInvalidInput)
	}

	payment, err := s.orders.SyncPayment(ctx, repositories.PaymentSync{
		OrderID:    orderID,
		GatewayRef: n.TransactionNo,
		Amount:     n.Amount,
		Success:    n.Success(),
		Now:        s.clock(),
	})
	if err != nil {
		return domain.Payment{}, mapRepositoryError(err, ErrOrderNotFound)
	}

	if s.paymentEvents != nil {
		event := PaymentEvent{
			Type:       EventPaymentStatusChanged,
			OrderID:    orderID,
			PaymentID:  payment.ID,
			Method:     string(payment.Method),
			Status:     string(payment.Status),
			PrevStatus: string(domain.PaymentStatusUnpaid),
			Amount:     payment.Amount,
			GatewayRef: payment.GatewayRef,
			OccurredAt: payment.UpdatedAt,
		}
		if err := s.paymentEvents.PublishPaymentEvent(ctx, event); err != nil {
			s.logger(ctx, "payment_event_publish_failed", map[string]any{
				"orderId":   orderID,
				"paymentId": payment.ID,
				"error":     err.Error(),
			})
		}
	}

	s.logger(ctx, "payment.synced", map[string]any{
		"orderId":      orderID,
		"paymentId":    payment.ID,
		"status":       string(payment.Status),
		"responseCode": n.ResponseCode,
	})
	return payment, nil
}
