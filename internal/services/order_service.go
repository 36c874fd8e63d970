package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/payments"
	"github.com/mekongmart/api/internal/repositories"
)

const defaultOrderPageSize = 20

// OrderServiceDeps bundles the collaborators required to construct an order
// service.
type OrderServiceDeps struct {
	Orders        repositories.OrderRepository
	Resolver      *SnapshotResolver
	Gateway       *payments.Gateway
	OrderEvents   OrderEventPublisher
	PaymentEvents PaymentEventPublisher
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
	PageSize      int
}

type orderService struct {
	orders        repositories.OrderRepository
	resolver      *SnapshotResolver
	gateway       *payments.Gateway
	orderEvents   OrderEventPublisher
	paymentEvents PaymentEventPublisher
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
	pageSize      int
}

// NewOrderService wires dependencies into a concrete OrderService.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Resolver == nil {
		return nil, errors.New("order service: snapshot resolver is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}

	return &orderService{
		orders:        deps.Orders,
		resolver:      deps.Resolver,
		gateway:       deps.Gateway,
		orderEvents:   deps.OrderEvents,
		paymentEvents: deps.PaymentEvents,
		clock:         func() time.Time { return clock().UTC() },
		newID:         idGen,
		logger:        logger,
		pageSize:      pageSize,
	}, nil
}

// CreateOrder resolves the caller's cart into a snapshot, freezes it onto a
// new order and places it atomically. The cart is drained by the same
// transaction that decrements stock.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderResult, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return OrderResult{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	address := strings.TrimSpace(cmd.ShippingAddress)
	if address == "" {
		return OrderResult{}, fmt.Errorf("%w: shipping address is required", ErrOrderInvalidInput)
	}
	method, ok := domain.ParsePaymentMethod(cmd.PaymentMethod)
	if !ok {
		return OrderResult{}, fmt.Errorf("%w: unsupported payment method %q", ErrOrderInvalidInput, cmd.PaymentMethod)
	}

	snapshot, err := s.resolver.Resolve(ctx, uid)
	if err != nil {
		return OrderResult{}, err
	}

	now := s.clock()
	order := domain.Order{
		ID:              "ord_" + s.newID(),
		UserID:          uid,
		Status:          domain.OrderStatusPending,
		TotalPrice:      snapshot.TotalPrice,
		ShippingAddress: address,
		PaymentMethod:   method,
		Items:           make([]domain.OrderItem, 0, len(snapshot.Lines)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, line := range snapshot.Lines {
		order.Items = append(order.Items, domain.OrderItem{
			ID:          "itm_" + s.newID(),
			ProductID:   line.ProductID,
			OptionID:    line.OptionID,
			ProductName: line.ProductName,
			OptionName:  line.OptionName,
			ImageURL:    line.ImageURL,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			SalePrice:   line.SalePrice,
			LineTotal:   line.LineTotal(),
		})
	}
	payment := domain.Payment{
		ID:      "pay_" + s.newID(),
		OrderID: order.ID,
		Amount:  order.TotalPrice,
		Method:  method,
		Status:  domain.PaymentStatusUnpaid,
	}

	placed, err := s.orders.Place(ctx, repositories.PlaceOrderRequest{
		Order:     order,
		Payment:   payment,
		Now:       now,
		DrainCart: true,
	})
	if err != nil {
		return OrderResult{}, mapRepositoryError(err, nil)
	}

	s.publishOrderEvent(ctx, OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    placed.ID,
		UserID:     placed.UserID,
		Status:     string(placed.Status),
		TotalPrice: placed.TotalPrice,
		OccurredAt: now,
	})
	s.logger(ctx, "order.created", map[string]any{
		"orderId":    placed.ID,
		"userId":     placed.UserID,
		"totalPrice": placed.TotalPrice,
		"method":     string(method),
	})

	result := OrderResult{Order: placed}
	if method == domain.PaymentMethodVNPay && s.gateway != nil {
		payURL, err := s.gateway.BuildPayURL(payments.PayRequest{
			OrderID:  placed.ID,
			Amount:   placed.TotalPrice,
			ClientIP: cmd.ClientIP,
		})
		if err != nil {
			// The order is already placed; the customer can retry payment
			// from the order page.
			s.logger(ctx, "order.payurl_failed", map[string]any{
				"orderId": placed.ID,
				"error":   err.Error(),
			})
		} else {
			result.PayURL = payURL
		}
	}
	return result, nil
}

func (s *orderService) GetOrder(ctx context.Context, actor Actor, orderID string) (domain.Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err, ErrOrderNotFound)
	}
	if !CanViewOrder(actor, order) {
		return domain.Order{}, fmt.Errorf("%w: order %s", ErrOrderForbidden, id)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, actor Actor, query OrderListQuery) (domain.CursorPage[domain.Order], error) {
	filter := repositories.OrderListFilter{
		From:      query.From,
		To:        query.To,
		PageSize:  query.PageSize,
		PageToken: query.PageToken,
	}
	if filter.PageSize <= 0 {
		filter.PageSize = s.pageSize
	}

	if CanListAllOrders(actor) {
		filter.UserID = strings.TrimSpace(query.UserID)
	} else {
		// Customers only ever see their own orders.
		filter.UserID = actor.UserID
	}
	if filter.UserID == "" && !CanListAllOrders(actor) {
		return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, ok := domain.ParseOrderStatus(raw)
		if !ok {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, raw)
		}
		filter.Status = []domain.OrderStatus{status}
	}

	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, mapRepositoryError(err, nil)
	}
	return page, nil
}

// UpdateStatus applies an operator-driven forward transition. Re-asserting
// DELIVERED on a delivered order is the sole permitted no-op.
func (s *orderService) UpdateStatus(ctx context.Context, actor Actor, cmd StatusTransitionCommand) (domain.Order, error) {
	if !CanTransition(actor) {
		return domain.Order{}, fmt.Errorf("%w: status transitions are operator-only", ErrOrderForbidden)
	}
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	target, ok := domain.ParseOrderStatus(cmd.Status)
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidStatus, cmd.Status)
	}
	if target == domain.OrderStatusCancelled {
		return domain.Order{}, fmt.Errorf("%w: use the cancellation endpoint", ErrOrderInvalidStatus)
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err, ErrOrderNotFound)
	}
	if current.Status == domain.OrderStatusDelivered && target == domain.OrderStatusDelivered {
		return current, nil
	}

	now := s.clock()
	updated, err := s.orders.UpdateStatus(ctx, id, repositories.StatusUpdate{
		From:               current.Status,
		To:                 target,
		Now:                now,
		SettleOpenPayments: target == domain.OrderStatusDelivered,
	})
	if err != nil {
		return domain.Order{}, mapRepositoryError(err, ErrOrderNotFound)
	}

	s.publishOrderEvent(ctx, OrderEvent{
		Type:       EventOrderStatusChanged,
		OrderID:    updated.ID,
		UserID:     updated.UserID,
		Status:     string(updated.Status),
		PrevStatus: string(current.Status),
		TotalPrice: updated.TotalPrice,
		OccurredAt: now,
	})
	s.publishPaymentTransitions(ctx, current, updated, now)
	s.logger(ctx, "order.status_changed", map[string]any{
		"orderId": updated.ID,
		"from":    string(current.Status),
		"to":      string(updated.Status),
	})
	return updated, nil
}

// CancelOrder compensates an order: status, stock and open payments all
// roll back in the repository's single transaction.
func (s *orderService) CancelOrder(ctx context.Context, actor Actor, cmd CancelOrderCommand) (domain.Order, error) {
	id := strings.TrimSpace(cmd.OrderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err, ErrOrderNotFound)
	}
	if !CanViewOrder(actor, current) {
		return domain.Order{}, fmt.Errorf("%w: order %s", ErrOrderForbidden, id)
	}
	if !CanCancel(actor, current) {
		return domain.Order{}, fmt.Errorf("%w: order %s cannot be cancelled from %s", ErrOrderNotCancellable, id, current.Status)
	}

	now := s.clock()
	cancelled, err := s.orders.Cancel(ctx, id, repositories.CancelRequest{
		Reason:   strings.TrimSpace(cmd.Reason),
		Now:      now,
		Operator: actor.IsOperator(),
	})
	if err != nil {
		var lifecycleErr *repositories.LifecycleError
		if errors.As(err, &lifecycleErr) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotCancellable, lifecycleErr.Message)
		}
		return domain.Order{}, mapRepositoryError(err, ErrOrderNotFound)
	}

	s.publishOrderEvent(ctx, OrderEvent{
		Type:       EventOrderCancelled,
		OrderID:    cancelled.ID,
		UserID:     cancelled.UserID,
		Status:     string(cancelled.Status),
		PrevStatus: string(current.Status),
		TotalPrice: cancelled.TotalPrice,
		Reason:     cancelled.CancelReason,
		OccurredAt: now,
	})
	s.publishPaymentTransitions(ctx, current, cancelled, now)
	s.logger(ctx, "order.cancelled", map[string]any{
		"orderId": cancelled.ID,
		"from":    string(current.Status),
		"reason":  cancelled.CancelReason,
	})
	return cancelled, nil
}

func (s *orderService) publishOrderEvent(ctx context.Context, event OrderEvent) {
	if s.orderEvents == nil {
		return
	}
	if err := s.orderEvents.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order_event_publish_failed", map[string]any{
			"orderId": event.OrderID,
			"type":    event.Type,
			"error":   err.Error(),
		})
	}
}

// publishPaymentTransitions emits one event per payment whose status moved
// between the before and after views of the order.
func (s *orderService) publishPaymentTransitions(ctx context.Context, before, after domain.Order, now time.Time) {
	if s.paymentEvents == nil {
		return
	}
	prev := make(map[string]domain.PaymentStatus, len(before.Payments))
	for _, payment := range before.Payments {
		prev[payment.ID] = payment.Status
	}
	for _, payment := range after.Payments {
		was, seen := prev[payment.ID]
		if seen && was == payment.Status {
			continue
		}
		event := PaymentEvent{
			Type:       EventPaymentStatusChanged,
			OrderID:    after.ID,
			PaymentID:  payment.ID,
			Method:     string(payment.Method),
			Status:     string(payment.Status),
			Amount:     payment.Amount,
			GatewayRef: payment.GatewayRef,
			OccurredAt: now,
		}
		if seen {
			event.PrevStatus = string(was)
		}
		if err := s.paymentEvents.PublishPaymentEvent(ctx, event); err != nil {
			s.logger(ctx, "payment_event_publish_failed", map[string]any{
				"orderId":   after.ID,
				"paymentId": payment.ID,
				"error":     err.Error(),
			})
		}
	}
}
