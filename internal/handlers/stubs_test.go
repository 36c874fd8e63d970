package handlers

import (
	"context"
	"errors"

	domain "github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/payments"
	"github.com/mekongmart/api/internal/services"
)

type stubCartService struct {
	getFn    func(context.Context, string) (services.CartView, error)
	addFn    func(context.Context, services.CartAddCommand) (services.CartView, error)
	updateFn func(context.Context, services.CartUpdateCommand) (services.CartView, error)
	removeFn func(context.Context, string, string) (services.CartView, error)
	clearFn  func(context.Context, string) error
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (services.CartView, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return services.CartView{}, errors.New("not implemented")
}

func (s *stubCartService) AddItem(ctx context.Context, cmd services.CartAddCommand) (services.CartView, error) {
	if s.addFn != nil {
		return s.addFn(ctx, cmd)
	}
	return services.CartView{}, errors.New("not implemented")
}

func (s *stubCartService) UpdateItemQuantity(ctx context.Context, cmd services.CartUpdateCommand) (services.CartView, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.CartView{}, errors.New("not implemented")
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID string) (services.CartView, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, userID, itemID)
	}
	return services.CartView{}, errors.New("not implemented")
}

func (s *stubCartService) ClearCart(ctx context.Context, userID string) error {
	if s.clearFn != nil {
		return s.clearFn(ctx, userID)
	}
	return errors.New("not implemented")
}

type stubOrderService struct {
	createFn func(context.Context, services.CreateOrderCommand) (services.OrderResult, error)
	getFn    func(context.Context, services.Actor, string) (domain.Order, error)
	listFn   func(context.Context, services.Actor, services.OrderListQuery) (domain.CursorPage[domain.Order], error)
	statusFn func(context.Context, services.Actor, services.StatusTransitionCommand) (domain.Order, error)
	cancelFn func(context.Context, services.Actor, services.CancelOrderCommand) (domain.Order, error)
}

func (s *stubOrderService) CreateOrder(ctx context.Context, cmd services.CreateOrderCommand) (services.OrderResult, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.OrderResult{}, errors.New("not implemented")
}

func (s *stubOrderService) GetOrder(ctx context.Context, actor services.Actor, orderID string) (domain.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, actor, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) ListOrders(ctx context.Context, actor services.Actor, query services.OrderListQuery) (domain.CursorPage[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor, query)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, actor services.Actor, cmd services.StatusTransitionCommand) (domain.Order, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx, actor, cmd)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderService) CancelOrder(ctx context.Context, actor services.Actor, cmd services.CancelOrderCommand) (domain.Order, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, actor, cmd)
	}
	return domain.Order{}, errors.New("not implemented")
}

type stubPaymentService struct {
	syncFn func(context.Context, payments.Notification) (domain.Payment, error)
}

func (s *stubPaymentService) SyncFromGateway(ctx context.Context, n payments.Notification) (domain.Payment, error) {
	if s.syncFn != nil {
		return s.syncFn(ctx, n)
	}
	return domain.Payment{}, errors.New("not implemented")
}

type stubInventoryService struct {
	listFn    func(context.Context, services.LowStockFilter) (domain.CursorPage[domain.Option], error)
	restockFn func(context.Context, services.Actor, services.RestockCommand) (domain.Option, error)
}

func (s *stubInventoryService) ListLowStock(ctx context.Context, filter services.LowStockFilter) (domain.CursorPage[domain.Option], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Option]{}, nil
}

func (s *stubInventoryService) Restock(ctx context.Context, actor services.Actor, cmd services.RestockCommand) (domain.Option, error) {
	if s.restockFn != nil {
		return s.restockFn(ctx, actor, cmd)
	}
	return domain.Option{}, errors.New("not implemented")
}
