package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/repositories"
)

// notFoundErr satisfies repositories.RepositoryError for stubbed lookups.
type notFoundErr struct{ msg string }

func (e notFoundErr) Error() string       { return e.msg }
func (e notFoundErr) IsNotFound() bool    { return true }
func (e notFoundErr) IsConflict() bool    { return false }
func (e notFoundErr) IsUnavailable() bool { return false }

type unavailableErr struct{ msg string }

func (e unavailableErr) Error() string       { return e.msg }
func (e unavailableErr) IsNotFound() bool    { return false }
func (e unavailableErr) IsConflict() bool    { return false }
func (e unavailableErr) IsUnavailable() bool { return true }

type stubCartRepo struct {
	carts     map[string]domain.Cart
	upserted  []domain.CartItem
	cleared   []string
	removed   []string
	getErr    error
	upsertErr error
}

func (s *stubCartRepo) Get(_ context.Context, userID string) (domain.Cart, error) {
	if s.getErr != nil {
		return domain.Cart{}, s.getErr
	}
	cart, ok := s.carts[userID]
	if !ok {
		return domain.Cart{ID: userID, UserID: userID, Items: []domain.CartItem{}}, nil
	}
	return cart, nil
}

func (s *stubCartRepo) UpsertItem(_ context.Context, userID string, item domain.CartItem) (domain.Cart, error) {
	if s.upsertErr != nil {
		return domain.Cart{}, s.upsertErr
	}
	s.upserted = append(s.upserted, item)
	cart := s.carts[userID]
	cart.ID = userID
	cart.UserID = userID
	merged := false
	for i, existing := range cart.Items {
		if existing.OptionID == item.OptionID {
			cart.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, item)
	}
	if s.carts == nil {
		s.carts = map[string]domain.Cart{}
	}
	s.carts[userID] = cart
	return cart, nil
}

func (s *stubCartRepo) SetItemQuantity(_ context.Context, userID, itemID string, quantity int, now time.Time) (domain.Cart, error) {
	cart, ok := s.carts[userID]
	if !ok {
		return domain.Cart{}, notFoundErr{msg: "cart not found"}
	}
	for i, item := range cart.Items {
		if item.ID == itemID {
			cart.Items[i].Quantity = quantity
			cart.Items[i].UpdatedAt = now
			s.carts[userID] = cart
			return cart, nil
		}
	}
	return domain.Cart{}, notFoundErr{msg: "item not found"}
}

func (s *stubCartRepo) RemoveItem(_ context.Context, userID, itemID string) error {
	s.removed = append(s.removed, itemID)
	cart := s.carts[userID]
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
	s.carts[userID] = cart
	return nil
}

func (s *stubCartRepo) Clear(_ context.Context, userID string) error {
	s.cleared = append(s.cleared, userID)
	cart := s.carts[userID]
	cart.Items = nil
	s.carts[userID] = cart
	return nil
}

type stubCatalogRepo struct {
	products map[string]domain.Product
	options  map[string]domain.Option
}

func (s *stubCatalogRepo) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return domain.Product{}, notFoundErr{msg: "product " + productID + " not found"}
	}
	return product, nil
}

func (s *stubCatalogRepo) GetOption(_ context.Context, optionID string) (domain.Option, error) {
	option, ok := s.options[optionID]
	if !ok {
		return domain.Option{}, notFoundErr{msg: "option " + optionID + " not found"}
	}
	return option, nil
}

func (s *stubCatalogRepo) GetOptions(_ context.Context, optionIDs []string) (map[string]domain.Option, error) {
	out := make(map[string]domain.Option, len(optionIDs))
	for _, id := range optionIDs {
		if option, ok := s.options[id]; ok {
			out[id] = option
		}
	}
	return out, nil
}

type stubOrderRepo struct {
	orders    map[string]domain.Order
	placed    []repositories.PlaceOrderRequest
	updates   []repositories.StatusUpdate
	cancels   []repositories.CancelRequest
	syncs     []repositories.PaymentSync
	placeErr  error
	updateErr error
	cancelErr error
	syncErr   error
	synced    domain.Payment
}

func (s *stubOrderRepo) Place(_ context.Context, req repositories.PlaceOrderRequest) (domain.Order, error) {
	if s.placeErr != nil {
		return domain.Order{}, s.placeErr
	}
	s.placed = append(s.placed, req)
	order := req.Order
	order.Status = domain.OrderStatusPending
	order.Payments = []domain.Payment{req.Payment}
	if s.orders == nil {
		s.orders = map[string]domain.Order{}
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundErr{msg: "order " + orderID + " not found"}
	}
	return order, nil
}

func (s *stubOrderRepo) List(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	var items []domain.Order
	for _, order := range s.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if len(filter.Status) > 0 {
			matched := false
			for _, status := range filter.Status {
				if order.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		items = append(items, order)
	}
	return domain.CursorPage[domain.Order]{Items: items}, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, orderID string, update repositories.StatusUpdate) (domain.Order, error) {
	if s.updateErr != nil {
		return domain.Order{}, s.updateErr
	}
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundErr{msg: "order not found"}
	}
	if !order.Status.CanTransitionTo(update.To) {
		return domain.Order{}, repositories.NewLifecycleError("orders.updateStatus", repositories.CodeInvalidTransition,
			"order %s cannot move from %s to %s", orderID, order.Status, update.To)
	}
	s.updates = append(s.updates, update)
	order.Status = update.To
	order.UpdatedAt = update.Now
	order.Payments = append([]domain.Payment(nil), order.Payments...)
	if update.SettleOpenPayments {
		for i, payment := range order.Payments {
			if payment.Status == domain.PaymentStatusUnpaid {
				order.Payments[i].Status = domain.PaymentStatusPaid
			}
		}
	}
	s.orders[orderID] = order
	return order, nil
}

func (s *stubOrderRepo) Cancel(_ context.Context, orderID string, req repositories.CancelRequest) (domain.Order, error) {
	if s.cancelErr != nil {
		return domain.Order{}, s.cancelErr
	}
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, notFoundErr{msg: "order not found"}
	}
	if order.Status == domain.OrderStatusCancelled {
		return domain.Order{}, repositories.NewLifecycleError("orders.cancel", repositories.CodeAlreadyCancelled,
			"order %s is already cancelled", orderID)
	}
	allowed := order.Status.Cancellable()
	if req.Operator {
		allowed = order.Status.CancellableByOperator()
	}
	if !allowed {
		return domain.Order{}, repositories.NewLifecycleError("orders.cancel", repositories.CodeInvalidTransition,
			"order %s cannot be cancelled from %s", orderID, order.Status)
	}
	s.cancels = append(s.cancels, req)
	order.Status = domain.OrderStatusCancelled
	order.CancelReason = req.Reason
	order.Payments = append([]domain.Payment(nil), order.Payments...)
	for i, payment := range order.Payments {
		if payment.Status == domain.PaymentStatusUnpaid {
			order.Payments[i].Status = domain.PaymentStatusFailed
		}
	}
	s.orders[orderID] = order
	return order, nil
}

func (s *stubOrderRepo) SyncPayment(_ context.Context, sync repositories.PaymentSync) (domain.Payment, error) {
	if s.syncErr != nil {
		return domain.Payment{}, s.syncErr
	}
	s.syncs = append(s.syncs, sync)
	return s.synced, nil
}

type stubInventoryRepo struct {
	options    map[string]domain.Option
	lowStock   []domain.Option
	lastQuery  repositories.LowStockQuery
	restockErr error
}

func (s *stubInventoryRepo) ListLowStock(_ context.Context, query repositories.LowStockQuery) (domain.CursorPage[domain.Option], error) {
	s.lastQuery = query
	return domain.CursorPage[domain.Option]{Items: s.lowStock}, nil
}

func (s *stubInventoryRepo) Restock(_ context.Context, optionID string, delta int, now time.Time) (domain.Option, error) {
	if s.restockErr != nil {
		return domain.Option{}, s.restockErr
	}
	option, ok := s.options[optionID]
	if !ok {
		return domain.Option{}, notFoundErr{msg: "option not found"}
	}
	option.StockQuantity += delta
	option.UpdatedAt = now
	s.options[optionID] = option
	return option, nil
}

type capturePublisher struct {
	orderEvents     []OrderEvent
	paymentEvents   []PaymentEvent
	inventoryEvents []InventoryEvent
	err             error
}

func (c *capturePublisher) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	if c.err != nil {
		return c.err
	}
	c.orderEvents = append(c.orderEvents, event)
	return nil
}

func (c *capturePublisher) PublishPaymentEvent(_ context.Context, event PaymentEvent) error {
	if c.err != nil {
		return c.err
	}
	c.paymentEvents = append(c.paymentEvents, event)
	return nil
}

func (c *capturePublisher) PublishInventoryEvent(_ context.Context, event InventoryEvent) error {
	if c.err != nil {
		return c.err
	}
	c.inventoryEvents = append(c.inventoryEvents, event)
	return nil
}

func sequentialIDs(prefix string) func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%s%04d", prefix, n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func int64p(v int64) *int64 { return &v }
