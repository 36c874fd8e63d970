package repositories

import (
	"context"
	"time"

	"github.com/mekongmart/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for
// dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Catalog() CatalogRepository
	Carts() CartRepository
	Orders() OrderRepository
	Inventory() InventoryRepository
}

// RepositoryError wraps low-level persistence failures with the
// categorisation services act on.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CatalogRepository reads products and options. The order core never
// mutates catalog data except through inventory adjustments.
type CatalogRepository interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	GetOption(ctx context.Context, optionID string) (domain.Option, error)
	// GetOptions resolves multiple options in one round trip, keyed by ID.
	// Missing options are simply absent from the result.
	GetOptions(ctx context.Context, optionIDs []string) (map[string]domain.Option, error)
}

// CartRepository owns the cart items of a user. A user has exactly one
// cart, keyed by their UID.
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	UpsertItem(ctx context.Context, userID string, item domain.CartItem) (domain.Cart, error)
	SetItemQuantity(ctx context.Context, userID, itemID string, quantity int, now time.Time) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

// OrderRepository persists orders with their item and payment subcollections
// and owns every transactional lifecycle mutation.
type OrderRepository interface {
	// Place atomically re-validates stock, writes the order with its items
	// and initial payment, decrements option stock, and drains the cart.
	// Insufficient or stale stock fails the whole transaction with a
	// *StockError.
	Place(ctx context.Context, req PlaceOrderRequest) (domain.Order, error)

	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)

	// UpdateStatus transitions the order inside a transaction. The allowed
	// transition set is enforced by the caller; the repository re-checks
	// the current status to guard against concurrent mutation.
	UpdateStatus(ctx context.Context, orderID string, update StatusUpdate) (domain.Order, error)

	// Cancel transitions the order to CANCELLED, restores option stock for
	// every item, and settles open payments, all in one transaction.
	Cancel(ctx context.Context, orderID string, req CancelRequest) (domain.Order, error)

	// SyncPayment applies a gateway settlement result to the order's
	// pending payment record.
	SyncPayment(ctx context.Context, sync PaymentSync) (domain.Payment, error)
}

// InventoryRepository reports and adjusts option stock outside the order
// lifecycle transactions.
type InventoryRepository interface {
	ListLowStock(ctx context.Context, query LowStockQuery) (domain.CursorPage[domain.Option], error)
	// Restock increases an option's stock by delta and returns the new level.
	Restock(ctx context.Context, optionID string, delta int, now time.Time) (domain.Option, error)
}

// PlaceOrderRequest carries a fully constructed order into the placement
// transaction. Order totals and item prices are frozen by the caller; the
// transaction only re-validates availability.
type PlaceOrderRequest struct {
	Order   domain.Order
	Payment domain.Payment
	Now     time.Time
	// DrainCart deletes the user's cart items once the order is written.
	DrainCart bool
}

// StatusUpdate describes a status transition to apply transactionally.
type StatusUpdate struct {
	From domain.OrderStatus
	To   domain.OrderStatus
	Now  time.Time
	// SettleOpenPayments marks UNPAID payments as PAID, used when a
	// delivery settles cash-on-delivery collection.
	SettleOpenPayments bool
}

// CancelRequest describes a cancellation to apply transactionally.
type CancelRequest struct {
	Reason string
	Now    time.Time
	// Operator widens eligibility to any non-terminal status; customers
	// are limited to PENDING and PROCESSING.
	Operator bool
}

// PaymentSync carries a gateway notification into the payment record.
type PaymentSync struct {
	OrderID    string
	GatewayRef string
	Amount     int64
	Success    bool
	Now        time.Time
}

// OrderListFilter controls order queries for customers and staff.
type OrderListFilter struct {
	UserID    string
	Status    []domain.OrderStatus
	From      *time.Time
	To        *time.Time
	PageSize  int
	PageToken string
}

// LowStockQuery controls pagination and threshold for low stock listings.
type LowStockQuery struct {
	Threshold int64
	PageSize  int
	PageToken string
}
