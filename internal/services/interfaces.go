// Package services implements the order lifecycle use cases on top of the
// repository contracts: cart maintenance, snapshot resolution, order
// construction, status transitions, cancellation compensation and payment
// synchronisation.
package services

import (
	"context"
	"time"

	"github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/payments"
)

// CartService maintains the single cart of the authenticated user and
// returns it priced against the live catalog.
type CartService interface {
	GetCart(ctx context.Context, userID string) (CartView, error)
	AddItem(ctx context.Context, cmd CartAddCommand) (CartView, error)
	UpdateItemQuantity(ctx context.Context, cmd CartUpdateCommand) (CartView, error)
	RemoveItem(ctx context.Context, userID, itemID string) (CartView, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderService drives the order lifecycle from placement to a terminal
// state.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (OrderResult, error)
	GetOrder(ctx context.Context, actor Actor, orderID string) (domain.Order, error)
	ListOrders(ctx context.Context, actor Actor, filter OrderListQuery) (domain.CursorPage[domain.Order], error)
	UpdateStatus(ctx context.Context, actor Actor, cmd StatusTransitionCommand) (domain.Order, error)
	CancelOrder(ctx context.Context, actor Actor, cmd CancelOrderCommand) (domain.Order, error)
}

// PaymentService reconciles gateway notifications with payment records.
type PaymentService interface {
	SyncFromGateway(ctx context.Context, n payments.Notification) (domain.Payment, error)
}

// InventoryService exposes stock reporting and restocking to operators.
type InventoryService interface {
	ListLowStock(ctx context.Context, query LowStockFilter) (domain.CursorPage[domain.Option], error)
	Restock(ctx context.Context, actor Actor, cmd RestockCommand) (domain.Option, error)
}

// Actor identifies who is invoking an operation and with which roles.
type Actor struct {
	UserID string
	Roles  []string
}

// CartView is the cart priced against the live catalog. Inactive options and
// exceeded stock are flagged per line, not dropped.
type CartView struct {
	UserID     string
	Items      []CartLineView
	TotalPrice int64
	// TotalDisplay is the VND-formatted total for presentation.
	TotalDisplay string
	UpdatedAt    time.Time
}

// CartLineView is one cart line joined with its catalog state.
type CartLineView struct {
	ItemID       string
	ProductID    string
	ProductName  string
	OptionID     string
	OptionName   string
	ImageURL     string
	Quantity     int
	UnitPrice    int64
	SalePrice    *int64
	LineTotal    int64
	Available    bool
	InStock      bool
	StockLeft    int
	PriceDisplay string
}

// CartAddCommand adds an option to the user's cart.
type CartAddCommand struct {
	UserID    string
	ProductID string
	OptionID  string
	Quantity  int
}

// CartUpdateCommand overwrites a line's quantity.
type CartUpdateCommand struct {
	UserID   string
	ItemID   string
	Quantity int
}

// CreateOrderCommand places an order from the caller's current cart.
type CreateOrderCommand struct {
	UserID          string
	ShippingAddress string
	PaymentMethod   string
	// ClientIP feeds the gateway redirect when the method requires one.
	ClientIP string
}

// OrderResult is a placed order plus the gateway redirect, when the chosen
// payment method needs one.
type OrderResult struct {
	Order domain.Order
	// PayURL is set only for gateway methods.
	PayURL string
}

// StatusTransitionCommand moves an order to the requested status.
type StatusTransitionCommand struct {
	OrderID string
	Status  string
}

// CancelOrderCommand cancels an order with an optional reason.
type CancelOrderCommand struct {
	OrderID string
	Reason  string
}

// OrderListQuery filters order listings. Customers are always scoped to
// their own orders regardless of UserID.
type OrderListQuery struct {
	UserID    string
	Status    string
	From      *time.Time
	To        *time.Time
	PageSize  int
	PageToken string
}

// LowStockFilter tunes the low stock report.
type LowStockFilter struct {
	Threshold int64
	PageSize  int
	PageToken string
}

// RestockCommand adds stock to an option.
type RestockCommand struct {
	OptionID string
	Quantity int
}
