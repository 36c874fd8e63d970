package domain

import (
	"strings"
	"time"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipping   OrderStatus = "SHIPPING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// ParseOrderStatus maps a raw string onto the closed status enumeration.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusProcessing:
		return OrderStatusProcessing, true
	case OrderStatusShipping:
		return OrderStatusShipping, true
	case OrderStatusDelivered:
		return OrderStatusDelivered, true
	case OrderStatusCancelled:
		return OrderStatusCancelled, true
	}
	return "", false
}

// IsTerminal reports whether the status permits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus enumerates settlement states of a payment record.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// PaymentMethod enumerates the supported settlement channels.
type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = "COD"
	PaymentMethodVNPay PaymentMethod = "VNPAY"
)

// ParsePaymentMethod maps a raw string onto the closed method enumeration.
func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(raw))) {
	case PaymentMethodCOD:
		return PaymentMethodCOD, true
	case PaymentMethodVNPay:
		return PaymentMethodVNPay, true
	}
	return "", false
}

// Product is the catalog entry an option belongs to. The order core reads it
// for display fields and existence checks only.
type Product struct {
	ID        string
	Name      string
	ImageURL  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Option is a purchasable variant of a product. StockQuantity is the single
// source of truth for availability; only the inventory ledger mutates it.
type Option struct {
	ID            string
	ProductID     string
	Name          string
	Price         int64
	SalePrice     *int64
	StockQuantity int
	IsActive      bool
	UpdatedAt     time.Time
}

// EffectivePrice returns the sale price when one is set, the list price
// otherwise. All charge math uses this value.
func (o Option) EffectivePrice() int64 {
	if o.SalePrice != nil {
		return *o.SalePrice
	}
	return o.Price
}

// Cart is the single active cart of a user. The order core only ever reads
// it; mutation belongs to the cart endpoints.
type Cart struct {
	ID        string
	UserID    string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem references one option and a desired quantity.
type CartItem struct {
	ID        string
	ProductID string
	OptionID  string
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SnapshotLine is one validated, priced order-candidate line. Prices are
// captured at resolution time and frozen onto the order item.
type SnapshotLine struct {
	ProductID   string
	OptionID    string
	ProductName string
	OptionName  string
	ImageURL    string
	Quantity    int
	UnitPrice   int64
	SalePrice   *int64
}

// LineTotal is the frozen charge for the line: effective price times quantity.
func (l SnapshotLine) LineTotal() int64 {
	price := l.UnitPrice
	if l.SalePrice != nil {
		price = *l.SalePrice
	}
	return price * int64(l.Quantity)
}

// CartSnapshot is the validated, priced view of a cart used as the sole
// input to order construction.
type CartSnapshot struct {
	CartID     string
	UserID     string
	Lines      []SnapshotLine
	TotalPrice int64
}

// Order is immutable once created except for Status and timestamps.
type Order struct {
	ID              string
	UserID          string
	Status          OrderStatus
	TotalPrice      int64
	ShippingAddress string
	PaymentMethod   PaymentMethod
	Items           []OrderItem
	Payments        []Payment
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
}

// OrderItem is a frozen copy of a snapshot line. Later catalog price changes
// never alter it.
type OrderItem struct {
	ID          string
	ProductID   string
	OptionID    string
	ProductName string
	OptionName  string
	ImageURL    string
	Quantity    int
	UnitPrice   int64
	SalePrice   *int64
	LineTotal   int64
}

// Payment is one settlement attempt against an order. Exactly one UNPAID
// record is created with the order; the model allows more.
type Payment struct {
	ID              string
	OrderID         string
	Amount          int64
	Method          PaymentMethod
	Status          PaymentStatus
	TransactionDate time.Time
	GatewayRef      string
	UpdatedAt       time.Time
}

// CursorPage wraps a page of results with an opaque continuation token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}
