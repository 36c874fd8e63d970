package services

import (
	"context"
	"time"
)

// Event types emitted by the order lifecycle.
const (
	EventOrderCreated         = "order.created"
	EventOrderStatusChanged   = "order.status.changed"
	EventOrderCancelled       = "order.cancelled"
	EventPaymentStatusChanged = "payment.status.changed"
	EventInventoryRestocked   = "inventory.restocked"
)

// OrderEvent describes a lifecycle change of one order.
type OrderEvent struct {
	Type       string         `json:"type"`
	OrderID    string         `json:"orderId"`
	UserID     string         `json:"userId"`
	Status     string         `json:"status"`
	PrevStatus string         `json:"prevStatus,omitempty"`
	TotalPrice int64          `json:"totalPrice"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// PaymentEvent describes a settlement state change of one payment record.
type PaymentEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	PaymentID  string    `json:"paymentId"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	PrevStatus string    `json:"prevStatus,omitempty"`
	Amount     int64     `json:"amount"`
	GatewayRef string    `json:"gatewayRef,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// InventoryEvent describes a stock level change of one option.
type InventoryEvent struct {
	Type       string    `json:"type"`
	OptionID   string    `json:"optionId"`
	ProductID  string    `json:"productId"`
	Delta      int       `json:"delta"`
	StockLevel int       `json:"stockLevel"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderEventPublisher fans order lifecycle events out to interested
// consumers. Implementations must be safe for concurrent use.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// PaymentEventPublisher fans payment settlement events out.
type PaymentEventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event PaymentEvent) error
}

// InventoryEventPublisher fans stock change events out.
type InventoryEventPublisher interface {
	PublishInventoryEvent(ctx context.Context, event InventoryEvent) error
}
