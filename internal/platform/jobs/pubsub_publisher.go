// Package jobs carries lifecycle events out of the request path over
// Pub/Sub. Each event family gets its own topic so downstream consumers
// subscribe only to what they need.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/mekongmart/api/internal/services"
)

// PubSubEventPublisher publishes order, payment and inventory events to
// their configured topics. It implements every services publisher contract;
// nil topics disable the corresponding family.
type PubSubEventPublisher struct {
	orderTopic     *pubsub.Topic
	paymentTopic   *pubsub.Topic
	inventoryTopic *pubsub.Topic
	marshal        func(any) ([]byte, error)
}

// Topics names the destinations for each event family.
type Topics struct {
	Orders    *pubsub.Topic
	Payments  *pubsub.Topic
	Inventory *pubsub.Topic
}

// NewPubSubEventPublisher constructs a Pub/Sub backed event publisher. At
// least one topic must be configured.
func NewPubSubEventPublisher(topics Topics) (*PubSubEventPublisher, error) {
	if topics.Orders == nil && topics.Payments == nil && topics.Inventory == nil {
		return nil, errors.New("pubsub event publisher: at least one topic is required")
	}
	return &PubSubEventPublisher{
		orderTopic:     topics.Orders,
		paymentTopic:   topics.Payments,
		inventoryTopic: topics.Inventory,
		marshal:        json.Marshal,
	}, nil
}

// PublishOrderEvent enqueues one order lifecycle event.
func (p *PubSubEventPublisher) PublishOrderEvent(ctx context.Context, event services.OrderEvent) error {
	if p == nil || p.orderTopic == nil {
		return nil
	}
	attrs := make(map[string]string)
	setAttr(attrs, "type", event.Type)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "userId", event.UserID)
	setAttr(attrs, "status", event.Status)
	return p.publish(ctx, p.orderTopic, "order event", event, attrs)
}

// PublishPaymentEvent enqueues one payment settlement event.
func (p *PubSubEventPublisher) PublishPaymentEvent(ctx context.Context, event services.PaymentEvent) error {
	if p == nil || p.paymentTopic == nil {
		return nil
	}
	attrs := make(map[string]string)
	setAttr(attrs, "type", event.Type)
	setAttr(attrs, "orderId", event.OrderID)
	setAttr(attrs, "paymentId", event.PaymentID)
	setAttr(attrs, "status", event.Status)
	return p.publish(ctx, p.paymentTopic, "payment event", event, attrs)
}

// PublishInventoryEvent enqueues one stock change event.
func (p *PubSubEventPublisher) PublishInventoryEvent(ctx context.Context, event services.InventoryEvent) error {
	if p == nil || p.inventoryTopic == nil {
		return nil
	}
	attrs := make(map[string]string)
	setAttr(attrs, "type", event.Type)
	setAttr(attrs, "optionId", event.OptionID)
	setAttr(attrs, "productId", event.ProductID)
	return p.publish(ctx, p.inventoryTopic, "inventory event", event, attrs)
}

func (p *PubSubEventPublisher) publish(ctx context.Context, topic *pubsub.Topic, kind string, payload any, attrs map[string]string) error {
	data, err := p.marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	result := topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", kind, err)
	}
	return nil
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}

var (
	_ services.OrderEventPublisher     = (*PubSubEventPublisher)(nil)
	_ services.PaymentEventPublisher   = (*PubSubEventPublisher)(nil)
	_ services.InventoryEventPublisher = (*PubSubEventPublisher)(nil)
)
