package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mekongmart/api/internal/services"
)

func newTestTopics(t *testing.T) (Topics, *pstest.Server) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	orders, err := client.CreateTopic(ctx, "order-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	paymentsTopic, err := client.CreateTopic(ctx, "payment-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	inventory, err := client.CreateTopic(ctx, "inventory-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	return Topics{Orders: orders, Payments: paymentsTopic, Inventory: inventory}, srv
}

func TestPublishOrderEvent(t *testing.T) {
	topics, srv := newTestTopics(t)
	publisher, err := NewPubSubEventPublisher(topics)
	if err != nil {
		t.Fatalf("NewPubSubEventPublisher: %v", err)
	}

	event := services.OrderEvent{
		Type:       services.EventOrderCreated,
		OrderID:    "ord_01HXYZ",
		UserID:     "user-1",
		Status:     "PENDING",
		TotalPrice: 480_000,
		OccurredAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := publisher.PublishOrderEvent(context.Background(), event); err != nil {
		t.Fatalf("PublishOrderEvent: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	var payload services.OrderEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.OrderID != event.OrderID || payload.TotalPrice != event.TotalPrice {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["type"]; attr != services.EventOrderCreated {
		t.Fatalf("type attribute = %q", attr)
	}
	if attr := messages[0].Attributes["orderId"]; attr != "ord_01HXYZ" {
		t.Fatalf("orderId attribute = %q", attr)
	}
}

func TestPublishPaymentAndInventoryEvents(t *testing.T) {
	topics, srv := newTestTopics(t)
	publisher, err := NewPubSubEventPublisher(topics)
	if err != nil {
		t.Fatalf("NewPubSubEventPublisher: %v", err)
	}

	if err := publisher.PublishPaymentEvent(context.Background(), services.PaymentEvent{
		Type:      services.EventPaymentStatusChanged,
		OrderID:   "ord_1",
		PaymentID: "pay_1",
		Status:    "PAID",
		Amount:    480_000,
	}); err != nil {
		t.Fatalf("PublishPaymentEvent: %v", err)
	}
	if err := publisher.PublishInventoryEvent(context.Background(), services.InventoryEvent{
		Type:       services.EventInventoryRestocked,
		OptionID:   "opt_tea_100",
		Delta:      5,
		StockLevel: 7,
	}); err != nil {
		t.Fatalf("PublishInventoryEvent: %v", err)
	}

	if got := len(srv.Messages()); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
}

func TestNilTopicsDisableFamilies(t *testing.T) {
	topics, _ := newTestTopics(t)
	publisher, err := NewPubSubEventPublisher(Topics{Orders: topics.Orders})
	if err != nil {
		t.Fatalf("NewPubSubEventPublisher: %v", err)
	}

	// Families without a topic drop events silently.
	if err := publisher.PublishPaymentEvent(context.Background(), services.PaymentEvent{}); err != nil {
		t.Fatalf("PublishPaymentEvent: %v", err)
	}

	if _, err := NewPubSubEventPublisher(Topics{}); err == nil {
		t.Fatal("expected error with no topics")
	}
}
