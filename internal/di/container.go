package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mekongmart/api/internal/payments"
	"github.com/mekongmart/api/internal/platform/config"
	"github.com/mekongmart/api/internal/platform/observability"
	"github.com/mekongmart/api/internal/repositories"
	"github.com/mekongmart/api/internal/services"
)

// EventPublisher bundles the per-family publishers the services emit on.
// The Pub/Sub publisher in platform/jobs satisfies it; tests may stub it.
type EventPublisher interface {
	services.OrderEventPublisher
	services.PaymentEventPublisher
	services.InventoryEventPublisher
}

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Cart      services.CartService
	Orders    services.OrderService
	Payments  services.PaymentService
	Inventory services.InventoryService
}

// Container wires repositories, services, and payment infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Gateway      *payments.Gateway
	Services     Services
}

// ContainerOption customises container construction.
type ContainerOption func(*containerConfig)

type containerConfig struct {
	logger *zap.Logger
	events EventPublisher
}

// WithLogger supplies the zap logger used for service-level event logging.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

// WithEventPublisher supplies the lifecycle event publisher.
func WithEventPublisher(pub EventPublisher) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.events = pub
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides the
// Firestore-backed registry; tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...ContainerOption) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	var cc containerConfig
	for _, opt := range opts {
		opt(&cc)
	}
	if cc.logger == nil {
		cc.logger = zap.NewNop()
	}

	var gateway *payments.Gateway
	if cfg.VNPay.TmnCode != "" && cfg.VNPay.HashSecret != "" {
		var err error
		gateway, err = payments.NewGateway(cfg.VNPay)
		if err != nil {
			return nil, fmt.Errorf("build vnpay gateway: %w", err)
		}
	}

	svc, err := buildServices(reg, cfg, gateway, cc)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Gateway:      gateway,
		Services:     svc,
	}, nil
}

// Close releases resources such as repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(reg repositories.Registry, cfg config.Config, gateway *payments.Gateway, cc containerConfig) (Services, error) {
	var svc Services

	logger := observability.FieldLogger(cc.logger)

	cartsRepo := reg.Carts()
	catalogRepo := reg.Catalog()
	if cartsRepo != nil && catalogRepo != nil {
		cartSvc, err := services.NewCartService(services.CartServiceDeps{
			Carts:   cartsRepo,
			Catalog: catalogRepo,
			Clock:   time.Now,
			Logger:  logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build cart service: %w", err)
		}
		svc.Cart = cartSvc
	}

	ordersRepo := reg.Orders()
	if ordersRepo != nil && cartsRepo != nil && catalogRepo != nil {
		resolver, err := services.NewSnapshotResolver(cartsRepo, catalogRepo)
		if err != nil {
			return Services{}, fmt.Errorf("build snapshot resolver: %w", err)
		}

		orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
			Orders:        ordersRepo,
			Resolver:      resolver,
			Gateway:       gateway,
			OrderEvents:   orderEvents(cc.events),
			PaymentEvents: paymentEvents(cc.events),
			Clock:         time.Now,
			Logger:        logger,
			PageSize:      cfg.Orders.PageSize,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build order service: %w", err)
		}
		svc.Orders = orderSvc

		paymentSvc, err := services.NewPaymentService(services.PaymentServiceDeps{
			Orders:        ordersRepo,
			PaymentEvents: paymentEvents(cc.events),
			Clock:         time.Now,
			Logger:        logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build payment service: %w", err)
		}
		svc.Payments = paymentSvc
	}

	if inventoryRepo := reg.Inventory(); inventoryRepo != nil {
		inventorySvc, err := services.NewInventoryService(services.InventoryServiceDeps{
			Inventory: inventoryRepo,
			Events:    inventoryEvents(cc.events),
			Clock:     time.Now,
			Logger:    logger,
			Threshold: cfg.Orders.LowStockThreshold,
			PageSize:  cfg.Orders.PageSize,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build inventory service: %w", err)
		}
		svc.Inventory = inventorySvc
	}

	return svc, nil
}

// A nil EventPublisher must stay nil after conversion to the narrower
// publisher interfaces, otherwise the services would call through it.
func orderEvents(pub EventPublisher) services.OrderEventPublisher {
	if pub == nil {
		return nil
	}
	return pub
}

func paymentEvents(pub EventPublisher) services.PaymentEventPublisher {
	if pub == nil {
		return nil
	}
	return pub
}

func inventoryEvents(pub EventPublisher) services.InventoryEventPublisher {
	if pub == nil {
		return nil
	}
	return pub
}
