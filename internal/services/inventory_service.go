package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/repositories"
)

const defaultLowStockThreshold = 5

// InventoryServiceDeps bundles the collaborators required to construct an
// inventory service.
type InventoryServiceDeps struct {
	Inventory repositories.InventoryRepository
	Events    InventoryEventPublisher
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
	Threshold int64
	PageSize  int
}

type inventoryService struct {
	repo      repositories.InventoryRepository
	events    InventoryEventPublisher
	clock     func() time.Time
	logger    func(context.Context, string, map[string]any)
	threshold int64
	pageSize  int
}

// NewInventoryService wires dependencies into a concrete InventoryService.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Inventory == nil {
		return nil, errors.New("inventory service: inventory repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	threshold := deps.Threshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	pageSize := deps.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}

	return &inventoryService{
		repo:      deps.Inventory,
		events:    deps.Events,
		clock:     func() time.Time { return clock().UTC() },
		logger:    logger,
		threshold: threshold,
		pageSize:  pageSize,
	}, nil
}

func (s *inventoryService) ListLowStock(ctx context.Context, query LowStockFilter) (domain.CursorPage[domain.Option], error) {
	threshold := query.Threshold
	if threshold <= 0 {
		threshold = s.threshold
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = s.pageSize
	}

	page, err := s.repo.ListLowStock(ctx, repositories.LowStockQuery{
		Threshold: threshold,
		PageSize:  pageSize,
		PageToken: query.PageToken,
	})
	if err != nil {
		return domain.CursorPage[domain.Option]{}, mapRepositoryError(err, nil)
	}
	return page, nil
}

func (s *inventoryService) Restock(ctx context.Context, actor Actor, cmd RestockCommand) (domain.Option, error) {
	if !CanRestock(actor) {
		return domain.Option{}, fmt.Errorf("%w: restocking is operator-only", ErrOrderForbidden)
	}
	optionID := strings.TrimSpace(cmd.OptionID)
	if optionID == "" {
		return domain.Option{}, fmt.Errorf("%w: option id is required", ErrInventoryInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return domain.Option{}, fmt.Errorf("%w: quantity must be positive", ErrInventoryInvalidInput)
	}

	now := s.clock()
	option, err := s.repo.Restock(ctx, optionID, cmd.Quantity, now)
	if err != nil {
		return domain.Option{}, mapRepositoryError(err, ErrInventoryOptionNotFound)
	}

	if s.events != nil {
		if err := s.events.PublishInventoryEvent(ctx, InventoryEvent{
			Type:       EventInventoryRestocked,
			OptionID:   option.ID,
			ProductID:  option.ProductID,
			Delta:      cmd.Quantity,
			StockLevel: option.StockQuantity,
			OccurredAt: now,
		}); err != nil {
			s.logger(ctx, "inventory_event_publish_failed", map[string]any{
				"optionId": option.ID,
				"error":    err.Error(),
			})
		}
	}

	s.logger(ctx, "inventory.restocked", map[string]any{
		"optionId": option.ID,
		"delta":    cmd.Quantity,
		"stock":    option.StockQuantity,
		"actorId":  actor.UserID,
	})
	return option, nil
}
