package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/repositories"
)

const maxCartLineQuantity = 99

// CartServiceDeps bundles the collaborators required to construct a cart
// service.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Catalog     repositories.CatalogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	carts   repositories.CartRepository
	catalog repositories.CatalogRepository
	clock   func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
}

// NewCartService wires dependencies into a concrete CartService.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("cart service: catalog repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return "itm_" + ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		carts:   deps.Carts,
		catalog: deps.Catalog,
		clock:   func() time.Time { return clock().UTC() },
		newID:   idGen,
		logger:  logger,
	}, nil
}

func (s *cartService) GetCart(ctx context.Context, userID string) (CartView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) AddItem(ctx context.Context, cmd CartAddCommand) (CartView, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	optionID := strings.TrimSpace(cmd.OptionID)
	if optionID == "" {
		return CartView{}, fmt.Errorf("%w: option id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 || cmd.Quantity > maxCartLineQuantity {
		return CartView{}, fmt.Errorf("%w: quantity must be between 1 and %d", ErrCartInvalidInput, maxCartLineQuantity)
	}

	option, err := s.catalog.GetOption(ctx, optionID)
	if err != nil {
		return CartView{}, mapRepositoryError(err, ErrCartOptionNotFound)
	}
	if !option.IsActive {
		return CartView{}, fmt.Errorf("%w: %s", ErrCartOptionUnavailable, optionID)
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID != "" && productID != option.ProductID {
		return CartView{}, fmt.Errorf("%w: option %s does not belong to product %s", ErrCartInvalidInput, optionID, productID)
	}

	now := s.clock()
	cart, err := s.carts.UpsertItem(ctx, uid, domain.CartItem{
		ID:        s.newID(),
		ProductID: option.ProductID,
		OptionID:  optionID,
		Quantity:  cmd.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}

	s.logger(ctx, "cart.item_added", map[string]any{
		"userId":   uid,
		"optionId": optionID,
		"quantity": cmd.Quantity,
	})
	return s.buildView(ctx, cart)
}

func (s *cartService) UpdateItemQuantity(ctx context.Context, cmd CartUpdateCommand) (CartView, error) {
	uid := strings.TrimSpace(cmd.UserID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	itemID := strings.TrimSpace(cmd.ItemID)
	if itemID == "" {
		return CartView{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 || cmd.Quantity > maxCartLineQuantity {
		return CartView{}, fmt.Errorf("%w: quantity must be between 1 and %d", ErrCartInvalidInput, maxCartLineQuantity)
	}

	cart, err := s.carts.SetItemQuantity(ctx, uid, itemID, cmd.Quantity, s.clock())
	if err != nil {
		return CartView{}, mapRepositoryError(err, ErrCartItemNotFound)
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) (CartView, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return CartView{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return CartView{}, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}
	if err := s.carts.RemoveItem(ctx, uid, id); err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	cart, err := s.carts.Get(ctx, uid)
	if err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	if err := s.carts.Clear(ctx, uid); err != nil {
		return mapRepositoryError(err, nil)
	}
	s.logger(ctx, "cart.cleared", map[string]any{"userId": uid})
	return nil
}

// buildView joins cart lines with their live catalog state. Lines whose
// option vanished or went inactive stay visible, flagged unavailable, so
// the customer sees why checkout will refuse them.
func (s *cartService) buildView(ctx context.Context, cart domain.Cart) (CartView, error) {
	view := CartView{
		UserID:    cart.UserID,
		Items:     make([]CartLineView, 0, len(cart.Items)),
		UpdatedAt: cart.UpdatedAt,
	}
	if len(cart.Items) == 0 {
		view.TotalDisplay = domain.FormatVND(0)
		return view, nil
	}

	optionIDs := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		optionIDs = append(optionIDs, item.OptionID)
	}
	options, err := s.catalog.GetOptions(ctx, optionIDs)
	if err != nil {
		return CartView{}, mapRepositoryError(err, nil)
	}

	products := make(map[string]domain.Product)
	for _, item := range cart.Items {
		line := CartLineView{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			OptionID:  item.OptionID,
			Quantity:  item.Quantity,
		}

		option, ok := options[item.OptionID]
		if ok {
			line.OptionName = option.Name
			line.UnitPrice = option.Price
			line.SalePrice = option.SalePrice
			line.Available = option.IsActive
			line.StockLeft = option.StockQuantity
			line.InStock = option.StockQuantity >= item.Quantity
			line.LineTotal = option.EffectivePrice() * int64(item.Quantity)
			line.PriceDisplay = domain.FormatVND(option.EffectivePrice())

			product, seen := products[option.ProductID]
			if !seen {
				if loaded, err := s.catalog.GetProduct(ctx, option.ProductID); err == nil {
					product = loaded
				}
				products[option.ProductID] = product
			}
			line.ProductID = option.ProductID
			line.ProductName = product.Name
			line.ImageURL = product.ImageURL
			if !product.IsActive {
				line.Available = false
			}
		}

		if line.Available && line.InStock {
			view.TotalPrice += line.LineTotal
		}
		view.Items = append(view.Items, line)
	}

	view.TotalDisplay = domain.FormatVND(view.TotalPrice)
	return view, nil
}
