package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mekongmart/api/internal/domain"
	"github.com/mekongmart/api/internal/repositories"
)

// Snapshot issue codes.
const (
	IssueOptionNotFound    = "option_not_found"
	IssueOptionInactive    = "option_inactive"
	IssueProductInactive   = "product_inactive"
	IssueInsufficientStock = "insufficient_stock"
)

// SnapshotIssue explains why one cart line cannot become an order line.
type SnapshotIssue struct {
	ItemID    string `json:"itemId"`
	OptionID  string `json:"optionId"`
	Code      string `json:"code"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

// SnapshotError rejects snapshot resolution with every failing line, so the
// customer can fix the whole cart in one pass.
type SnapshotError struct {
	Issues []SnapshotIssue
}

func (e *SnapshotError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.OptionID, issue.Code))
	}
	return "cart snapshot rejected: " + strings.Join(parts, ", ")
}

// SnapshotResolver turns the live cart into a validated, priced order
// candidate. Prices are frozen at resolution time; the placement
// transaction re-checks only availability.
type SnapshotResolver struct {
	carts   repositories.CartRepository
	catalog repositories.CatalogRepository
}

// NewSnapshotResolver wires the resolver's repositories.
func NewSnapshotResolver(carts repositories.CartRepository, catalog repositories.CatalogRepository) (*SnapshotResolver, error) {
	if carts == nil {
		return nil, errors.New("snapshot resolver: cart repository is required")
	}
	if catalog == nil {
		return nil, errors.New("snapshot resolver: catalog repository is required")
	}
	return &SnapshotResolver{carts: carts, catalog: catalog}, nil
}

// Resolve loads the user's cart and validates every line against the live
// catalog. An empty cart resolves to ErrOrderEmptyCart; any failing line
// fails the whole resolution with a *SnapshotError.
func (r *SnapshotResolver) Resolve(ctx context.Context, userID string) (domain.CartSnapshot, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.CartSnapshot{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	cart, err := r.carts.Get(ctx, uid)
	if err != nil {
		return domain.CartSnapshot{}, mapRepositoryError(err, nil)
	}
	if len(cart.Items) == 0 {
		return domain.CartSnapshot{}, ErrOrderEmptyCart
	}

	optionIDs := make([]string, 0, len(cart.Items))
	for _, item := range cart.Items {
		optionIDs = append(optionIDs, item.OptionID)
	}
	options, err := r.catalog.GetOptions(ctx, optionIDs)
	if err != nil {
		return domain.CartSnapshot{}, mapRepositoryError(err, nil)
	}

	products := make(map[string]domain.Product)
	var issues []SnapshotIssue
	lines := make([]domain.SnapshotLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		option, ok := options[item.OptionID]
		if !ok {
			issues = append(issues, SnapshotIssue{ItemID: item.ID, OptionID: item.OptionID, Code: IssueOptionNotFound})
			continue
		}
		if !option.IsActive {
			issues = append(issues, SnapshotIssue{ItemID: item.ID, OptionID: item.OptionID, Code: IssueOptionInactive})
			continue
		}

		product, ok := products[option.ProductID]
		if !ok {
			product, err = r.catalog.GetProduct(ctx, option.ProductID)
			if err != nil {
				return domain.CartSnapshot{}, mapRepositoryError(err, ErrOrderInvalidInput)
			}
			products[option.ProductID] = product
		}
		if !product.IsActive {
			issues = append(issues, SnapshotIssue{ItemID: item.ID, OptionID: item.OptionID, Code: IssueProductInactive})
			continue
		}

		if option.StockQuantity < item.Quantity {
			issues = append(issues, SnapshotIssue{
				ItemID:    item.ID,
				OptionID:  item.OptionID,
				Code:      IssueInsufficientStock,
				Requested: item.Quantity,
				Available: option.StockQuantity,
			})
			continue
		}

		lines = append(lines, domain.SnapshotLine{
			ProductID:   option.ProductID,
			OptionID:    option.ID,
			ProductName: product.Name,
			OptionName:  option.Name,
			ImageURL:    product.ImageURL,
			Quantity:    item.Quantity,
			UnitPrice:   option.Price,
			SalePrice:   option.SalePrice,
		})
	}

	if len(issues) > 0 {
		return domain.CartSnapshot{}, fmt.Errorf("%w: %w", ErrOrderInvalidInput, &SnapshotError{Issues: issues})
	}

	return domain.CartSnapshot{
		CartID:     cart.ID,
		UserID:     uid,
		Lines:      lines,
		TotalPrice: domain.SnapshotTotal(lines),
	}, nil
}
