package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/mekongmart/api/internal/platform/firestore"
	"github.com/mekongmart/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the typed
// accessor contract handlers and services depend on.
type Registry struct {
	provider  *pfirestore.Provider
	catalog   *CatalogRepository
	carts     *CartRepository
	orders    *OrderRepository
	inventory *InventoryRepository
}

// NewRegistry constructs every repository over a shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}
	carts, err := NewCartRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	inventory, err := NewInventoryRepository(provider)
	if err != nil {
		return nil, err
	}
	return &Registry{
		provider:  provider,
		catalog:   catalog,
		carts:     carts,
		orders:    orders,
		inventory: inventory,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

func (r *Registry) Catalog() repositories.CatalogRepository     { return r.catalog }
func (r *Registry) Carts() repositories.CartRepository          { return r.carts }
func (r *Registry) Orders() repositories.OrderRepository        { return r.orders }
func (r *Registry) Inventory() repositories.InventoryRepository { return r.inventory }

var _ repositories.Registry = (*Registry)(nil)
