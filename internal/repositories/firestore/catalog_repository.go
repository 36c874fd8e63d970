package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/mekongmart/api/internal/domain"
	pfirestore "github.com/mekongmart/api/internal/platform/firestore"
	"github.com/mekongmart/api/internal/repositories"
)

const (
	productCollection = "products"
	optionCollection  = "options"

	// Firestore caps "in" filters at 30 values per query.
	optionBatchSize = 30
)

// CatalogRepository reads product and option documents.
type CatalogRepository struct {
	products *pfirestore.BaseRepository[productDocument]
	options  *pfirestore.BaseRepository[optionDocument]
	provider *pfirestore.Provider
}

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		products: pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil),
		options:  pfirestore.NewBaseRepository[optionDocument](provider, optionCollection, nil, nil),
		provider: provider,
	}, nil
}

// GetProduct loads a single product by ID.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return domain.Product{}, errors.New("catalog repository: product id is required")
	}

	doc, err := r.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// GetOption loads a single option by ID.
func (r *CatalogRepository) GetOption(ctx context.Context, optionID string) (domain.Option, error) {
	if r == nil || r.options == nil {
		return domain.Option{}, errors.New("catalog repository not initialised")
	}
	id := strings.TrimSpace(optionID)
	if id == "" {
		return domain.Option{}, errors.New("catalog repository: option id is required")
	}

	doc, err := r.options.Get(ctx, id)
	if err != nil {
		return domain.Option{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// GetOptions resolves multiple options in batched "in" queries. Options that
// do not exist are absent from the result rather than an error.
func (r *CatalogRepository) GetOptions(ctx context.Context, optionIDs []string) (map[string]domain.Option, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("catalog repository not initialised")
	}

	ids := make([]string, 0, len(optionIDs))
	seen := make(map[string]struct{}, len(optionIDs))
	for _, raw := range optionIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return map[string]domain.Option{}, nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.Option, len(ids))
	coll := client.Collection(optionCollection)
	for start := 0; start < len(ids); start += optionBatchSize {
		end := start + optionBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		iter := coll.Where(firestore.DocumentID, "in", docRefs(coll, ids[start:end])).Documents(ctx)
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				iter.Stop()
				return nil, pfirestore.WrapError("catalog.getOptions", err)
			}
			var doc optionDocument
			if err := snap.DataTo(&doc); err != nil {
				iter.Stop()
				return nil, pfirestore.WrapError("catalog.getOptions", err)
			}
			out[snap.Ref.ID] = doc.toDomain(snap.Ref.ID)
		}
		iter.Stop()
	}
	return out, nil
}

func docRefs(coll *firestore.CollectionRef, ids []string) []*firestore.DocumentRef {
	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, coll.Doc(id))
	}
	return refs
}

type productDocument struct {
	Name      string    `firestore:"name"`
	ImageURL  string    `firestore:"imageUrl,omitempty"`
	IsActive  bool      `firestore:"isActive"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      d.Name,
		ImageURL:  d.ImageURL,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type optionDocument struct {
	ProductID     string    `firestore:"productId"`
	Name          string    `firestore:"name"`
	Price         int64     `firestore:"price"`
	SalePrice     *int64    `firestore:"salePrice,omitempty"`
	StockQuantity int       `firestore:"stockQuantity"`
	IsActive      bool      `firestore:"isActive"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func (d optionDocument) toDomain(id string) domain.Option {
	return domain.Option{
		ID:            id,
		ProductID:     d.ProductID,
		Name:          d.Name,
		Price:         d.Price,
		SalePrice:     d.SalePrice,
		StockQuantity: d.StockQuantity,
		IsActive:      d.IsActive,
		UpdatedAt:     d.UpdatedAt,
	}
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)
