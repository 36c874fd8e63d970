package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/mekongmart/api/internal/domain"
	pfirestore "github.com/mekongmart/api/internal/platform/firestore"
	"github.com/mekongmart/api/internal/repositories"
)

const (
	cartCollection      = "carts"
	cartItemsCollection = "items"
)

// CartRepository persists the single cart of each user, keyed by UID, with
// line items in a subcollection.
type CartRepository struct {
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{provider: provider}, nil
}

// Get loads the cart header and every item for the given user. A user who
// never added an item gets an empty cart, not a not-found error.
func (r *CartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	client, uid, err := r.client(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{ID: uid, UserID: uid, Items: []domain.CartItem{}}

	snap, err := client.Collection(cartCollection).Doc(uid).Get(ctx)
	switch {
	case err == nil:
		var header cartDocument
		if err := snap.DataTo(&header); err != nil {
			return domain.Cart{}, fmt.Errorf("cart repository: decode header %s: %w", uid, err)
		}
		cart.CreatedAt = header.CreatedAt
		cart.UpdatedAt = header.UpdatedAt
	case pfirestore.IsNotFound(err):
		return cart, nil
	default:
		return domain.Cart{}, pfirestore.WrapError("carts.get", err)
	}

	iter := client.Collection(cartCollection).Doc(uid).Collection(cartItemsCollection).
		OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()
	for {
		itemSnap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.Cart{}, pfirestore.WrapError("carts.items", err)
		}
		item, err := decodeCartItem(itemSnap)
		if err != nil {
			return domain.Cart{}, err
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

// UpsertItem adds a line to the cart. When the option is already in the
// cart the quantities are merged onto the existing line.
func (r *CartRepository) UpsertItem(ctx context.Context, userID string, item domain.CartItem) (domain.Cart, error) {
	client, uid, err := r.client(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	optionID := strings.TrimSpace(item.OptionID)
	if optionID == "" {
		return domain.Cart{}, errors.New("cart repository: option id is required")
	}
	if item.Quantity <= 0 {
		return domain.Cart{}, errors.New("cart repository: quantity must be positive")
	}

	now := item.UpdatedAt.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	cartRef := client.Collection(cartCollection).Doc(uid)
	itemsColl := cartRef.Collection(cartItemsCollection)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// All reads happen before any write.
		existing := itemsColl.Where("optionId", "==", optionID).Limit(1)
		snaps, err := tx.Documents(existing).GetAll()
		if err != nil {
			return err
		}
		headerExists := true
		if _, err := tx.Get(cartRef); err != nil {
			if !pfirestore.IsNotFound(err) {
				return err
			}
			headerExists = false
		}

		if len(snaps) > 0 {
			var doc cartItemDocument
			if err := snaps[0].DataTo(&doc); err != nil {
				return fmt.Errorf("decode cart item %s: %w", snaps[0].Ref.ID, err)
			}
			if err := tx.Update(snaps[0].Ref, []firestore.Update{
				{Path: "quantity", Value: doc.Quantity + item.Quantity},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
			return tx.Update(cartRef, []firestore.Update{{Path: "updatedAt", Value: now}})
		}

		doc := cartItemDocument{
			ProductID: strings.TrimSpace(item.ProductID),
			OptionID:  optionID,
			Quantity:  item.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Set(itemsColl.Doc(item.ID), doc); err != nil {
			return err
		}
		if headerExists {
			return tx.Update(cartRef, []firestore.Update{{Path: "updatedAt", Value: now}})
		}
		return tx.Set(cartRef, cartDocument{CreatedAt: now, UpdatedAt: now})
	})
	if err != nil {
		return domain.Cart{}, pfirestore.WrapError("carts.upsertItem", err)
	}
	return r.Get(ctx, uid)
}

// SetItemQuantity overwrites the quantity of a single line.
func (r *CartRepository) SetItemQuantity(ctx context.Context, userID, itemID string, quantity int, now time.Time) (domain.Cart, error) {
	client, uid, err := r.client(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.Cart{}, errors.New("cart repository: item id is required")
	}
	if quantity <= 0 {
		return domain.Cart{}, errors.New("cart repository: quantity must be positive")
	}

	cartRef := client.Collection(cartCollection).Doc(uid)
	itemRef := cartRef.Collection(cartItemsCollection).Doc(id)
	ts := now.UTC()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(itemRef); err != nil {
			return err
		}
		if err := tx.Update(itemRef, []firestore.Update{
			{Path: "quantity", Value: quantity},
			{Path: "updatedAt", Value: ts},
		}); err != nil {
			return err
		}
		return tx.Update(cartRef, []firestore.Update{{Path: "updatedAt", Value: ts}})
	})
	if err != nil {
		return domain.Cart{}, pfirestore.WrapError("carts.setQuantity", err)
	}
	return r.Get(ctx, uid)
}

// RemoveItem deletes a single line. A line that is already gone is not an
// error.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID string) error {
	client, uid, err := r.client(ctx, userID)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(itemID)
	if id == "" {
		return errors.New("cart repository: item id is required")
	}
	ref := client.Collection(cartCollection).Doc(uid).Collection(cartItemsCollection).Doc(id)
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("carts.removeItem", err)
	}
	return nil
}

// Clear deletes every line in the cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	client, uid, err := r.client(ctx, userID)
	if err != nil {
		return err
	}
	coll := client.Collection(cartCollection).Doc(uid).Collection(cartItemsCollection)
	iter := coll.Documents(ctx)
	defer iter.Stop()
	bulk := client.BulkWriter(ctx)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return pfirestore.WrapError("carts.clear", err)
		}
		if _, err := bulk.Delete(snap.Ref); err != nil {
			return pfirestore.WrapError("carts.clear", err)
		}
	}
	bulk.End()
	return nil
}

func (r *CartRepository) client(ctx context.Context, userID string) (*firestore.Client, string, error) {
	if r == nil || r.provider == nil {
		return nil, "", errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, "", errors.New("cart repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, "", err
	}
	return client, uid, nil
}

func decodeCartItem(snap *firestore.DocumentSnapshot) (domain.CartItem, error) {
	var doc cartItemDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.CartItem{}, fmt.Errorf("cart repository: decode item %s: %w", snap.Ref.ID, err)
	}
	return domain.CartItem{
		ID:        snap.Ref.ID,
		ProductID: doc.ProductID,
		OptionID:  doc.OptionID,
		Quantity:  doc.Quantity,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

type cartDocument struct {
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

type cartItemDocument struct {
	ProductID string    `firestore:"productId"`
	OptionID  string    `firestore:"optionId"`
	Quantity  int       `firestore:"quantity"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

var _ repositories.CartRepository = (*CartRepository)(nil)
