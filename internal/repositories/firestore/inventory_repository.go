package firestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/mekongmart/api/internal/domain"
	pfirestore "github.com/mekongmart/api/internal/platform/firestore"
	"github.com/mekongmart/api/internal/repositories"
)

// InventoryRepository reports stock levels and applies manual restocks
// outside the order lifecycle transactions.
type InventoryRepository struct {
	provider *pfirestore.Provider
}

// NewInventoryRepository constructs a Firestore-backed inventory repository.
func NewInventoryRepository(provider *pfirestore.Provider) (*InventoryRepository, error) {
	if provider == nil {
		return nil, errors.New("inventory repository requires firestore provider")
	}
	return &InventoryRepository{provider: provider}, nil
}

// ListLowStock returns active options at or below the threshold, lowest
// stock first.
func (r *InventoryRepository) ListLowStock(ctx context.Context, query repositories.LowStockQuery) (domain.CursorPage[domain.Option], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Option]{}, errors.New("inventory repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Option]{}, err
	}

	threshold := query.Threshold
	if threshold < 0 {
		threshold = 0
	}

	q := client.Collection(optionCollection).Query.
		Where("isActive", "==", true).
		Where("stockQuantity", "<=", threshold).
		OrderBy("stockQuantity", firestore.Asc).
		OrderBy(firestore.DocumentID, firestore.Asc)

	limit := query.PageSize
	if limit < 0 {
		limit = 0
	}
	var fetchLimit int
	if limit > 0 {
		fetchLimit = limit + 1
		q = q.Limit(fetchLimit)
	}

	if token := strings.TrimSpace(query.PageToken); token != "" {
		stock, docID, err := decodeStockToken(token)
		if err != nil {
			return domain.CursorPage[domain.Option]{}, fmt.Errorf("inventory.lowStock: invalid page token: %w", err)
		}
		q = q.StartAfter(stock, docID)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var rows []domain.Option
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Option]{}, pfirestore.WrapError("inventory.lowStock", err)
		}
		var doc optionDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Option]{}, fmt.Errorf("inventory repository: decode option %s: %w", snap.Ref.ID, err)
		}
		rows = append(rows, doc.toDomain(snap.Ref.ID))
	}

	nextToken := ""
	if limit > 0 && len(rows) == fetchLimit {
		last := rows[len(rows)-1]
		nextToken = encodeStockToken(last.StockQuantity, last.ID)
		rows = rows[:len(rows)-1]
	}

	return domain.CursorPage[domain.Option]{Items: rows, NextPageToken: nextToken}, nil
}

// Restock increases an option's stock by delta and returns the new state.
// The current level is read inside the transaction so concurrent order
// placements never lose the adjustment.
func (r *InventoryRepository) Restock(ctx context.Context, optionID string, delta int, now time.Time) (domain.Option, error) {
	if r == nil || r.provider == nil {
		return domain.Option{}, errors.New("inventory repository not initialised")
	}
	id := strings.TrimSpace(optionID)
	if id == "" {
		return domain.Option{}, errors.New("inventory repository: option id is required")
	}
	if delta <= 0 {
		return domain.Option{}, errors.New("inventory repository: delta must be positive")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Option{}, err
	}

	ts := now.UTC()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	ref := client.Collection(optionCollection).Doc(id)

	var updated domain.Option
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc optionDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode option %s: %w", id, err)
		}

		if err := tx.Update(ref, []firestore.Update{
			{Path: "stockQuantity", Value: doc.StockQuantity + delta},
			{Path: "updatedAt", Value: ts},
		}); err != nil {
			return err
		}

		updated = doc.toDomain(id)
		updated.StockQuantity = doc.StockQuantity + delta
		updated.UpdatedAt = ts
		return nil
	})
	if err != nil {
		return domain.Option{}, err
	}
	return updated, nil
}

func encodeStockToken(stock int, docID string) string {
	payload := fmt.Sprintf("%d|%s", stock, docID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func decodeStockToken(token string) (int, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, "", err
	}
	parts := strings.SplitN(string(data), "|", 2)
	if len(parts) != 2 {
		return 0, "", errors.New("invalid token format")
	}
	stock, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", err
	}
	return stock, parts[1], nil
}

var _ repositories.InventoryRepository = (*InventoryRepository)(nil)
