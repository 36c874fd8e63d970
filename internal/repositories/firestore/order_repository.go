package firestore

import (
	"context"
	"encoding/base64"
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
	orderCollection         = "orders"
	orderItemsCollection    = "items"
	orderPaymentsCollection = "payments"
)

// OrderRepository persists orders with their item and payment subcollections
// and runs every lifecycle mutation as a single Firestore transaction.
type OrderRepository struct {
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

// Place writes the order, its items and the initial payment, decrements the
// stock of every referenced option and drains the cart, all atomically.
// Stock is re-read inside the transaction; a line whose stock no longer
// covers its quantity fails the whole transaction with a *StockError
// reporting every shortage.
func (r *OrderRepository) Place(ctx context.Context, req repositories.PlaceOrderRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	order := req.Order
	if strings.TrimSpace(order.ID) == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	if strings.TrimSpace(order.UserID) == "" {
		return domain.Order{}, errors.New("order repository: user id is required")
	}
	if len(order.Items) == 0 {
		return domain.Order{}, errors.New("order repository: order has no items")
	}
	if strings.TrimSpace(req.Payment.ID) == "" {
		return domain.Order{}, errors.New("order repository: payment id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	now := req.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	orderRef := client.Collection(orderCollection).Doc(order.ID)
	optionColl := client.Collection(optionCollection)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Gather every read before the first write. Firestore rejects
		// transactions that read after writing.
		type optionState struct {
			ref   *firestore.DocumentRef
			doc   optionDocument
			need  int
			found bool
		}
		states := make(map[string]*optionState, len(order.Items))
		for _, item := range order.Items {
			state, ok := states[item.OptionID]
			if !ok {
				state = &optionState{ref: optionColl.Doc(item.OptionID)}
				states[item.OptionID] = state
			}
			state.need += item.Quantity
		}
		for optionID, state := range states {
			snap, err := tx.Get(state.ref)
			if err != nil {
				if pfirestore.IsNotFound(err) {
					continue
				}
				return err
			}
			if err := snap.DataTo(&state.doc); err != nil {
				return fmt.Errorf("decode option %s: %w", optionID, err)
			}
			state.found = true
		}

		var cartItemRefs []*firestore.DocumentRef
		cartRef := client.Collection(cartCollection).Doc(order.UserID)
		if req.DrainCart {
			snaps, err := tx.Documents(cartRef.Collection(cartItemsCollection)).GetAll()
			if err != nil {
				return err
			}
			for _, snap := range snaps {
				cartItemRefs = append(cartItemRefs, snap.Ref)
			}
		}

		var shortages []repositories.StockShortage
		for optionID, state := range states {
			switch {
			case !state.found, !state.doc.IsActive:
				shortages = append(shortages, repositories.StockShortage{
					OptionID:  optionID,
					ProductID: state.doc.ProductID,
					Requested: state.need,
					Available: 0,
				})
			case state.doc.StockQuantity < state.need:
				shortages = append(shortages, repositories.StockShortage{
					OptionID:  optionID,
					ProductID: state.doc.ProductID,
					Requested: state.need,
					Available: int64(state.doc.StockQuantity),
				})
			}
		}
		if len(shortages) > 0 {
			return &repositories.StockError{Code: repositories.CodeInsufficientStock, Shortages: shortages}
		}

		if err := tx.Create(orderRef, orderDocumentFrom(order, now)); err != nil {
			return err
		}
		for _, item := range order.Items {
			itemRef := orderRef.Collection(orderItemsCollection).Doc(item.ID)
			if err := tx.Set(itemRef, orderItemDocumentFrom(item)); err != nil {
				return err
			}
		}
		payRef := orderRef.Collection(orderPaymentsCollection).Doc(req.Payment.ID)
		if err := tx.Set(payRef, paymentDocumentFrom(req.Payment, now)); err != nil {
			return err
		}

		for optionID, state := range states {
			if err := tx.Update(state.ref, []firestore.Update{
				{Path: "stockQuantity", Value: state.doc.StockQuantity - state.need},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return fmt.Errorf("decrement option %s: %w", optionID, err)
			}
		}

		for _, ref := range cartItemRefs {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		if req.DrainCart && len(cartItemRefs) > 0 {
			if err := tx.Update(cartRef, []firestore.Update{{Path: "updatedAt", Value: now}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	placed := order
	placed.Status = domain.OrderStatusPending
	placed.CreatedAt = now
	placed.UpdatedAt = now
	placed.Payments = []domain.Payment{req.Payment}
	return placed, nil
}

// FindByID loads an order with its items and payments.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	ref := client.Collection(orderCollection).Doc(id)
	snap, err := ref.Get(ctx)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}
	order, err := decodeOrder(snap)
	if err != nil {
		return domain.Order{}, err
	}

	itemsIter := ref.Collection(orderItemsCollection).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer itemsIter.Stop()
	for {
		itemSnap, err := itemsIter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.items", err)
		}
		item, err := decodeOrderItem(itemSnap)
		if err != nil {
			return domain.Order{}, err
		}
		order.Items = append(order.Items, item)
	}

	payIter := ref.Collection(orderPaymentsCollection).OrderBy("updatedAt", firestore.Asc).Documents(ctx)
	defer payIter.Stop()
	for {
		paySnap, err := payIter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.Order{}, pfirestore.WrapError("orders.payments", err)
		}
		payment, err := decodePayment(paySnap, id)
		if err != nil {
			return domain.Order{}, err
		}
		order.Payments = append(order.Payments, payment)
	}
	return order, nil
}

// List returns order headers newest first. Items and payments are not
// hydrated; detail lookups go through FindByID.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Order]{}, errors.New("order repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}

	q := client.Collection(orderCollection).Query
	if uid := strings.TrimSpace(filter.UserID); uid != "" {
		q = q.Where("userId", "==", uid)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, 0, len(filter.Status))
		for _, s := range filter.Status {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status", "in", statuses)
	}
	if filter.From != nil {
		q = q.Where("createdAt", ">=", filter.From.UTC())
	}
	if filter.To != nil {
		q = q.Where("createdAt", "<", filter.To.UTC())
	}
	q = q.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)

	limit := filter.PageSize
	if limit < 0 {
		limit = 0
	}
	var fetchLimit int
	if limit > 0 {
		fetchLimit = limit + 1
		q = q.Limit(fetchLimit)
	}

	if token := strings.TrimSpace(filter.PageToken); token != "" {
		tokenTime, tokenID, err := decodeOrderToken(token)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("orders.list: invalid page token: %w", err)
		}
		q = q.StartAfter(tokenTime, tokenID)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var rows []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
		}
		order, err := decodeOrder(snap)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		rows = append(rows, order)
	}

	nextToken := ""
	if limit > 0 && len(rows) == fetchLimit {
		last := rows[len(rows)-1]
		nextToken = encodeOrderToken(last.CreatedAt, last.ID)
		rows = rows[:len(rows)-1]
	}

	return domain.CursorPage[domain.Order]{Items: rows, NextPageToken: nextToken}, nil
}

// UpdateStatus applies a forward lifecycle transition. The current status is
// re-read inside the transaction so concurrent mutations surface as
// lifecycle conflicts instead of lost updates.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, update repositories.StatusUpdate) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	now := update.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ref := client.Collection(orderCollection).Doc(id)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		order, err := decodeOrder(snap)
		if err != nil {
			return err
		}

		var openPayments []*firestore.DocumentRef
		if update.SettleOpenPayments {
			paySnaps, err := tx.Documents(ref.Collection(orderPaymentsCollection).
				Where("status", "==", string(domain.PaymentStatusUnpaid))).GetAll()
			if err != nil {
				return err
			}
			for _, paySnap := range paySnaps {
				openPayments = append(openPayments, paySnap.Ref)
			}
		}

		if update.From != "" && order.Status != update.From {
			return repositories.NewLifecycleError("orders.updateStatus", repositories.CodeInvalidTransition,
				"order %s is %s, expected %s", id, order.Status, update.From)
		}
		if !order.Status.CanTransitionTo(update.To) {
			return repositories.NewLifecycleError("orders.updateStatus", repositories.CodeInvalidTransition,
				"order %s cannot move from %s to %s", id, order.Status, update.To)
		}

		updates := []firestore.Update{
			{Path: "status", Value: string(update.To)},
			{Path: "updatedAt", Value: now},
		}
		if update.To == domain.OrderStatusDelivered {
			updates = append(updates, firestore.Update{Path: "deliveredAt", Value: now})
		}
		if err := tx.Update(ref, updates); err != nil {
			return err
		}
		for _, payRef := range openPayments {
			if err := tx.Update(payRef, []firestore.Update{
				{Path: "status", Value: string(domain.PaymentStatusPaid)},
				{Path: "transactionDate", Value: now},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, id)
}

// Cancel moves the order to CANCELLED, restores the stock of every line and
// fails open payments in one transaction. Only UNPAID payments are touched;
// a PAID payment keeps its status, refunds are a manual administrative step.
func (r *OrderRepository) Cancel(ctx context.Context, orderID string, req repositories.CancelRequest) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	now := req.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ref := client.Collection(orderCollection).Doc(id)
	optionColl := client.Collection(optionCollection)

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		order, err := decodeOrder(snap)
		if err != nil {
			return err
		}

		itemSnaps, err := tx.Documents(ref.Collection(orderItemsCollection)).GetAll()
		if err != nil {
			return err
		}
		paySnaps, err := tx.Documents(ref.Collection(orderPaymentsCollection)).GetAll()
		if err != nil {
			return err
		}

		// Stock restoration needs the current option levels; a deleted
		// option simply loses its returned stock.
		type restore struct {
			ref   *firestore.DocumentRef
			stock int
			qty   int
			found bool
		}
		restores := make(map[string]*restore, len(itemSnaps))
		for _, itemSnap := range itemSnaps {
			item, err := decodeOrderItem(itemSnap)
			if err != nil {
				return err
			}
			entry, ok := restores[item.OptionID]
			if !ok {
				entry = &restore{ref: optionColl.Doc(item.OptionID)}
				restores[item.OptionID] = entry
			}
			entry.qty += item.Quantity
		}
		for optionID, entry := range restores {
			optSnap, err := tx.Get(entry.ref)
			if err != nil {
				if pfirestore.IsNotFound(err) {
					continue
				}
				return err
			}
			var doc optionDocument
			if err := optSnap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode option %s: %w", optionID, err)
			}
			entry.stock = doc.StockQuantity
			entry.found = true
		}

		if order.Status == domain.OrderStatusCancelled {
			return repositories.NewLifecycleError("orders.cancel", repositories.CodeAlreadyCancelled,
				"order %s is already cancelled", id)
		}
		allowed := order.Status.Cancellable()
		if req.Operator {
			allowed = order.Status.CancellableByOperator()
		}
		if !allowed {
			return repositories.NewLifecycleError("orders.cancel", repositories.CodeInvalidTransition,
				"order %s cannot be cancelled from %s", id, order.Status)
		}

		if err := tx.Update(ref, []firestore.Update{
			{Path: "status", Value: string(domain.OrderStatusCancelled)},
			{Path: "cancelledAt", Value: now},
			{Path: "cancelReason", Value: strings.TrimSpace(req.Reason)},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}

		for _, entry := range restores {
			if !entry.found {
				continue
			}
			if err := tx.Update(entry.ref, []firestore.Update{
				{Path: "stockQuantity", Value: entry.stock + entry.qty},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}

		for _, paySnap := range paySnaps {
			payment, err := decodePayment(paySnap, id)
			if err != nil {
				return err
			}
			if payment.Status != domain.PaymentStatusUnpaid {
				continue
			}
			if err := tx.Update(paySnap.Ref, []firestore.Update{
				{Path: "status", Value: string(domain.PaymentStatusFailed)},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, id)
}

// SyncPayment applies a gateway settlement to the order's pending payment.
func (r *OrderRepository) SyncPayment(ctx context.Context, sync repositories.PaymentSync) (domain.Payment, error) {
	if r == nil || r.provider == nil {
		return domain.Payment{}, errors.New("order repository not initialised")
	}
	id := strings.TrimSpace(sync.OrderID)
	if id == "" {
		return domain.Payment{}, errors.New("order repository: order id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Payment{}, err
	}

	now := sync.Now.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}
	ref := client.Collection(orderCollection).Doc(id)

	var updated domain.Payment
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		order, err := decodeOrder(snap)
		if err != nil {
			return err
		}

		paySnaps, err := tx.Documents(ref.Collection(orderPaymentsCollection).
			Where("status", "==", string(domain.PaymentStatusUnpaid)).
			Where("method", "==", string(domain.PaymentMethodVNPay)).
			Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(paySnaps) == 0 {
			return repositories.NewLifecycleError("orders.syncPayment", repositories.CodePaymentNotPending,
				"order %s has no pending gateway payment", id)
		}
		payment, err := decodePayment(paySnaps[0], id)
		if err != nil {
			return err
		}
		if sync.Amount != order.TotalPrice {
			return repositories.NewLifecycleError("orders.syncPayment", repositories.CodePaymentAmountMismatch,
				"order %s expects %d, gateway reported %d", id, order.TotalPrice, sync.Amount)
		}

		next := domain.PaymentStatusPaid
		if !sync.Success {
			next = domain.PaymentStatusFailed
		}
		if err := tx.Update(paySnaps[0].Ref, []firestore.Update{
			{Path: "status", Value: string(next)},
			{Path: "gatewayRef", Value: strings.TrimSpace(sync.GatewayRef)},
			{Path: "transactionDate", Value: now},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}

		updated = payment
		updated.Status = next
		updated.GatewayRef = strings.TrimSpace(sync.GatewayRef)
		updated.TransactionDate = now
		updated.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return updated, nil
}

func encodeOrderToken(createdAt time.Time, docID string) string {
	payload := fmt.Sprintf("%s|%s", createdAt.UTC().Format(time.RFC3339Nano), docID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

func decodeOrderToken(token string) (time.Time, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(data), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, "", errors.New("invalid token format")
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	return ts, parts[1], nil
}

func decodeOrder(snap *firestore.DocumentSnapshot) (domain.Order, error) {
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Order{}, fmt.Errorf("order repository: decode order %s: %w", snap.Ref.ID, err)
	}
	status, ok := domain.ParseOrderStatus(doc.Status)
	if !ok {
		return domain.Order{}, fmt.Errorf("order repository: order %s has unknown status %q", snap.Ref.ID, doc.Status)
	}
	method, _ := domain.ParsePaymentMethod(doc.PaymentMethod)
	return domain.Order{
		ID:              snap.Ref.ID,
		UserID:          doc.UserID,
		Status:          status,
		TotalPrice:      doc.TotalPrice,
		ShippingAddress: doc.ShippingAddress,
		PaymentMethod:   method,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		DeliveredAt:     doc.DeliveredAt,
		CancelledAt:     doc.CancelledAt,
		CancelReason:    doc.CancelReason,
	}, nil
}

func decodeOrderItem(snap *firestore.DocumentSnapshot) (domain.OrderItem, error) {
	var doc orderItemDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.OrderItem{}, fmt.Errorf("order repository: decode item %s: %w", snap.Ref.ID, err)
	}
	return domain.OrderItem{
		ID:          snap.Ref.ID,
		ProductID:   doc.ProductID,
		OptionID:    doc.OptionID,
		ProductName: doc.ProductName,
		OptionName:  doc.OptionName,
		ImageURL:    doc.ImageURL,
		Quantity:    doc.Quantity,
		UnitPrice:   doc.UnitPrice,
		SalePrice:   doc.SalePrice,
		LineTotal:   doc.LineTotal,
	}, nil
}

func decodePayment(snap *firestore.DocumentSnapshot, orderID string) (domain.Payment, error) {
	var doc paymentDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Payment{}, fmt.Errorf("order repository: decode payment %s: %w", snap.Ref.ID, err)
	}
	method, _ := domain.ParsePaymentMethod(doc.Method)
	return domain.Payment{
		ID:              snap.Ref.ID,
		OrderID:         orderID,
		Amount:          doc.Amount,
		Method:          method,
		Status:          domain.PaymentStatus(doc.Status),
		TransactionDate: doc.TransactionDate,
		GatewayRef:      doc.GatewayRef,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}

func orderDocumentFrom(order domain.Order, now time.Time) orderDocument {
	return orderDocument{
		UserID:          order.UserID,
		Status:          string(domain.OrderStatusPending),
		TotalPrice:      order.TotalPrice,
		ShippingAddress: strings.TrimSpace(order.ShippingAddress),
		PaymentMethod:   string(order.PaymentMethod),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func orderItemDocumentFrom(item domain.OrderItem) orderItemDocument {
	return orderItemDocument{
		ProductID:   item.ProductID,
		OptionID:    item.OptionID,
		ProductName: item.ProductName,
		OptionName:  item.OptionName,
		ImageURL:    item.ImageURL,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		SalePrice:   item.SalePrice,
		LineTotal:   item.LineTotal,
	}
}

func paymentDocumentFrom(payment domain.Payment, now time.Time) paymentDocument {
	doc := paymentDocument{
		Amount:          payment.Amount,
		Method:          string(payment.Method),
		Status:          string(payment.Status),
		TransactionDate: payment.TransactionDate,
		GatewayRef:      payment.GatewayRef,
		UpdatedAt:       now,
	}
	if doc.Status == "" {
		doc.Status = string(domain.PaymentStatusUnpaid)
	}
	return doc
}

type orderDocument struct {
	UserID          string     `firestore:"userId"`
	Status          string     `firestore:"status"`
	TotalPrice      int64      `firestore:"totalPrice"`
	ShippingAddress string     `firestore:"shippingAddress"`
	PaymentMethod   string     `firestore:"paymentMethod"`
	CreatedAt       time.Time  `firestore:"createdAt"`
	UpdatedAt       time.Time  `firestore:"updatedAt"`
	DeliveredAt     *time.Time `firestore:"deliveredAt,omitempty"`
	CancelledAt     *time.Time `firestore:"cancelledAt,omitempty"`
	CancelReason    string     `firestore:"cancelReason,omitempty"`
}

type orderItemDocument struct {
	ProductID   string `firestore:"productId"`
	OptionID    string `firestore:"optionId"`
	ProductName string `firestore:"productName"`
	OptionName  string `firestore:"optionName"`
	ImageURL    string `firestore:"imageUrl,omitempty"`
	Quantity    int    `firestore:"quantity"`
	UnitPrice   int64  `firestore:"unitPrice"`
	SalePrice   *int64 `firestore:"salePrice,omitempty"`
	LineTotal   int64  `firestore:"lineTotal"`
}

type paymentDocument struct {
	Amount          int64     `firestore:"amount"`
	Method          string    `firestore:"method"`
	Status          string    `firestore:"status"`
	TransactionDate time.Time `firestore:"transactionDate,omitempty"`
	GatewayRef      string    `firestore:"gatewayRef,omitempty"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
