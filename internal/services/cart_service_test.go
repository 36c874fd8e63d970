package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mekongmart/api/internal/domain"
)

func newTestCartService(t *testing.T, carts *stubCartRepo, catalog *stubCatalogRepo) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Carts:       carts,
		Catalog:     catalog,
		Clock:       fixedClock(testNow),
		IDGenerator: sequentialIDs("itm_"),
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func TestAddItemValidatesAgainstCatalog(t *testing.T) {
	carts := testCart()
	svc := newTestCartService(t, carts, testCatalog())

	view, err := svc.AddItem(context.Background(), CartAddCommand{
		UserID:   "user-1",
		OptionID: "opt_tea_100",
		Quantity: 2,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("items = %d", len(view.Items))
	}
	line := view.Items[0]
	if line.ProductName != "Trà sen Tây Hồ" || line.OptionName != "Hộp 100g" {
		t.Fatalf("display fields = %q / %q", line.ProductName, line.OptionName)
	}
	if view.TotalPrice != 300_000 {
		t.Fatalf("total = %d", view.TotalPrice)
	}
	if !strings.Contains(view.TotalDisplay, "₫") {
		t.Fatalf("display total = %q", view.TotalDisplay)
	}
}

func TestAddItemRejectsUnknownAndInactiveOptions(t *testing.T) {
	catalog := testCatalog()
	retired := catalog.options["opt_cf_500"]
	retired.IsActive = false
	catalog.options["opt_cf_500"] = retired

	svc := newTestCartService(t, testCart(), catalog)

	if _, err := svc.AddItem(context.Background(), CartAddCommand{UserID: "user-1", OptionID: "opt_nope", Quantity: 1}); !errors.Is(err, ErrCartOptionNotFound) {
		t.Fatalf("unknown option err = %v", err)
	}
	if _, err := svc.AddItem(context.Background(), CartAddCommand{UserID: "user-1", OptionID: "opt_cf_500", Quantity: 1}); !errors.Is(err, ErrCartOptionUnavailable) {
		t.Fatalf("inactive option err = %v", err)
	}
	if _, err := svc.AddItem(context.Background(), CartAddCommand{UserID: "user-1", OptionID: "opt_tea_100", Quantity: 0}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("zero quantity err = %v", err)
	}
	if _, err := svc.AddItem(context.Background(), CartAddCommand{UserID: "user-1", OptionID: "opt_tea_100", ProductID: "prod_coffee", Quantity: 1}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("mismatched product err = %v", err)
	}
}

func TestAddItemMergesDuplicateOption(t *testing.T) {
	carts := testCart()
	svc := newTestCartService(t, carts, testCatalog())

	for i := 0; i < 2; i++ {
		if _, err := svc.AddItem(context.Background(), CartAddCommand{UserID: "user-1", OptionID: "opt_tea_100", Quantity: 2}); err != nil {
			t.Fatalf("AddItem #%d: %v", i+1, err)
		}
	}

	cart := carts.carts["user-1"]
	if len(cart.Items) != 1 {
		t.Fatalf("lines = %d, want merged single line", len(cart.Items))
	}
	if cart.Items[0].Quantity != 4 {
		t.Fatalf("quantity = %d, want 4", cart.Items[0].Quantity)
	}
}

func TestGetCartFlagsUnavailableLines(t *testing.T) {
	catalog := testCatalog()
	gone := catalog.options["opt_cf_500"]
	gone.IsActive = false
	catalog.options["opt_cf_500"] = gone

	carts := testCart(
		domain.CartItem{ID: "itm_a", OptionID: "opt_tea_100", Quantity: 2},
		domain.CartItem{ID: "itm_b", OptionID: "opt_cf_500", Quantity: 1},
	)
	svc := newTestCartService(t, carts, catalog)

	view, err := svc.GetCart(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("items = %d, unavailable lines must stay visible", len(view.Items))
	}
	byOption := map[string]CartLineView{}
	for _, line := range view.Items {
		byOption[line.OptionID] = line
	}
	if byOption["opt_cf_500"].Available {
		t.Fatal("inactive option must be flagged unavailable")
	}
	if !byOption["opt_tea_100"].Available || !byOption["opt_tea_100"].InStock {
		t.Fatal("healthy line wrongly flagged")
	}
	// Only purchasable lines count toward the total.
	if view.TotalPrice != 300_000 {
		t.Fatalf("total = %d, want 300000", view.TotalPrice)
	}
}

func TestUpdateItemQuantityBounds(t *testing.T) {
	carts := testCart(domain.CartItem{ID: "itm_a", OptionID: "opt_tea_100", Quantity: 1})
	svc := newTestCartService(t, carts, testCatalog())

	if _, err := svc.UpdateItemQuantity(context.Background(), CartUpdateCommand{UserID: "user-1", ItemID: "itm_a", Quantity: 100}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("over-limit err = %v", err)
	}
	if _, err := svc.UpdateItemQuantity(context.Background(), CartUpdateCommand{UserID: "user-1", ItemID: "itm_missing", Quantity: 2}); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("missing item err = %v", err)
	}
	view, err := svc.UpdateItemQuantity(context.Background(), CartUpdateCommand{UserID: "user-1", ItemID: "itm_a", Quantity: 5})
	if err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("quantity = %d", view.Items[0].Quantity)
	}
}

func TestRemoveAndClear(t *testing.T) {
	carts := testCart(
		domain.CartItem{ID: "itm_a", OptionID: "opt_tea_100", Quantity: 1},
		domain.CartItem{ID: "itm_b", OptionID: "opt_cf_500", Quantity: 1},
	)
	svc := newTestCartService(t, carts, testCatalog())

	view, err := svc.RemoveItem(context.Background(), "user-1", "itm_a")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].ItemID != "itm_b" {
		t.Fatalf("items after remove = %+v", view.Items)
	}

	if err := svc.ClearCart(context.Background(), "user-1"); err != nil {
		t.Fatalf("ClearCart: %v", err)
	}
	if got := len(carts.carts["user-1"].Items); got != 0 {
		t.Fatalf("items after clear = %d", got)
	}
}
