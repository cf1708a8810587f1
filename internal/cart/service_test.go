package cart

import (
	"context"
	"math"
	"testing"

	"shopmi-api/internal/domain"
	"shopmi-api/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// newTestService wires the service against a miniredis-backed repository.
func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := zap.NewNop()
	return NewService(repository.NewCartRepository(client, logger), logger), mr
}

func testItem(variantID string, price float64, quantity int) domain.CartItem {
	return domain.CartItem{
		Title:        "Xiaomi Smartphone",
		Price:        price,
		CurrencyCode: "BRL",
		Quantity:     quantity,
		VariantID:    variantID,
		ProductID:    "gid://shopify/Product/1",
		Handle:       "xiaomi-smartphone",
	}
}

func TestAddDeduplicatesByVariant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", testItem("v1", 100, 2)); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	cart, err := svc.Add(ctx, "s1", testItem("v1", 100, 3))
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	if len(cart.Items) != 1 {
		t.Fatalf("expected a single line, got %d", len(cart.Items))
	}
	if cart.Items[0].Quantity != 5 {
		t.Errorf("expected merged quantity 5, got %d", cart.Items[0].Quantity)
	}
}

func TestAddKeepsFirstAttributes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", testItem("v1", 100, 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	// A later add with a changed price must not overwrite the line.
	cart, err := svc.Add(ctx, "s1", testItem("v1", 149.90, 1))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if cart.Items[0].Price != 100 {
		t.Errorf("expected first-added price to win, got %f", cart.Items[0].Price)
	}
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	svc, _ := newTestService(t)

	cart, err := svc.Add(context.Background(), "s1", testItem("v1", 100, 0))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if cart.Items[0].Quantity != 1 {
		t.Errorf("expected quantity to default to 1, got %d", cart.Items[0].Quantity)
	}
}

func TestAddMarksCartOpen(t *testing.T) {
	svc, _ := newTestService(t)

	cart, err := svc.Add(context.Background(), "s1", testItem("v1", 100, 1))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !cart.Open {
		t.Error("expected the cart to be marked open after an add")
	}
}

func TestTotalsAreDerived(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cart, err := svc.Add(ctx, "s1", testItem("v1", 100, 2))
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if cart.TotalPrice != 200 || cart.TotalItems != 2 {
		t.Errorf("expected totals (200, 2), got (%f, %d)", cart.TotalPrice, cart.TotalItems)
	}

	cart, err = svc.UpdateQuantity(ctx, "s1", "v1", 5)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if cart.TotalPrice != 500 || cart.TotalItems != 5 {
		t.Errorf("expected totals (500, 5), got (%f, %d)", cart.TotalPrice, cart.TotalItems)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", testItem("v1", 100, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := svc.UpdateQuantity(ctx, "s1", "v1", 0)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("expected empty cart after quantity 0, got %d lines", len(cart.Items))
	}
}

func TestUpdateQuantityOfAbsentLine(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateQuantity(context.Background(), "s1", "missing", 3)
	if err != ErrItemNotFound {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestRemoveAbsentLineIsNoOp(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, "s1", testItem("v1", 100, 1)); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cart, err := svc.Remove(ctx, "s1", "missing")
	if err != nil {
		t.Fatalf("expected no error removing an absent line, got %v", err)
	}
	if len(cart.Items) != 1 {
		t.Errorf("expected the existing line to survive, got %d lines", len(cart.Items))
	}
}

func TestCartSurvivesServiceRestart(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	logger := zap.NewNop()
	repo := repository.NewCartRepository(client, logger)
	ctx := context.Background()

	first := NewService(repo, logger)
	if _, err := first.Add(ctx, "s1", testItem("v1", 100, 2)); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// A fresh service over the same store sees the persisted items.
	second := NewService(repo, logger)
	cart, err := second.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != 2 {
		t.Errorf("expected persisted cart with one line of 2, got %+v", cart.Items)
	}
}

func TestMalformedStoredCartIsDiscarded(t *testing.T) {
	svc, mr := newTestService(t)

	mr.Set("cart:s1", "{not json")

	cart, err := svc.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("expected malformed cart to be treated as empty, got %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(cart.Items))
	}
}

func TestStaleShippingSelectionIsIgnored(t *testing.T) {
	svc, _ := newTestService(t)
	option := domain.ShippingOption{ID: 1, Name: "PAC", Price: "21.90"}

	first := svc.BeginQuote("s1")
	second := svc.BeginQuote("s1")

	if svc.SelectShipping("s1", first, option) {
		t.Error("selection from a superseded quote must be rejected")
	}
	if !svc.SelectShipping("s1", second, option) {
		t.Error("selection from the latest quote must be applied")
	}

	cart, err := svc.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cart.SelectedShipping == nil || cart.SelectedShipping.ID != 1 {
		t.Errorf("expected the selected option on the cart, got %+v", cart.SelectedShipping)
	}
}

func TestNewQuoteClearsSelection(t *testing.T) {
	svc, _ := newTestService(t)
	option := domain.ShippingOption{ID: 2, Name: "SEDEX", Price: "35.50"}

	generation := svc.BeginQuote("s1")
	if !svc.SelectShipping("s1", generation, option) {
		t.Fatal("selection should apply")
	}

	svc.BeginQuote("s1")
	cart, err := svc.Get(context.Background(), "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cart.SelectedShipping != nil {
		t.Errorf("expected a new quote to clear the selection, got %+v", cart.SelectedShipping)
	}
}

func TestProperty_AddMergesQuantities(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding the same variant twice yields one line with the summed quantity", prop.ForAll(
		func(q1, q2 int) bool {
			svc, _ := newTestService(t)
			ctx := context.Background()

			if _, err := svc.Add(ctx, "s1", testItem("v1", 50, q1)); err != nil {
				return false
			}
			cart, err := svc.Add(ctx, "s1", testItem("v1", 50, q2))
			if err != nil {
				return false
			}
			return len(cart.Items) == 1 && cart.Items[0].Quantity == q1+q2
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_TotalsMatchLines(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("totals equal the sum over lines", prop.ForAll(
		func(quantities []int) bool {
			svc, _ := newTestService(t)
			ctx := context.Background()

			wantItems := 0
			wantPrice := 0.0
			var cart domain.Cart
			var err error
			for i, q := range quantities {
				if q < 1 {
					q = 1
				}
				price := float64(10 * (i + 1))
				cart, err = svc.Add(ctx, "s1", testItem(itemID(i), price, q))
				if err != nil {
					return false
				}
				wantItems += q
				wantPrice += price * float64(q)
			}
			if len(quantities) == 0 {
				cart, err = svc.Get(ctx, "s1")
				if err != nil {
					return false
				}
			}
			return cart.TotalItems == wantItems && math.Abs(cart.TotalPrice-wantPrice) < 1e-9
		},
		gen.SliceOfN(5, gen.IntRange(1, 20)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func itemID(i int) string {
	return "v" + string(rune('a'+i))
}
