package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/namratazipy/testappios/internal/adapter/memory"
	"github.com/namratazipy/testappios/internal/app"
	"github.com/namratazipy/testappios/internal/domain"
)

// lingeringRepo widens the gap between a lookup and the following save, the
// way a round trip to an out-of-process repository would.
type lingeringRepo struct {
	domain.CartRepository
}

func (r *lingeringRepo) LineForProduct(ctx context.Context, productID uuid.UUID) (*domain.CartLine, error) {
	line, err := r.CartRepository.LineForProduct(ctx, productID)
	time.Sleep(2 * time.Millisecond)
	return line, err
}

type mapFinder map[uuid.UUID]domain.Product

func (m mapFinder) ProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if p, ok := m[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func newCartFixture(prices ...string) (*app.CartService, []domain.Product) {
	finder := mapFinder{}
	var products []domain.Product
	for i, price := range prices {
		p := domain.Product{
			ID:    uuid.New(),
			Name:  string(rune('A' + i)),
			Price: decimal.RequireFromString(price),
		}
		finder[p.ID] = p
		products = append(products, p)
	}
	return app.NewCartService(memory.New(nil), finder), products
}

func TestAddAggregatesByProduct(t *testing.T) {
	cart, products := newCartFixture("10.00", "5.50")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cart.Add(ctx, products[0].ID); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if _, err := cart.Add(ctx, products[1].ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines, err := cart.Lines(ctx)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines for 2 distinct products, got %d", len(lines))
	}
	byProduct := map[uuid.UUID]int{}
	for _, l := range lines {
		byProduct[l.ProductID] = l.Quantity
	}
	if byProduct[products[0].ID] != 3 || byProduct[products[1].ID] != 1 {
		t.Fatalf("quantities wrong: %v", byProduct)
	}
}

func TestConcurrentAddsKeepOneLinePerProduct(t *testing.T) {
	product := domain.Product{ID: uuid.New(), Name: "A", Price: decimal.RequireFromString("10.00")}
	finder := mapFinder{product.ID: product}
	cart := app.NewCartService(&lingeringRepo{CartRepository: memory.New(nil)}, finder)
	ctx := context.Background()

	const adders = 8
	var wg sync.WaitGroup
	errs := make(chan error, adders)
	for i := 0; i < adders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cart.Add(ctx, product.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	lines, err := cart.Lines(ctx)
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one line for one distinct product, got %d", len(lines))
	}
	if lines[0].Quantity != adders {
		t.Fatalf("quantity = %d, want %d", lines[0].Quantity, adders)
	}
}

func TestAddUnknownProduct(t *testing.T) {
	cart, _ := newCartFixture()
	if _, err := cart.Add(context.Background(), uuid.New()); !errors.Is(err, app.ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
}

func TestSetQuantityZeroEqualsRemove(t *testing.T) {
	ctx := context.Background()

	run := func(removeVia func(cart *app.CartService, lineID uuid.UUID) error) []domain.CartLine {
		cart, products := newCartFixture("10.00")
		line, err := cart.Add(ctx, products[0].ID)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if err := removeVia(cart, line.ID); err != nil {
			t.Fatalf("remove: %v", err)
		}
		lines, err := cart.Lines(ctx)
		if err != nil {
			t.Fatalf("lines: %v", err)
		}
		return lines
	}

	viaSetQuantity := run(func(cart *app.CartService, id uuid.UUID) error {
		return cart.SetQuantity(ctx, id, 0)
	})
	viaRemove := run(func(cart *app.CartService, id uuid.UUID) error {
		return cart.Remove(ctx, id)
	})

	if len(viaSetQuantity) != 0 || len(viaRemove) != 0 {
		t.Fatalf("post-states differ: setQuantity left %d lines, remove left %d",
			len(viaSetQuantity), len(viaRemove))
	}
}

func TestSetQuantityUpdatesInPlace(t *testing.T) {
	cart, products := newCartFixture("10.00")
	ctx := context.Background()

	line, err := cart.Add(ctx, products[0].ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cart.SetQuantity(ctx, line.ID, 5); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	lines, _ := cart.Lines(ctx)
	if len(lines) != 1 || lines[0].Quantity != 5 || lines[0].ID != line.ID {
		t.Fatalf("expected same line with quantity 5, got %+v", lines)
	}
}

func TestSetQuantityUnknownLineNoop(t *testing.T) {
	cart, products := newCartFixture("10.00")
	ctx := context.Background()
	if _, err := cart.Add(ctx, products[0].ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := cart.SetQuantity(ctx, uuid.New(), 4); err != nil {
		t.Fatalf("set quantity on unknown line: %v", err)
	}
	if err := cart.Remove(ctx, uuid.New()); err != nil {
		t.Fatalf("remove unknown line: %v", err)
	}

	lines, _ := cart.Lines(ctx)
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("stale-id operations mutated the cart: %+v", lines)
	}
}

func TestTotalLinearAndAdditive(t *testing.T) {
	cart, products := newCartFixture("12.34", "5.00")
	ctx := context.Background()

	if _, err := cart.AddQuantity(ctx, products[0].ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	want := decimal.RequireFromString("37.02")
	total, err := cart.Total(ctx)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !total.Equal(want) {
		t.Fatalf("total = %s, want %s", total, want)
	}

	if _, err := cart.AddQuantity(ctx, products[1].ID, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	want = want.Add(decimal.RequireFromString("10.00"))
	total, _ = cart.Total(ctx)
	if !total.Equal(want) {
		t.Fatalf("total = %s, want %s", total, want)
	}
}

func TestEmptyCartTotalZero(t *testing.T) {
	cart, _ := newCartFixture()
	total, err := cart.Total(context.Background())
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !total.IsZero() {
		t.Fatalf("empty cart total = %s", total)
	}
}

func TestAddAddSetQuantityScenario(t *testing.T) {
	cart, products := newCartFixture("129.99")
	ctx := context.Background()

	line, err := cart.Add(ctx, products[0].ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := cart.Add(ctx, products[0].ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := cart.SetQuantity(ctx, line.ID, 1); err != nil {
		t.Fatalf("set quantity: %v", err)
	}

	lines, _ := cart.Lines(ctx)
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("expected one line with quantity 1, got %+v", lines)
	}
	total, _ := cart.Total(ctx)
	if !total.Equal(products[0].Price) {
		t.Fatalf("total = %s, want %s", total, products[0].Price)
	}
}

func TestClear(t *testing.T) {
	cart, products := newCartFixture("1.00", "2.00")
	ctx := context.Background()
	for _, p := range products {
		if _, err := cart.Add(ctx, p.ID); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := cart.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	lines, _ := cart.Lines(ctx)
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(lines))
	}
}

func TestCartNotifiesOnMutation(t *testing.T) {
	cart, products := newCartFixture("1.00")
	ctx := context.Background()

	fired := 0
	cart.Subscribe(func() { fired++ })

	line, _ := cart.Add(ctx, products[0].ID)
	_ = cart.SetQuantity(ctx, line.ID, 2)
	_ = cart.Remove(ctx, line.ID)

	if fired != 3 {
		t.Fatalf("expected 3 notifications, got %d", fired)
	}
}
