package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/namratazipy/testappios/internal/app"
	"github.com/namratazipy/testappios/internal/domain"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	fetchFn func(ctx context.Context, offset, limit int) (domain.CatalogBatch, error)
}

func (f *fakeSource) FetchPage(ctx context.Context, offset, limit int) (domain.CatalogBatch, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fetchFn != nil {
		return f.fetchFn(ctx, offset, limit)
	}
	return domain.CatalogBatch{}, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// slicingSource serves pages out of a fixed product slice, the way the
// memory adapter does.
func slicingSource(products []domain.Product) *fakeSource {
	return &fakeSource{
		fetchFn: func(_ context.Context, offset, limit int) (domain.CatalogBatch, error) {
			if offset >= len(products) {
				return domain.CatalogBatch{}, nil
			}
			end := offset + limit
			if end > len(products) {
				end = len(products)
			}
			return domain.CatalogBatch{
				Products: products[offset:end],
				HasMore:  end < len(products),
			}, nil
		},
	}
}

func makeProducts(n int) []domain.Product {
	ps := make([]domain.Product, 0, n)
	for i := 0; i < n; i++ {
		ps = append(ps, domain.Product{
			ID:       uuid.New(),
			Name:     fmt.Sprintf("Product %02d", i),
			Price:    decimal.NewFromInt(int64(i + 1)),
			Category: "Test",
			Rating:   4.0,
		})
	}
	return ps
}

// loadAll loads the catalog and keeps reporting the last product visible
// until the upstream is exhausted.
func loadAll(t *testing.T, svc *app.CatalogService) {
	t.Helper()
	if err := <-svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	for svc.HasMore() {
		loaded := svc.Products()
		if len(loaded) == 0 {
			t.Fatal("no products loaded but upstream has more")
		}
		last := loaded[len(loaded)-1]
		if err := <-svc.LoadMoreIfNearEnd(context.Background(), last.ID); err != nil {
			t.Fatalf("load more: %v", err)
		}
	}
}

func TestLoadIdempotent(t *testing.T) {
	src := slicingSource(makeProducts(7))
	svc := app.NewCatalogService(src, app.NoDelay{})

	if err := <-svc.Load(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if err := <-svc.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}

	if got := src.callCount(); got != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", got)
	}
	if got := len(svc.Products()); got != 7 {
		t.Fatalf("expected 7 products, got %d", got)
	}
	if svc.Loading() {
		t.Fatal("loading flag still set after load")
	}
}

func TestLoadFirstBatchAndHasMore(t *testing.T) {
	src := slicingSource(makeProducts(17))
	svc := app.NewCatalogService(src, app.NoDelay{})

	if err := <-svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(svc.Products()); got != 10 {
		t.Fatalf("expected first batch of 10, got %d", got)
	}
	if !svc.HasMore() {
		t.Fatal("expected more products upstream")
	}
}

func TestLoadMoreIfNearEnd(t *testing.T) {
	products := makeProducts(17)
	src := slicingSource(products)
	svc := app.NewCatalogService(src, app.NoDelay{})
	if err := <-svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	// A product outside the last five positions must not trigger a fetch.
	if err := <-svc.LoadMoreIfNearEnd(context.Background(), products[2].ID); err != nil {
		t.Fatalf("load more: %v", err)
	}
	if got := len(svc.Products()); got != 10 {
		t.Fatalf("early product triggered a fetch, loaded %d", got)
	}

	// The sixth-from-last position is within the threshold.
	if err := <-svc.LoadMoreIfNearEnd(context.Background(), products[5].ID); err != nil {
		t.Fatalf("load more: %v", err)
	}
	if got := len(svc.Products()); got != 17 {
		t.Fatalf("expected 17 products after load more, got %d", got)
	}
	if svc.HasMore() {
		t.Fatal("upstream exhausted but has-more still set")
	}

	// Exhausted upstream: a further sighting fetches nothing.
	calls := src.callCount()
	if err := <-svc.LoadMoreIfNearEnd(context.Background(), products[16].ID); err != nil {
		t.Fatalf("load more: %v", err)
	}
	if src.callCount() != calls {
		t.Fatal("fetch ran although upstream was exhausted")
	}
}

func TestPaginationScenario(t *testing.T) {
	// 17 products and page size 10: 10, 7, then empty.
	svc := app.NewCatalogService(slicingSource(makeProducts(17)), app.NoDelay{})
	loadAll(t, svc)

	if got := len(svc.Page(1)); got != 10 {
		t.Fatalf("page 1: expected 10 items, got %d", got)
	}
	if got := len(svc.Page(2)); got != 7 {
		t.Fatalf("page 2: expected 7 items, got %d", got)
	}
	if got := len(svc.Page(3)); got != 0 {
		t.Fatalf("page 3: expected empty, got %d", got)
	}
	if got := len(svc.Page(0)); got != 0 {
		t.Fatalf("page 0: expected empty, got %d", got)
	}
}

func TestPagesConcatenateToFilteredAndSorted(t *testing.T) {
	svc := app.NewCatalogService(slicingSource(makeProducts(17)), app.NoDelay{})
	loadAll(t, svc)

	var concat []domain.Product
	for n := 1; n <= 2; n++ {
		concat = append(concat, svc.Page(n)...)
	}
	fs := svc.FilteredAndSorted()
	if len(concat) != len(fs) {
		t.Fatalf("concatenated pages have %d items, view has %d", len(concat), len(fs))
	}
	for i := range fs {
		if concat[i].ID != fs[i].ID {
			t.Fatalf("page concatenation diverges from view at %d", i)
		}
	}
}

func TestSearchFilterCaseInsensitive(t *testing.T) {
	products := []domain.Product{
		{ID: uuid.New(), Name: "Nike Air Max", Category: "Sports"},
		{ID: uuid.New(), Name: "Yoga Mat", Category: "Sports"},
		{ID: uuid.New(), Name: "MacBook Pro", Category: "Electronics"},
	}
	svc := app.NewCatalogService(slicingSource(products), app.NoDelay{})
	loadAll(t, svc)

	svc.SetSearchText("nIkE")
	fs := svc.FilteredAndSorted()
	if len(fs) != 1 || fs[0].Name != "Nike Air Max" {
		t.Fatalf("search filter wrong: %+v", fs)
	}

	svc.SetSearchText("")
	if got := len(svc.FilteredAndSorted()); got != 3 {
		t.Fatalf("empty search should not filter, got %d", got)
	}
}

func TestCategoryFilter(t *testing.T) {
	products := []domain.Product{
		{ID: uuid.New(), Name: "Nike Air Max", Category: "Sports"},
		{ID: uuid.New(), Name: "Yoga Mat", Category: "Sports"},
		{ID: uuid.New(), Name: "MacBook Pro", Category: "Electronics"},
	}
	svc := app.NewCatalogService(slicingSource(products), app.NoDelay{})
	loadAll(t, svc)

	svc.SetCategory("Electronics")
	fs := svc.FilteredAndSorted()
	if len(fs) != 1 || fs[0].Name != "MacBook Pro" {
		t.Fatalf("category filter wrong: %+v", fs)
	}

	svc.SetCategory("")
	if got := len(svc.FilteredAndSorted()); got != 3 {
		t.Fatalf("cleared category should not filter, got %d", got)
	}
}

func TestSortOptionOnView(t *testing.T) {
	products := []domain.Product{
		{ID: uuid.New(), Name: "a", Price: decimal.NewFromInt(30)},
		{ID: uuid.New(), Name: "b", Price: decimal.NewFromInt(10)},
		{ID: uuid.New(), Name: "c", Price: decimal.NewFromInt(20)},
	}
	svc := app.NewCatalogService(slicingSource(products), app.NoDelay{})
	loadAll(t, svc)

	svc.SetSortOption(domain.SortPriceAsc)
	fs := svc.FilteredAndSorted()
	if fs[0].Name != "b" || fs[1].Name != "c" || fs[2].Name != "a" {
		t.Fatalf("price-asc wrong: %s %s %s", fs[0].Name, fs[1].Name, fs[2].Name)
	}

	svc.SetSortOption(domain.SortPriceDesc)
	fs = svc.FilteredAndSorted()
	if fs[0].Name != "a" || fs[1].Name != "c" || fs[2].Name != "b" {
		t.Fatalf("price-desc wrong: %s %s %s", fs[0].Name, fs[1].Name, fs[2].Name)
	}
}

func TestCategories(t *testing.T) {
	products := []domain.Product{
		{ID: uuid.New(), Name: "a", Category: "Sports"},
		{ID: uuid.New(), Name: "b", Category: "Electronics"},
		{ID: uuid.New(), Name: "c", Category: "Sports"},
	}
	svc := app.NewCatalogService(slicingSource(products), app.NoDelay{})
	loadAll(t, svc)

	got := svc.Categories()
	if len(got) != 2 || got[0] != "Electronics" || got[1] != "Sports" {
		t.Fatalf("categories wrong: %v", got)
	}
}

func TestFetchFailureBecomesStoreState(t *testing.T) {
	src := &fakeSource{
		fetchFn: func(context.Context, int, int) (domain.CatalogBatch, error) {
			return domain.CatalogBatch{}, errors.New("upstream down")
		},
	}
	svc := app.NewCatalogService(src, app.NoDelay{})

	if err := <-svc.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if svc.Err() == nil {
		t.Fatal("fetch error not kept as store state")
	}
	if got := src.callCount(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if svc.Loading() {
		t.Fatal("loading flag still set after failure")
	}

	// A failed load does not count as populated; a retry may fetch again.
	src.fetchFn = func(_ context.Context, offset, limit int) (domain.CatalogBatch, error) {
		return domain.CatalogBatch{Products: makeProducts(3)}, nil
	}
	if err := <-svc.Load(context.Background()); err != nil {
		t.Fatalf("retrying load: %v", err)
	}
	if svc.Err() != nil {
		t.Fatalf("error state not cleared: %v", svc.Err())
	}
	if got := len(svc.Products()); got != 3 {
		t.Fatalf("expected 3 products after retry, got %d", got)
	}
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	svc := app.NewCatalogService(slicingSource(makeProducts(3)), app.NoDelay{})

	var mu sync.Mutex
	fired := 0
	unsubscribe := svc.Subscribe(func() {
		mu.Lock()
		fired++
		mu.Unlock()
	})

	svc.SetSearchText("x")
	mu.Lock()
	after := fired
	mu.Unlock()
	if after != 1 {
		t.Fatalf("expected 1 notification, got %d", after)
	}

	unsubscribe()
	svc.SetSearchText("y")
	mu.Lock()
	defer mu.Unlock()
	if fired != after {
		t.Fatalf("notified after unsubscribe: %d", fired)
	}
}
