package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/namratazipy/testappios/internal/domain"
)

// DefaultPageSize is the fixed page size for catalog views and upstream
// fetches.
const DefaultPageSize = 10

const (
	// nearEndThreshold is how close to the end of the loaded sequence a
	// visible product must be before more products are fetched.
	nearEndThreshold = 5

	catalogFetchDelay   = 500 * time.Millisecond
	catalogFetchTimeout = 5 * time.Second
	catalogFetchRetries = 3
	catalogRetryBackoff = 100 * time.Millisecond
)

// CatalogService is the catalog store. It owns the canonical loaded product
// sequence, the view state (search text, category, sort option) and the
// paging against the upstream catalog provider. Derived views are recomputed
// on read.
type CatalogService struct {
	source   domain.CatalogSource
	delay    Delayer
	pageSize int

	mu       sync.Mutex
	products []domain.Product
	loaded   bool
	loading  bool
	hasMore  bool
	lastErr  error

	searchText string
	category   string
	sortOpt    domain.SortOption

	notifier notifier
}

// NewCatalogService creates a catalog store reading from the given upstream
// source.
func NewCatalogService(source domain.CatalogSource, delay Delayer) *CatalogService {
	return &CatalogService{
		source:   source,
		delay:    delay,
		pageSize: DefaultPageSize,
		hasMore:  true,
		sortOpt:  domain.SortFeatured,
	}
}

// Subscribe registers fn to run after every state change. The returned
// function removes the subscription.
func (s *CatalogService) Subscribe(fn func()) func() {
	return s.notifier.subscribe(fn)
}

// Load fetches the first batch of products after a simulated delay. It is
// idempotent: while a load is in flight or the catalog is already populated,
// the returned channel resolves immediately without refetching. The channel
// always receives exactly one value and is then closed.
func (s *CatalogService) Load(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	s.mu.Lock()
	if s.loaded || s.loading {
		s.mu.Unlock()
		done <- nil
		close(done)
		return done
	}
	s.loading = true
	s.mu.Unlock()
	s.notifier.notify()

	go func() {
		done <- s.fetchInto(ctx, 0)
		close(done)
	}()
	return done
}

// LoadMoreIfNearEnd appends one more upstream batch when the given product
// sits within the last few positions of the loaded (unfiltered) sequence,
// more pages exist upstream, and no load is in flight. Otherwise the returned
// channel resolves immediately.
func (s *CatalogService) LoadMoreIfNearEnd(ctx context.Context, productID uuid.UUID) <-chan error {
	done := make(chan error, 1)
	s.mu.Lock()
	if !s.loaded || s.loading || !s.hasMore {
		s.mu.Unlock()
		done <- nil
		close(done)
		return done
	}
	idx := -1
	for i := range s.products {
		if s.products[i].ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 || idx < len(s.products)-nearEndThreshold {
		s.mu.Unlock()
		done <- nil
		close(done)
		return done
	}
	s.loading = true
	offset := len(s.products)
	s.mu.Unlock()
	s.notifier.notify()

	go func() {
		done <- s.fetchInto(ctx, offset)
		close(done)
	}()
	return done
}

// fetchInto runs the simulated delay, fetches one batch at offset and folds
// the outcome back into store state. Failures become store state; they are
// never propagated past the returned error.
func (s *CatalogService) fetchInto(ctx context.Context, offset int) error {
	err := s.delay.Delay(ctx, catalogFetchDelay)
	var batch domain.CatalogBatch
	if err == nil {
		batch, err = s.fetchWithRetry(ctx, offset)
	}

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = err
	} else {
		s.lastErr = nil
		s.products = append(s.products, batch.Products...)
		s.hasMore = batch.HasMore
		if offset == 0 {
			s.loaded = true
		}
	}
	s.mu.Unlock()
	s.notifier.notify()
	return err
}

func (s *CatalogService) fetchWithRetry(ctx context.Context, offset int) (domain.CatalogBatch, error) {
	var last error
	backoff := catalogRetryBackoff
	for attempt := 0; attempt < catalogFetchRetries; attempt++ {
		if attempt > 0 {
			if err := s.delay.Delay(ctx, backoff); err != nil {
				return domain.CatalogBatch{}, err
			}
			backoff *= 2
		}
		fctx, cancel := context.WithTimeout(ctx, catalogFetchTimeout)
		batch, err := s.source.FetchPage(fctx, offset, s.pageSize)
		cancel()
		if err == nil {
			return batch, nil
		}
		last = err
	}
	return domain.CatalogBatch{}, fmt.Errorf("fetch catalog page at offset %d: %w", offset, last)
}

// SetSearchText updates the search filter. Empty text means no filtering.
func (s *CatalogService) SetSearchText(text string) {
	s.mu.Lock()
	s.searchText = text
	s.mu.Unlock()
	s.notifier.notify()
}

// SetCategory updates the category filter. Empty string clears it.
func (s *CatalogService) SetCategory(category string) {
	s.mu.Lock()
	s.category = category
	s.mu.Unlock()
	s.notifier.notify()
}

// SetSortOption updates the active sort option.
func (s *CatalogService) SetSortOption(opt domain.SortOption) {
	s.mu.Lock()
	s.sortOpt = opt
	s.mu.Unlock()
	s.notifier.notify()
}

// FilteredAndSorted returns the loaded products narrowed by the search text
// (case-insensitive substring on name) and the selected category, stably
// sorted by the active sort option.
func (s *CatalogService) FilteredAndSorted() []domain.Product {
	s.mu.Lock()
	needle := strings.ToLower(s.searchText)
	category := s.category
	opt := s.sortOpt
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	s.mu.Unlock()

	domain.SortProducts(out, opt)
	return out
}

// Page returns page n (1-based) of FilteredAndSorted, clipped to the
// available length. Pages past the end are empty.
func (s *CatalogService) Page(n int) []domain.Product {
	if n < 1 {
		return nil
	}
	fs := s.FilteredAndSorted()
	start := (n - 1) * s.pageSize
	if start >= len(fs) {
		return nil
	}
	end := start + s.pageSize
	if end > len(fs) {
		end = len(fs)
	}
	return fs[start:end]
}

// Categories returns the sorted distinct categories of the loaded products.
func (s *CatalogService) Categories() []string {
	s.mu.Lock()
	seen := make(map[string]bool)
	for _, p := range s.products {
		seen[p.Category] = true
	}
	s.mu.Unlock()

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ProductByID looks a product up in the loaded sequence. Returns nil if the
// product has not been loaded.
func (s *CatalogService) ProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if s.products[i].ID == id {
			p := s.products[i]
			return &p, nil
		}
	}
	return nil, nil
}

// Products returns a copy of the loaded canonical product sequence.
func (s *CatalogService) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Loading reports whether a fetch is in flight.
func (s *CatalogService) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// HasMore reports whether further products remain upstream.
func (s *CatalogService) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Err returns the error from the most recent upstream fetch, nil after a
// successful one.
func (s *CatalogService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// SearchText returns the current search filter.
func (s *CatalogService) SearchText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchText
}

// Category returns the current category filter, empty when none.
func (s *CatalogService) Category() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.category
}

// SortOption returns the active sort option.
func (s *CatalogService) SortOption() domain.SortOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortOpt
}

// PageSize returns the fixed page size.
func (s *CatalogService) PageSize() int { return s.pageSize }
