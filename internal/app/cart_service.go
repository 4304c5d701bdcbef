package app

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/namratazipy/testappios/internal/domain"
)

// ErrUnknownProduct indicates an add for a product id the catalog does not
// know.
var ErrUnknownProduct = errors.New("unknown product")

// CartService is the cart store. It owns the cart lines and computes the
// running total; product data is resolved by id through the finder rather
// than copied into lines, so price changes would propagate.
//
// Quantities are applied as given: clamping non-positive requested
// quantities is the presentation boundary's job, not the store's.
//
// mu serializes the lookup-mutate-save sequences against the repository so a
// mutation never interleaves with another; the repository's own locking
// covers single calls only.
type CartService struct {
	repo     domain.CartRepository
	products domain.ProductFinder

	mu sync.Mutex

	notifier notifier
}

// NewCartService creates a cart store backed by the given repository and
// product finder.
func NewCartService(repo domain.CartRepository, products domain.ProductFinder) *CartService {
	return &CartService{repo: repo, products: products}
}

// Subscribe registers fn to run after every cart mutation. The returned
// function removes the subscription.
func (s *CartService) Subscribe(fn func()) func() {
	return s.notifier.subscribe(fn)
}

// Add puts one unit of the product in the cart, incrementing the existing
// line if there is one.
func (s *CartService) Add(ctx context.Context, productID uuid.UUID) (domain.CartLine, error) {
	return s.AddQuantity(ctx, productID, 1)
}

// AddQuantity puts qty units of the product in the cart, incrementing the
// existing line if there is one. qty is expected to be positive.
func (s *CartService) AddQuantity(ctx context.Context, productID uuid.UUID, qty int) (domain.CartLine, error) {
	p, err := s.products.ProductByID(ctx, productID)
	if err != nil {
		return domain.CartLine{}, err
	}
	if p == nil {
		return domain.CartLine{}, ErrUnknownProduct
	}

	s.mu.Lock()
	line, err := s.repo.LineForProduct(ctx, productID)
	if err != nil {
		s.mu.Unlock()
		return domain.CartLine{}, err
	}
	if line == nil {
		line = &domain.CartLine{ID: uuid.New(), ProductID: productID, Quantity: qty}
	} else {
		line.Quantity += qty
	}
	if err := s.repo.Save(ctx, *line); err != nil {
		s.mu.Unlock()
		return domain.CartLine{}, err
	}
	s.mu.Unlock()
	s.notifier.notify()
	return *line, nil
}

// SetQuantity updates a line in place when qty is positive and removes the
// line when qty drops to zero or below. This and Remove are the only removal
// paths. Unknown line ids are a no-op.
func (s *CartService) SetQuantity(ctx context.Context, lineID uuid.UUID, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, lineID)
	}
	s.mu.Lock()
	line, err := s.repo.LineByID(ctx, lineID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if line == nil {
		s.mu.Unlock()
		return nil
	}
	line.Quantity = qty
	if err := s.repo.Save(ctx, *line); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.notifier.notify()
	return nil
}

// Remove deletes the line if present; removing an absent id is a no-op.
func (s *CartService) Remove(ctx context.Context, lineID uuid.UUID) error {
	s.mu.Lock()
	if err := s.repo.Delete(ctx, lineID); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.notifier.notify()
	return nil
}

// Clear empties the cart.
func (s *CartService) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.repo.DeleteAll(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()
	s.notifier.notify()
	return nil
}

// Lines returns the current cart lines.
func (s *CartService) Lines(ctx context.Context) ([]domain.CartLine, error) {
	return s.repo.Lines(ctx)
}

// Total sums price times quantity over all lines, computed fresh on every call.
// Line counts stay small enough that no caching is warranted.
func (s *CartService) Total(ctx context.Context) (decimal.Decimal, error) {
	lines, err := s.repo.Lines(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, line := range lines {
		p, err := s.products.ProductByID(ctx, line.ProductID)
		if err != nil {
			return decimal.Zero, err
		}
		if p == nil {
			continue
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}
