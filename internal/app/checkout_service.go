package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrEmptyCart indicates an order attempt against an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// CheckoutService builds order summaries over the cart. Placing an order is
// a stub: no payment runs and the cart is left untouched.
type CheckoutService struct {
	cart *CartService
}

// NewCheckoutService creates a checkout stub over the given cart store.
func NewCheckoutService(cart *CartService) *CheckoutService {
	return &CheckoutService{cart: cart}
}

// LineSummary is one cart line resolved against the catalog.
type LineSummary struct {
	LineID    uuid.UUID       `json:"lineId"`
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderSummary is the order preview shown before placing an order.
type OrderSummary struct {
	Lines []LineSummary   `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Summary resolves the cart into an order preview.
func (s *CheckoutService) Summary(ctx context.Context) (OrderSummary, error) {
	lines, err := s.cart.Lines(ctx)
	if err != nil {
		return OrderSummary{}, err
	}

	summary := OrderSummary{Lines: make([]LineSummary, 0, len(lines)), Total: decimal.Zero}
	for _, line := range lines {
		p, err := s.cart.products.ProductByID(ctx, line.ProductID)
		if err != nil {
			return OrderSummary{}, err
		}
		if p == nil {
			continue
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		summary.Lines = append(summary.Lines, LineSummary{
			LineID:    line.ID,
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  line.Quantity,
			LineTotal: lineTotal,
		})
		summary.Total = summary.Total.Add(lineTotal)
	}
	return summary, nil
}

// PaymentMethods returns the fixed payment options offered at checkout.
func (s *CheckoutService) PaymentMethods() []string {
	return []string{"Credit Card", "PayPal", "Apple Pay"}
}

// PlaceOrder validates that the cart is non-empty and returns a fresh order
// id. Nothing is charged and the cart is not cleared.
func (s *CheckoutService) PlaceOrder(ctx context.Context) (uuid.UUID, error) {
	lines, err := s.cart.Lines(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if len(lines) == 0 {
		return uuid.Nil, ErrEmptyCart
	}
	return uuid.New(), nil
}
