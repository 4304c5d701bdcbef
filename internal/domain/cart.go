package domain

import (
	"context"

	"github.com/google/uuid"
)

// CartLine is one (product, quantity) pairing in the in-progress order.
// A cart holds at most one line per product id; a line whose quantity drops
// to zero is removed, never stored.
type CartLine struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// CartRepository is the port for cart line storage.
type CartRepository interface {
	Lines(ctx context.Context) ([]CartLine, error)
	LineByID(ctx context.Context, id uuid.UUID) (*CartLine, error)
	LineForProduct(ctx context.Context, productID uuid.UUID) (*CartLine, error)
	Save(ctx context.Context, line CartLine) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) error
}
