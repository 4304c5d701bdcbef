// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is an immutable catalog item. Instances are created when the
// catalog loads and never mutated afterwards.
type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"imageUrl"`
	Rating      float64         `json:"rating"`
	ReviewCount int             `json:"reviewCount"`
}

// CatalogBatch is one page of products from an upstream catalog provider.
// HasMore reports whether further pages remain past this batch.
type CatalogBatch struct {
	Products []Product
	HasMore  bool
}

// CatalogSource is the port for the upstream catalog provider. FetchPage
// returns up to limit products starting at offset. Fetching at or past the
// end of the catalog yields an empty batch with HasMore false.
type CatalogSource interface {
	FetchPage(ctx context.Context, offset, limit int) (CatalogBatch, error)
}

// ProductFinder resolves product ids to products. Cart lines hold product
// references by id, not by copy, so price data always comes through here.
type ProductFinder interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
}
