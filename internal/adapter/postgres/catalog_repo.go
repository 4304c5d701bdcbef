package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/namratazipy/testappios/internal/domain"
)

// Ensure the interface is met.
var _ domain.CatalogSource = (*DB)(nil)

// FetchPage returns up to limit products starting at offset in insertion
// order, plus whether more remain past the batch.
func (d *DB) FetchPage(ctx context.Context, offset, limit int) (domain.CatalogBatch, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, name, price, category, description, image_url, rating, review_count FROM products ORDER BY position LIMIT $1 OFFSET $2",
		limit+1, offset,
	)
	if err != nil {
		return domain.CatalogBatch{}, fmt.Errorf("fetch products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var id string
		if err := rows.Scan(&id, &p.Name, &p.Price, &p.Category, &p.Description, &p.ImageURL, &p.Rating, &p.ReviewCount); err != nil {
			return domain.CatalogBatch{}, fmt.Errorf("scan product: %w", err)
		}
		p.ID, err = uuid.Parse(id)
		if err != nil {
			return domain.CatalogBatch{}, fmt.Errorf("parse product id %q: %w", id, err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return domain.CatalogBatch{}, fmt.Errorf("fetch products: %w", err)
	}

	// One extra row was requested to learn whether more pages remain.
	hasMore := len(products) > limit
	if hasMore {
		products = products[:limit]
	}
	return domain.CatalogBatch{Products: products, HasMore: hasMore}, nil
}
