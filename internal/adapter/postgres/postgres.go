// Package postgres implements the upstream catalog provider on PostgreSQL.
// The catalog is read-only from the application's point of view; the table
// only exists to give the paged-source boundary a real backend.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/namratazipy/testappios/internal/domain"
)

// DB wraps a *sql.DB and implements the catalog source port.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS products (id TEXT PRIMARY KEY, name TEXT NOT NULL, price NUMERIC(12,2) NOT NULL CHECK(price >= 0), category TEXT NOT NULL, description TEXT NOT NULL, image_url TEXT NOT NULL, rating DOUBLE PRECISION NOT NULL CHECK(rating >= 0 AND rating <= 5), review_count INTEGER NOT NULL CHECK(review_count >= 0), position SERIAL);",
		"CREATE INDEX IF NOT EXISTS idx_products_position ON products(position);",
	}
	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seed inserts the given products when the table is empty.
func (d *DB) Seed(ctx context.Context, products []domain.Product) error {
	var count int
	if err := d.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("seed: count products: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, p := range products {
		_, err := d.sql.ExecContext(ctx,
			"INSERT INTO products (id, name, price, category, description, image_url, rating, review_count) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
			p.ID.String(), p.Name, p.Price, p.Category, p.Description, p.ImageURL, p.Rating, p.ReviewCount,
		)
		if err != nil {
			return fmt.Errorf("seed: insert %s: %w", p.Name, err)
		}
	}
	return nil
}
