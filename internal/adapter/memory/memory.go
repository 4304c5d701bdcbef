// Package memory implements in-memory adapters for development and testing.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/namratazipy/testappios/internal/domain"
)

// DB implements the in-memory storage: the simulated upstream catalog, cart
// lines, users and sessions.
type DB struct {
	mu       sync.Mutex
	catalog  []domain.Product
	lines    []domain.CartLine
	users    []*domain.User
	sessions map[string]*domain.Session

	userIDCounter int64
}

// New creates an in-memory database whose upstream catalog holds the given
// products.
func New(catalog []domain.Product) *DB {
	return &DB{
		catalog:  catalog,
		sessions: make(map[string]*domain.Session),
	}
}

// NewSeeded creates an in-memory database with the demo catalog.
func NewSeeded() *DB {
	return New(SeedProducts())
}

// Ensure interfaces are met.
var _ domain.CatalogSource = (*DB)(nil)
var _ domain.CartRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- CatalogSource ---

// FetchPage returns up to limit products starting at offset, plus whether
// more remain past the batch.
func (db *DB) FetchPage(ctx context.Context, offset, limit int) (domain.CatalogBatch, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	if offset >= len(db.catalog) {
		return domain.CatalogBatch{HasMore: false}, nil
	}
	end := offset + limit
	if end > len(db.catalog) {
		end = len(db.catalog)
	}

	batch := make([]domain.Product, end-offset)
	copy(batch, db.catalog[offset:end])
	return domain.CatalogBatch{Products: batch, HasMore: end < len(db.catalog)}, nil
}

// --- CartRepository ---

// Lines returns a copy of all cart lines.
func (db *DB) Lines(ctx context.Context) ([]domain.CartLine, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.CartLine, len(db.lines))
	copy(out, db.lines)
	return out, nil
}

// LineByID returns the line with the given id, nil when absent.
func (db *DB) LineByID(ctx context.Context, id uuid.UUID) (*domain.CartLine, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.lines {
		if db.lines[i].ID == id {
			line := db.lines[i]
			return &line, nil
		}
	}
	return nil, nil
}

// LineForProduct returns the line referencing the given product, nil when
// absent.
func (db *DB) LineForProduct(ctx context.Context, productID uuid.UUID) (*domain.CartLine, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.lines {
		if db.lines[i].ProductID == productID {
			line := db.lines[i]
			return &line, nil
		}
	}
	return nil, nil
}

// Save inserts the line or updates it in place when its id already exists.
func (db *DB) Save(ctx context.Context, line domain.CartLine) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.lines {
		if db.lines[i].ID == line.ID {
			db.lines[i] = line
			return nil
		}
	}
	db.lines = append(db.lines, line)
	return nil
}

// Delete removes the line with the given id. Absent ids are a no-op.
func (db *DB) Delete(ctx context.Context, id uuid.UUID) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.lines {
		if db.lines[i].ID == id {
			db.lines = append(db.lines[:i], db.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteAll removes every cart line.
func (db *DB) DeleteAll(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.lines = nil
	return nil
}

// --- UserRepository ---

// GetByEmail retrieves a user by email, nil when absent.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session storage.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps the DB as a SessionRepository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, email, token string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		Email:     email,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token, nil when absent or expired.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		if time.Now().After(s.ExpiresAt) {
			delete(r.db.sessions, token)
			return nil, nil
		}
		return s, nil
	}
	return nil, nil
}

// Delete removes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired removes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}

func seedProduct(name, price, category, description, image string, rating float64, reviews int) domain.Product {
	return domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Description: description,
		ImageURL:    image,
		Rating:      rating,
		ReviewCount: reviews,
	}
}

// SeedProducts returns the demo catalog. Ids are random per process, so the
// "newest" sort over them is intentionally not chronological.
func SeedProducts() []domain.Product {
	return []domain.Product{
		seedProduct("Nike Air Max", "129.99", "Sports", "Comfortable running shoes for professional athletes", "nike", 4.5, 45),
		seedProduct("Yoga Mat Premium", "29.99", "Sports", "Premium yoga mat with extra cushioning", "yoga", 4.3, 78),
		seedProduct("Training Gloves", "24.99", "Sports", "Professional training gloves", "gloves", 4.4, 56),
		seedProduct("Running Shoes Pro", "89.99", "Sports", "Professional running shoes with advanced cushioning", "shoes", 4.6, 145),
		seedProduct("Dumbbell Set", "149.99", "Sports", "Adjustable dumbbell set for home gym", "dumbbell", 4.7, 89),
		seedProduct("Basketball", "29.99", "Sports", "Professional indoor/outdoor basketball", "basketball", 4.5, 67),
		seedProduct("Tennis Racket", "79.99", "Sports", "Professional tennis racket", "tennis", 4.6, 34),
		seedProduct("Gym Bag", "39.99", "Sports", "Spacious gym bag with compartments", "gym_bag", 4.4, 91),
		seedProduct("iPhone 13 Pro", "999.99", "Electronics", "Latest iPhone with Pro camera system", "iphone", 4.8, 128),
		seedProduct("MacBook Pro", "1299.99", "Electronics", "Powerful laptop for professionals", "macbook", 4.9, 256),
		seedProduct("AirPods Pro", "249.99", "Electronics", "Wireless earbuds with noise cancellation", "airpods", 4.7, 89),
		seedProduct("Coffee Maker", "79.99", "Home", "Automatic coffee maker", "coffee", 4.6, 156),
		seedProduct("Smart TV", "799.99", "Home", "4K Smart TV", "tv", 4.8, 234),
		seedProduct("Blender", "59.99", "Home", "High-speed blender", "blender", 4.4, 78),
		seedProduct("Leather Wallet", "49.99", "Accessories", "Genuine leather wallet", "wallet", 4.4, 34),
		seedProduct("Sunglasses", "159.99", "Accessories", "Designer sunglasses", "sunglasses", 4.2, 92),
		seedProduct("Backpack", "69.99", "Accessories", "Water-resistant backpack", "backpack", 4.5, 112),
	}
}
