package domain

import (
	"context"
	"time"
)

// User represents a known account for the strict credential policy.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session represents an active browser session issued after login.
type Session struct {
	Token     string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user lookups.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, email, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session storage.
type SessionRepository interface {
	Create(ctx context.Context, email, token string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

// CredentialVerifier is the auth provider boundary: it makes the pass/fail
// decision for a submitted email and password. Implementations decide the
// policy; the auth gate only reacts to the outcome.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) error
}
