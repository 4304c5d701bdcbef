package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/namratazipy/testappios/internal/domain"
)

var (
	// ErrLoginInFlight indicates that a login attempt is already pending.
	ErrLoginInFlight = errors.New("login already in flight")
	// ErrMissingCredentials indicates empty email or password fields.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidCredentials indicates that the provided email or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
)

// AuthState is the auth gate's position in its state machine.
type AuthState int

// Auth gate states.
const (
	LoggedOut AuthState = iota
	Authenticating
	LoggedIn
)

const (
	loginDelay     = time.Second
	sessionLength  = 24 * time.Hour
	tokenByteCount = 32
)

// AuthService is the auth gate: a state machine over the credential check
// plus the cookie session layer for the HTTP adapter. Only one
// authentication attempt may be in flight at a time; a concurrent Login is
// rejected rather than resolved independently.
type AuthService struct {
	verifier domain.CredentialVerifier
	sessions domain.SessionRepository
	delay    Delayer

	mu     sync.Mutex
	state  AuthState
	email  string
	errMsg string

	notifier notifier
}

// NewAuthService creates an auth gate using the given credential policy and
// session storage.
func NewAuthService(verifier domain.CredentialVerifier, sessions domain.SessionRepository, delay Delayer) *AuthService {
	return &AuthService{verifier: verifier, sessions: sessions, delay: delay}
}

// Subscribe registers fn to run after every state change. The returned
// function removes the subscription.
func (s *AuthService) Subscribe(fn func()) func() {
	return s.notifier.subscribe(fn)
}

// Login runs the credential check after a simulated delay. While a check is
// pending, further calls resolve immediately with ErrLoginInFlight; calls
// while logged in resolve with nil without re-authenticating. A failed check
// returns the gate to LoggedOut and records a user-visible error message.
func (s *AuthService) Login(ctx context.Context, email, password string) <-chan error {
	done := make(chan error, 1)
	s.mu.Lock()
	switch s.state {
	case Authenticating:
		s.mu.Unlock()
		done <- ErrLoginInFlight
		close(done)
		return done
	case LoggedIn:
		s.mu.Unlock()
		done <- nil
		close(done)
		return done
	}
	s.state = Authenticating
	s.errMsg = ""
	s.mu.Unlock()
	s.notifier.notify()

	go func() {
		err := s.delay.Delay(ctx, loginDelay)
		if err == nil {
			err = s.verifier.Verify(ctx, email, password)
		}

		s.mu.Lock()
		if err != nil {
			s.state = LoggedOut
			s.errMsg = err.Error()
		} else {
			s.state = LoggedIn
			s.email = email
			s.errMsg = ""
		}
		s.mu.Unlock()
		s.notifier.notify()

		done <- err
		close(done)
	}()
	return done
}

// Logout synchronously resets the gate to LoggedOut and clears the
// credential state.
func (s *AuthService) Logout() {
	s.mu.Lock()
	s.state = LoggedOut
	s.email = ""
	s.errMsg = ""
	s.mu.Unlock()
	s.notifier.notify()
}

// CompleteExternalLogin transitions the gate straight to LoggedIn for an
// identity verified outside the gate, such as an SSO callback.
func (s *AuthService) CompleteExternalLogin(email string) error {
	s.mu.Lock()
	if s.state == Authenticating {
		s.mu.Unlock()
		return ErrLoginInFlight
	}
	s.state = LoggedIn
	s.email = email
	s.errMsg = ""
	s.mu.Unlock()
	s.notifier.notify()
	return nil
}

// State returns the gate's current state.
func (s *AuthService) State() AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether the gate is in LoggedIn.
func (s *AuthService) Authenticated() bool {
	return s.State() == LoggedIn
}

// Email returns the email of the logged-in identity, empty otherwise.
func (s *AuthService) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// ErrorMessage returns the pending user-visible error message, empty when
// the last attempt succeeded or none was made.
func (s *AuthService) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// IssueSession creates a session token for the logged-in identity.
func (s *AuthService) IssueSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state != LoggedIn {
		s.mu.Unlock()
		return "", ErrInvalidCredentials
	}
	email := s.email
	s.mu.Unlock()

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Create(ctx, email, token, time.Now().Add(sessionLength)); err != nil {
		return "", err
	}
	return token, nil
}

// ValidateSession checks a session token and returns its session.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.Session, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// DeleteSession invalidates a session token.
func (s *AuthService) DeleteSession(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func generateToken() (string, error) {
	b := make([]byte, tokenByteCount)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// NonEmptyVerifier accepts any credentials with non-empty email and
// password. This is the demo policy the app ships with; the strict
// alternative lives in PasswordVerifier and the two are never merged.
type NonEmptyVerifier struct{}

// Verify succeeds iff both fields are non-empty.
func (NonEmptyVerifier) Verify(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// PasswordVerifier checks credentials against stored bcrypt hashes.
type PasswordVerifier struct {
	users domain.UserRepository
}

// NewPasswordVerifier creates a strict verifier over the given user store.
func NewPasswordVerifier(users domain.UserRepository) *PasswordVerifier {
	return &PasswordVerifier{users: users}
}

// Verify succeeds iff the email belongs to a known user and the password
// matches that user's hash.
func (v *PasswordVerifier) Verify(ctx context.Context, email, password string) error {
	user, err := v.users.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// SeedUser creates the initial user if the store is empty.
func (v *PasswordVerifier) SeedUser(ctx context.Context, email, password string) error {
	count, err := v.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return errors.New("users already exist")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = v.users.Create(ctx, email, string(hash))
	return err
}
