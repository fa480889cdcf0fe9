// Package auth owns accounts and sessions and guards the routes that need an
// authenticated user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/storage"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxPasswordBytes  = 72 // bcrypt input limit
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUsername    = errors.New("username must be between 3 and 50 characters")
	ErrInvalidPassword    = errors.New("password must be between 8 and 72 bytes")
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	UserByUsername(ctx context.Context, username string) (core.User, error)
}

// SessionStore persists login sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s core.Session) error
	SessionByToken(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Store interface {
	UserStore
	SessionStore
}

// Gate registers users, issues sessions and resolves session tokens to user
// ids.
type Gate struct {
	store      Store
	ttl        time.Duration
	cost       int
	now        func() time.Time
	logger     *log.Logger
	writeError ErrorWriter
}

func NewGate(store Store, ttl time.Duration, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Discard()
	}
	return &Gate{
		store:      store,
		ttl:        ttl,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
		logger:     logger.WithComponent(log.ComponentAuth),
		writeError: writeJSONError,
	}
}

// WithErrorWriter returns a copy of the gate that answers rejected JSON
// requests through fn. The HTTP server passes its own error envelope here.
func (g *Gate) WithErrorWriter(fn ErrorWriter) *Gate {
	c := *g
	if fn == nil {
		fn = writeJSONError
	}
	c.writeError = fn
	return &c
}

// Register creates an account with a bcrypt-hashed password.
func (g *Gate) Register(ctx context.Context, username, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return core.User{}, ErrInvalidUsername
	}
	if utf8.RuneCountInString(password) < minPasswordLength || len(password) > maxPasswordBytes {
		return core.User{}, ErrInvalidPassword
	}

	hash, err := HashPassword(password, g.cost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := g.store.CreateUser(ctx, username, hash)
	if errors.Is(err, storage.ErrConflict) {
		return core.User{}, ErrUsernameTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	g.logger.InfoContext(ctx, "User registered", log.NewFields().
		WithOperation(log.OpRegister).
		WithUser(user.ID).
		ToSlice()...)

	return user, nil
}

// Login checks the credentials and opens a new session.
func (g *Gate) Login(ctx context.Context, username, password string) (core.Session, error) {
	user, err := g.store.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("load user: %w", err)
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		g.logger.WarnContext(ctx, "Login rejected", log.NewFields().
			WithOperation(log.OpLogin).
			WithUser(user.ID).
			WithErrorType(log.ErrorTypeAuth).
			ToSlice()...)
		return core.Session{}, ErrInvalidCredentials
	}

	now := g.now()
	if n, err := g.store.DeleteExpiredSessions(ctx, now); err != nil {
		g.logger.WarnContext(ctx, "Failed to purge expired sessions", "error", err)
	} else if n > 0 {
		g.logger.DebugContext(ctx, "Purged expired sessions", "count", n)
	}

	session := core.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(g.ttl).UTC().Truncate(time.Second),
	}
	if err := g.store.CreateSession(ctx, session); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}

	g.logger.InfoContext(ctx, "User logged in", log.NewFields().
		WithOperation(log.OpLogin).
		WithUser(user.ID).
		ToSlice()...)

	return session, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (g *Gate) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	g.logger.DebugContext(ctx, "Session closed", log.FieldOperation, log.OpLogout)
	return nil
}

// Authenticate resolves a session token to its user id. Missing, unknown
// and expired tokens yield ErrUnauthenticated; store failures are returned
// wrapped.
func (g *Gate) Authenticate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, ErrUnauthenticated
	}

	session, err := g.store.SessionByToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrUnauthenticated
	}
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(g.now()) {
		if err := g.store.DeleteSession(ctx, token); err != nil {
			g.logger.WarnContext(ctx, "Failed to delete expired session", "error", err)
		}
		return 0, ErrUnauthenticated
	}

	return session.UserID, nil
}
