package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/storage"
)

type memStore struct {
	mu       sync.Mutex
	users    map[string]core.User
	sessions map[string]core.Session
	nextID   int64
	failWith error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]core.User{}, sessions: map[string]core.Session{}}
}

func (m *memStore) CreateUser(_ context.Context, username, hash string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[username]; ok {
		return core.User{}, storage.ErrConflict
	}
	m.nextID++
	u := core.User{ID: m.nextID, Username: username, PasswordHash: hash}
	m.users[username] = u
	return u, nil
}

func (m *memStore) UserByUsername(_ context.Context, username string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (m *memStore) CreateSession(_ context.Context, s core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.Token] = s
	return nil
}

func (m *memStore) SessionByToken(_ context.Context, token string) (core.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return core.Session{}, m.failWith
	}
	s, ok := m.sessions[token]
	if !ok {
		return core.Session{}, storage.ErrNotFound
	}
	return s, nil
}

func (m *memStore) DeleteSession(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for token, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

func newTestGate(t *testing.T) (*Gate, *memStore) {
	t.Helper()
	store := newMemStore()
	g := NewGate(store, time.Hour, log.Discard())
	g.cost = bcrypt.MinCost
	return g, store
}

func TestGate_Register(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "alice", password: "correct-horse"},
		{name: "username too short", username: "al", password: "correct-horse", wantErr: ErrInvalidUsername},
		{name: "username blank after trim", username: "   ", password: "correct-horse", wantErr: ErrInvalidUsername},
		{name: "password too short", username: "bob", password: "short", wantErr: ErrInvalidPassword},
		{name: "password too long", username: "bob", password: string(make([]byte, 73)), wantErr: ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, store := newTestGate(t)
			user, err := g.Register(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Positive(t, user.ID)
			assert.NotEqual(t, tt.password, store.users[tt.username].PasswordHash)
		})
	}

	t.Run("duplicate username", func(t *testing.T) {
		g, _ := newTestGate(t)
		_, err := g.Register(ctx, "alice", "correct-horse")
		require.NoError(t, err)
		_, err = g.Register(ctx, "alice", "another-password")
		assert.ErrorIs(t, err, ErrUsernameTaken)
	})
}

func TestGate_LoginAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	g, store := newTestGate(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	user, err := g.Register(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	_, err = g.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = g.Login(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := g.Login(ctx, " alice ", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, user.ID, session.UserID)
	assert.True(t, now.Add(time.Hour).Equal(session.ExpiresAt))

	userID, err := g.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	_, err = g.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = g.Authenticate(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	now = now.Add(time.Hour)
	_, err = g.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.NotContains(t, store.sessions, session.Token)
}

func TestGate_Logout(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGate(t)

	_, err := g.Register(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	session, err := g.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, g.Logout(ctx, session.Token))
	require.NoError(t, g.Logout(ctx, ""))

	_, err = g.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGate_AuthenticateStoreFailure(t *testing.T) {
	g, store := newTestGate(t)
	store.failWith = errors.New("database is locked")

	_, err := g.Authenticate(context.Background(), "token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestRequireUser(t *testing.T) {
	ctx := context.Background()
	g, store := newTestGate(t)
	_, err := g.Register(ctx, "alice", "correct-horse")
	require.NoError(t, err)
	session, err := g.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	var gotUserID int64
	called := false
	handler := g.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotUserID, _ = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("no token", func(t *testing.T) {
		called = false
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/finance/summary", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"error":"Authentication required"}`, rr.Body.String())
		assert.False(t, called)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/finance/summary", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.Token})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, session.UserID, gotUserID)
	})

	t.Run("bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/finance/summary", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		called = false
		store.failWith = errors.New("connection refused")
		defer func() { store.failWith = nil }()

		req := httptest.NewRequest(http.MethodGet, "/api/finance/summary", nil)
		req.Header.Set("Authorization", "Bearer "+session.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
		assert.False(t, called)
	})
}

func TestRequireUser_CustomErrorWriter(t *testing.T) {
	g, _ := newTestGate(t)

	var gotStatus int
	var gotMsg string
	custom := g.WithErrorWriter(func(w http.ResponseWriter, status int, msg string) {
		gotStatus, gotMsg = status, msg
		w.WriteHeader(status)
	})

	rr := httptest.NewRecorder()
	custom.RequireUser(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/income", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, http.StatusUnauthorized, gotStatus)
	assert.Equal(t, "Authentication required", gotMsg)
	assert.Empty(t, rr.Body.String())

	// The original gate keeps its default writer.
	rr = httptest.NewRecorder()
	g.RequireUser(http.NotFoundHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/income", nil))
	assert.JSONEq(t, `{"error":"Authentication required"}`, rr.Body.String())
}

func TestRequireUserPage(t *testing.T) {
	g, _ := newTestGate(t)
	called := false
	handler := g.RequireUserPage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/graphs/visuals?tab=1", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/auth/login?next=%2Fgraphs%2Fvisuals%3Ftab%3D1", rr.Header().Get("Location"))
	assert.False(t, called)
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/graphs/visuals":      "/graphs/visuals",
		"//evil.example":       "/",
		"https://evil.example": "/",
		"/\\evil.example":      "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeNext(in), "SafeNext(%q)", in)
	}
}

func TestSessionCookies(t *testing.T) {
	rr := httptest.NewRecorder()
	SetSessionCookie(rr, core.Session{Token: "abc", ExpiresAt: time.Now().Add(time.Hour)}, true)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	rr = httptest.NewRecorder()
	ClearSessionCookie(rr, false)
	cookies = rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
