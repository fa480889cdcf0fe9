package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finboard/internal/core"
	"finboard/internal/log"
)

const SessionCookieName = "finboard_session"

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id placed by RequireUser or
// RequireUserPage.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an Authorization: Bearer header for API clients.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// SetSessionCookie hands the session token to the browser.
func SetSessionCookie(w http.ResponseWriter, s core.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireUser guards JSON routes. Unauthenticated callers get a 401 before
// the wrapped handler runs.
func (g *Gate) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := g.Authenticate(r.Context(), TokenFromRequest(r))
		switch {
		case errors.Is(err, ErrUnauthenticated):
			g.writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		case err != nil:
			g.logAuthFailure(r, err)
			g.writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// RequireUserPage guards HTML routes. Unauthenticated callers are sent to
// the login page with a next parameter pointing back.
func (g *Gate) RequireUserPage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := g.Authenticate(r.Context(), TokenFromRequest(r))
		switch {
		case errors.Is(err, ErrUnauthenticated):
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		case err != nil:
			g.logAuthFailure(r, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// LoginURL builds the login page address that returns to next afterwards.
func LoginURL(next string) string {
	if next == "" {
		return "/auth/login"
	}
	return "/auth/login?next=" + url.QueryEscape(next)
}

// SafeNext returns next when it is a local path, "/" otherwise, so the
// login redirect cannot be pointed at another site.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func (g *Gate) logAuthFailure(r *http.Request, err error) {
	g.logger.ErrorContext(r.Context(), "Session lookup failed", log.NewFields().
		WithErrorType(log.ErrorTypeDatabase).
		WithError(err).
		WithHTTPRequest(r.Method, r.URL.Path, "", r.UserAgent()).
		ToSlice()...)
}

// ErrorWriter answers a rejected JSON request with status and msg.
type ErrorWriter func(w http.ResponseWriter, status int, msg string)

// writeJSONError is the fallback envelope, {"error": msg}, the same shape
// internal/http.ErrorResponse writes.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
