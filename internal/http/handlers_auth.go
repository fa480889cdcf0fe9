package http

import (
	"errors"
	"net/http"
	"time"

	"finboard/internal/auth"
	"finboard/internal/core"
	"finboard/internal/log"
)

type loginPage struct {
	Next     string
	Username string
	Error    string
}

type sessionResponse struct {
	UserID    int64  `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func newSessionResponse(s core.Session) sessionResponse {
	return sessionResponse{
		UserID:    s.UserID,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", loginPage{
		Next: auth.SafeNext(r.URL.Query().Get("next")),
	})
}

// handleLogin accepts a form post from the login page or a JSON body from
// API clients. Browsers are redirected, API clients get the token back.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	asJSON := parser.IsJSON() || wantsJSON(r)
	username := parser.Get("username")
	next := auth.SafeNext(parser.Get("next"))

	session, err := s.gate.Login(r.Context(), username, parser.Get("password"))
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		if asJSON {
			UnauthorizedError("Invalid username or password").Write(w)
			return
		}
		s.render(w, r, http.StatusUnauthorized, "login.html", loginPage{
			Next:     next,
			Username: username,
			Error:    "Invalid username or password",
		})
		return
	case err != nil:
		s.logFailure(r, log.OpLogin, log.ErrorTypeDatabase, err)
		InternalServerError("Internal server error").Write(w)
		return
	}

	auth.SetSessionCookie(w, session, s.cookieSecure)
	if asJSON {
		NewJSONResponse().Body(newSessionResponse(session)).Write(w)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleRegister creates the account and signs the new user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	asJSON := parser.IsJSON() || wantsJSON(r)
	username, password := parser.Get("username"), parser.Get("password")
	next := auth.SafeNext(parser.Get("next"))

	user, err := s.gate.Register(r.Context(), username, password)
	if err != nil {
		status, msg := http.StatusInternalServerError, "Internal server error"
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			status, msg = http.StatusConflict, "Username already taken"
		case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrInvalidPassword):
			status, msg = http.StatusBadRequest, err.Error()
		default:
			s.logFailure(r, log.OpRegister, log.ErrorTypeDatabase, err)
		}
		if asJSON || status == http.StatusInternalServerError {
			ErrorResponse(status, msg).Write(w)
			return
		}
		s.render(w, r, status, "login.html", loginPage{Next: next, Username: username, Error: msg})
		return
	}

	session, err := s.gate.Login(r.Context(), user.Username, password)
	if err != nil {
		s.logFailure(r, log.OpLogin, log.ErrorTypeDatabase, err)
		InternalServerError("Internal server error").Write(w)
		return
	}

	auth.SetSessionCookie(w, session, s.cookieSecure)
	if asJSON {
		resp := newSessionResponse(session)
		resp.Username = user.Username
		NewJSONResponse().Status(http.StatusCreated).Body(resp).Write(w)
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleLogout ends the session and clears the cookie. A failed delete
// still clears the cookie; the session then expires on its own.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		s.logFailure(r, log.OpLogout, log.ErrorTypeDatabase, err)
	}
	auth.ClearSessionCookie(w, s.cookieSecure)

	if wantsJSON(r) {
		NewJSONResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}
