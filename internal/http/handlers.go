package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"finboard/internal/auth"
	"finboard/internal/finance"
	"finboard/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports ready only when the database answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			s.logger.ErrorContext(ctx, "Readiness check failed", log.NewFields().
				WithErrorType(log.ErrorTypeDatabase).
				WithError(err).
				ToSlice()...)
			NewJSONResponse().
				Status(http.StatusServiceUnavailable).
				Body(map[string]string{"status": "unavailable", "database": "unreachable"}).
				Write(w)
			return
		}
	}

	NewJSONResponse().Body(map[string]string{"status": "ready", "database": "ok"}).Write(w)
}

// currentUser returns the id the auth gate put in the context. Zero means
// the route was registered without the gate; services reject it.
func currentUser(r *http.Request) int64 {
	userID, _ := auth.UserID(r.Context())
	return userID
}

// writeFinanceError maps summary and projection failures to responses.
// Data access failures were already logged by the service with their
// cause; anything else is unexpected and logged here.
func (s *Server) writeFinanceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case finance.IsDataAccess(err):
		InternalServerError("Failed to fetch financial data").Write(w)
	case errors.Is(err, finance.ErrInvalidPeriod):
		BadRequestError("start_date must not be after end_date").Write(w)
	default:
		s.logFailure(r, op, log.ErrorTypeInternal, err)
		InternalServerError("Internal server error").Write(w)
	}
}

func (s *Server) logFailure(r *http.Request, op, errorType string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.NewFields().
		WithOperation(op).
		WithUser(currentUser(r)).
		WithErrorType(errorType).
		WithError(err).
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		ToSlice()...)
}

// render executes a template into a buffer so a failed render can still
// answer with a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed", log.NewFields().
			WithOperation(log.OpRender).
			WithErrorType(log.ErrorTypeInternal).
			WithError(err).
			ToSlice()...)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
