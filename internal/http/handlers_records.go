package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/services"
)

type recordResponse struct {
	ID               int64       `json:"id"`
	Amount           json.Number `json:"amount"`
	Source           string      `json:"source,omitempty"`
	Category         string      `json:"category,omitempty"`
	Description      string      `json:"description"`
	Date             string      `json:"date"`
	IsRecurring      bool        `json:"is_recurring"`
	RecurrencePeriod string      `json:"recurrence_period,omitempty"`
}

func newIncomeResponse(in core.Income) recordResponse {
	return recordResponse{
		ID:               in.ID,
		Amount:           moneyNumber(in.Amount),
		Source:           in.Source,
		Category:         in.Category,
		Description:      in.Description,
		Date:             in.Date.String(),
		IsRecurring:      in.Recurrence.Recurring,
		RecurrencePeriod: string(in.Recurrence.Period),
	}
}

func newExpenseResponse(e core.Expense) recordResponse {
	return recordResponse{
		ID:               e.ID,
		Amount:           moneyNumber(e.Amount),
		Category:         e.Category,
		Description:      e.Description,
		Date:             e.Date.String(),
		IsRecurring:      e.Recurrence.Recurring,
		RecurrencePeriod: string(e.Recurrence.Period),
	}
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	in, err := ParseIncome(parser)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	created, err := s.records.CreateIncome(r.Context(), currentUser(r), in)
	if err != nil {
		s.writeRecordError(w, r, log.OpCreate, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Body(newIncomeResponse(created)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	e, err := ParseExpense(parser)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	created, err := s.records.CreateExpense(r.Context(), currentUser(r), e)
	if err != nil {
		s.writeRecordError(w, r, log.OpCreate, err)
		return
	}

	NewJSONResponse().Status(http.StatusCreated).Body(newExpenseResponse(created)).Write(w)
}

// parseListFilter answers 400 itself when the query is malformed.
func parseListFilter(w http.ResponseWriter, r *http.Request) (core.RecordFilter, bool) {
	f, err := ParseRecordFilter(r.URL.Query())
	switch {
	case errors.Is(err, errRecurringFilter):
		BadRequestError(err.Error()).Write(w)
		return core.RecordFilter{}, false
	case err != nil:
		BadRequestError("Invalid date format. Use YYYY-MM-DD").Write(w)
		return core.RecordFilter{}, false
	}
	return f, true
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}

	list, err := s.records.ListIncome(r.Context(), currentUser(r), filter)
	if err != nil {
		s.writeRecordError(w, r, log.OpList, err)
		return
	}

	out := make([]recordResponse, 0, len(list))
	for _, in := range list {
		out = append(out, newIncomeResponse(in))
	}
	NewJSONResponse().Body(map[string][]recordResponse{"income": out}).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseListFilter(w, r)
	if !ok {
		return
	}

	list, err := s.records.ListExpenses(r.Context(), currentUser(r), filter)
	if err != nil {
		s.writeRecordError(w, r, log.OpList, err)
		return
	}

	out := make([]recordResponse, 0, len(list))
	for _, e := range list {
		out = append(out, newExpenseResponse(e))
	}
	NewJSONResponse().Body(map[string][]recordResponse{"expenses": out}).Write(w)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError("Invalid record id").Write(w)
		return
	}

	in, err := s.records.GetIncome(r.Context(), currentUser(r), id)
	if err != nil {
		s.writeRecordError(w, r, log.OpGet, err)
		return
	}

	NewJSONResponse().Body(newIncomeResponse(in)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError("Invalid record id").Write(w)
		return
	}

	e, err := s.records.GetExpense(r.Context(), currentUser(r), id)
	if err != nil {
		s.writeRecordError(w, r, log.OpGet, err)
		return
	}

	NewJSONResponse().Body(newExpenseResponse(e)).Write(w)
}

// parseUpdate reads the record id and the patch body, answering 400 itself
// when either is malformed.
func parseUpdate(w http.ResponseWriter, r *http.Request, withSource bool) (int64, services.RecordPatch, bool) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError("Invalid record id").Write(w)
		return 0, services.RecordPatch{}, false
	}

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return 0, services.RecordPatch{}, false
	}
	patch, err := ParseRecordPatch(parser, withSource)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return 0, services.RecordPatch{}, false
	}
	return id, patch, true
}

// handleUpdateIncome serves both PUT and PATCH; either way only the fields
// present in the body change.
func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, patch, ok := parseUpdate(w, r, true)
	if !ok {
		return
	}

	updated, err := s.records.UpdateIncome(r.Context(), currentUser(r), id, patch)
	if err != nil {
		s.writeRecordError(w, r, log.OpUpdate, err)
		return
	}

	NewJSONResponse().Body(newIncomeResponse(updated)).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, patch, ok := parseUpdate(w, r, false)
	if !ok {
		return
	}

	updated, err := s.records.UpdateExpense(r.Context(), currentUser(r), id, patch)
	if err != nil {
		s.writeRecordError(w, r, log.OpUpdate, err)
		return
	}

	NewJSONResponse().Body(newExpenseResponse(updated)).Write(w)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	s.deleteRecord(w, r, s.records.DeleteIncome)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.deleteRecord(w, r, s.records.DeleteExpense)
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, userID, id int64) error) {
	id, err := parseRecordID(r)
	if err != nil {
		BadRequestError("Invalid record id").Write(w)
		return
	}

	if err := del(r.Context(), currentUser(r), id); err != nil {
		s.writeRecordError(w, r, log.OpDelete, err)
		return
	}

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// writeRecordError maps record service failures to responses. Anything
// that is neither a validation nor a lookup failure came from the store.
func (s *Server) writeRecordError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		BadRequestError(validation.Error()).Write(w)
	case errors.Is(err, services.ErrNotFound):
		NotFoundError("Record not found").Write(w)
	default:
		s.logFailure(r, op, log.ErrorTypeDatabase, err)
		InternalServerError("Internal server error").Write(w)
	}
}
