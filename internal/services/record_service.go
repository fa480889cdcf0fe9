package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/storage"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrEmptyUpdate = errors.New("no valid fields to update")
)

// ValidationError wraps a record that failed domain validation. Its message
// is meant for the client.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// RecordStore is the write side of the data store.
type RecordStore interface {
	CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	ListIncome(ctx context.Context, userID int64, f core.RecordFilter) ([]core.Income, error)
	ListExpenses(ctx context.Context, userID int64, f core.RecordFilter) ([]core.Expense, error)
	IncomeByID(ctx context.Context, userID, id int64) (core.Income, error)
	ExpenseByID(ctx context.Context, userID, id int64) (core.Expense, error)
	UpdateIncome(ctx context.Context, in core.Income) (core.Income, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeactivateIncome(ctx context.Context, userID, id int64) error
	DeactivateExpense(ctx context.Context, userID, id int64) error
}

// RecordPatch holds the fields of a partial update. Nil fields keep their
// stored value. Source is ignored for expenses.
type RecordPatch struct {
	Amount      *core.Money
	Date        *core.Date
	Source      *string
	Category    *string
	Description *string
	Recurrence  *core.Recurrence
}

func (p RecordPatch) empty() bool {
	return p.Amount == nil && p.Date == nil && p.Source == nil &&
		p.Category == nil && p.Description == nil && p.Recurrence == nil
}

// applyCommon copies the fields income and expenses share.
func (p RecordPatch) applyCommon(amount *core.Money, date *core.Date, category, description *string, rec *core.Recurrence) {
	if p.Amount != nil {
		*amount = *p.Amount
	}
	if p.Date != nil {
		*date = *p.Date
	}
	if p.Category != nil {
		*category = *p.Category
	}
	if p.Description != nil {
		*description = *p.Description
	}
	if p.Recurrence != nil {
		*rec = *p.Recurrence
	}
}

func normalizeIncome(in *core.Income) {
	in.Source = strings.TrimSpace(in.Source)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	if !in.Recurrence.Recurring {
		in.Recurrence.Period = ""
	}
}

func normalizeExpense(e *core.Expense) {
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
	if !e.Recurrence.Recurring {
		e.Recurrence.Period = ""
	}
}

// Publisher announces record changes to other processes.
type Publisher interface {
	PublishRecordEvent(ctx context.Context, event *amqp.RecordEvent) error
}

// RecordService orchestrates record operations across the database and AMQP
type RecordService struct {
	store     RecordStore
	publisher Publisher
	logger    *log.Logger
}

// NewRecordService wires the service. A nil publisher disables events.
func NewRecordService(store RecordStore, publisher Publisher, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentRecords),
	}
}

// CreateIncome validates and saves an income record for the user, then
// publishes a created event
func (s *RecordService) CreateIncome(ctx context.Context, userID int64, in core.Income) (core.Income, error) {
	in.UserID = userID
	normalizeIncome(&in)
	if err := in.Validate(); err != nil {
		return core.Income{}, &ValidationError{Err: err}
	}

	saved, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}

	s.logger.InfoContext(ctx, "Income created", log.NewFields().
		WithOperation(log.OpCreate).
		WithUser(userID).
		WithRecord(amqp.KindIncome, saved.ID, saved.Source, saved.Amount.String()).
		ToSlice()...)

	s.publish(ctx, amqp.EventRecordCreated, amqp.KindIncome, userID, saved.ID)
	return saved, nil
}

// CreateExpense validates and saves an expense for the user, then publishes
// a created event
func (s *RecordService) CreateExpense(ctx context.Context, userID int64, e core.Expense) (core.Expense, error) {
	e.UserID = userID
	normalizeExpense(&e)
	if err := e.Validate(); err != nil {
		return core.Expense{}, &ValidationError{Err: err}
	}

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created", log.NewFields().
		WithOperation(log.OpCreate).
		WithUser(userID).
		WithRecord(amqp.KindExpense, saved.ID, saved.Category, saved.Amount.String()).
		ToSlice()...)

	s.publish(ctx, amqp.EventRecordCreated, amqp.KindExpense, userID, saved.ID)
	return saved, nil
}

func (s *RecordService) ListIncome(ctx context.Context, userID int64, f core.RecordFilter) ([]core.Income, error) {
	list, err := s.store.ListIncome(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return list, nil
}

func (s *RecordService) ListExpenses(ctx context.Context, userID int64, f core.RecordFilter) ([]core.Expense, error) {
	list, err := s.store.ListExpenses(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

// GetIncome returns one of the user's active income records.
func (s *RecordService) GetIncome(ctx context.Context, userID, id int64) (core.Income, error) {
	in, err := s.store.IncomeByID(ctx, userID, id)
	if err != nil {
		return core.Income{}, notFoundOr(err, "get income")
	}
	return in, nil
}

// GetExpense returns one of the user's active expenses.
func (s *RecordService) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	e, err := s.store.ExpenseByID(ctx, userID, id)
	if err != nil {
		return core.Expense{}, notFoundOr(err, "get expense")
	}
	return e, nil
}

// UpdateIncome applies the patch to an income record owned by the user and
// validates the result with the same rules as CreateIncome.
func (s *RecordService) UpdateIncome(ctx context.Context, userID, id int64, patch RecordPatch) (core.Income, error) {
	if patch.empty() {
		return core.Income{}, &ValidationError{Err: ErrEmptyUpdate}
	}
	in, err := s.GetIncome(ctx, userID, id)
	if err != nil {
		return core.Income{}, err
	}

	if patch.Source != nil {
		in.Source = *patch.Source
	}
	patch.applyCommon(&in.Amount, &in.Date, &in.Category, &in.Description, &in.Recurrence)
	normalizeIncome(&in)
	if err := in.Validate(); err != nil {
		return core.Income{}, &ValidationError{Err: err}
	}

	saved, err := s.store.UpdateIncome(ctx, in)
	if err != nil {
		return core.Income{}, notFoundOr(err, "update income")
	}

	s.logger.InfoContext(ctx, "Income updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithUser(userID).
		WithRecord(amqp.KindIncome, saved.ID, saved.Source, saved.Amount.String()).
		ToSlice()...)

	s.publish(ctx, amqp.EventRecordUpdated, amqp.KindIncome, userID, saved.ID)
	return saved, nil
}

// UpdateExpense applies the patch to an expense owned by the user.
func (s *RecordService) UpdateExpense(ctx context.Context, userID, id int64, patch RecordPatch) (core.Expense, error) {
	if patch.empty() {
		return core.Expense{}, &ValidationError{Err: ErrEmptyUpdate}
	}
	e, err := s.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, err
	}

	patch.applyCommon(&e.Amount, &e.Date, &e.Category, &e.Description, &e.Recurrence)
	normalizeExpense(&e)
	if err := e.Validate(); err != nil {
		return core.Expense{}, &ValidationError{Err: err}
	}

	saved, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, notFoundOr(err, "update expense")
	}

	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithUser(userID).
		WithRecord(amqp.KindExpense, saved.ID, saved.Category, saved.Amount.String()).
		ToSlice()...)

	s.publish(ctx, amqp.EventRecordUpdated, amqp.KindExpense, userID, saved.ID)
	return saved, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// DeleteIncome soft deletes an income record owned by the user
func (s *RecordService) DeleteIncome(ctx context.Context, userID, id int64) error {
	return s.delete(ctx, amqp.KindIncome, userID, id, s.store.DeactivateIncome)
}

// DeleteExpense soft deletes an expense owned by the user
func (s *RecordService) DeleteExpense(ctx context.Context, userID, id int64) error {
	return s.delete(ctx, amqp.KindExpense, userID, id, s.store.DeactivateExpense)
}

func (s *RecordService) delete(ctx context.Context, kind string, userID, id int64, deactivate func(context.Context, int64, int64) error) error {
	if err := deactivate(ctx, userID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("soft delete %s: %w", kind, err)
	}

	s.logger.InfoContext(ctx, "Record deleted", log.NewFields().
		WithOperation(log.OpDelete).
		WithUser(userID).
		WithRecord(kind, id, "", "").
		ToSlice()...)

	s.publish(ctx, amqp.EventRecordDeleted, kind, userID, id)
	return nil
}

// publish never fails the request: the record is already saved locally.
func (s *RecordService) publish(ctx context.Context, eventType, kind string, userID, recordID int64) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not available, skipping record event", "type", eventType)
		return
	}

	if err := s.publisher.PublishRecordEvent(ctx, amqp.NewRecordEvent(eventType, kind, userID, recordID)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish record event", log.NewFields().
			WithOperation(log.OpPublish).
			WithUser(userID).
			WithRecord(kind, recordID, "", "").
			WithError(err).
			ToSlice()...)
	}
}
