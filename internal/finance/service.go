// Package finance computes per-user summaries and savings projections from
// the records in the data store.
package finance

import (
	"context"

	"finboard/internal/core"
	"finboard/internal/log"
)

// Service computes derived views over a user's records. It keeps no state
// between calls; every summary is recomputed from the store.
type Service struct {
	store  Store
	logger *log.Logger
}

func NewService(store Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentFinance),
	}
}

// ComputeSummary aggregates the user's active records within the period.
// A zero period covers every record. Store failures are logged here and
// returned as *DataAccessError.
func (s *Service) ComputeSummary(ctx context.Context, userID int64, period core.Period) (core.Summary, error) {
	if userID <= 0 {
		return core.Summary{}, ErrInvalidUser
	}
	if !period.Valid() {
		return core.Summary{}, ErrInvalidPeriod
	}

	income, err := s.store.SumIncome(ctx, userID, period)
	if err != nil {
		return core.Summary{}, s.fail(ctx, "sum income", userID, period, err)
	}

	expenses, err := s.store.SumExpenses(ctx, userID, period)
	if err != nil {
		return core.Summary{}, s.fail(ctx, "sum expenses", userID, period, err)
	}

	expenseBreakdown, err := s.store.ExpenseBreakdown(ctx, userID, period)
	if err != nil {
		return core.Summary{}, s.fail(ctx, "expense breakdown", userID, period, err)
	}

	incomeBreakdown, err := s.store.IncomeBreakdown(ctx, userID, period)
	if err != nil {
		return core.Summary{}, s.fail(ctx, "income breakdown", userID, period, err)
	}

	summary := core.Summary{
		TotalIncome:      income,
		TotalExpenses:    expenses,
		TotalSavings:     income.Sub(expenses),
		ExpenseBreakdown: nonNil(expenseBreakdown),
		IncomeBreakdown:  nonNil(incomeBreakdown),
	}

	s.logger.DebugContext(ctx, "Summary computed", log.NewFields().
		WithOperation(log.OpSummary).
		WithUser(userID).
		WithPeriod(period.From.String(), period.To.String()).
		ToSlice()...)

	return summary, nil
}

// ProjectedSavings estimates monthly and annual savings from the user's
// active recurring records.
func (s *Service) ProjectedSavings(ctx context.Context, userID int64) (core.Projection, error) {
	if userID <= 0 {
		return core.Projection{}, ErrInvalidUser
	}

	income, err := s.store.RecurringIncome(ctx, userID)
	if err != nil {
		return core.Projection{}, s.fail(ctx, "recurring income", userID, core.Period{}, err)
	}

	expenses, err := s.store.RecurringExpenses(ctx, userID)
	if err != nil {
		return core.Projection{}, s.fail(ctx, "recurring expenses", userID, core.Period{}, err)
	}

	return core.NewProjection(income, expenses), nil
}

func (s *Service) fail(ctx context.Context, op string, userID int64, period core.Period, err error) error {
	s.logger.ErrorContext(ctx, "Failed to read financial data", log.NewFields().
		WithOperation(op).
		WithUser(userID).
		WithPeriod(period.From.String(), period.To.String()).
		WithErrorType(log.ErrorTypeDatabase).
		WithError(err).
		ToSlice()...)
	return &DataAccessError{Op: op, Err: err}
}

func nonNil(in []core.CategoryAmount) []core.CategoryAmount {
	if in == nil {
		return []core.CategoryAmount{}
	}
	return in
}
