package finance

import (
	"context"

	"finboard/internal/core"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=finance

// Store is the read side of the data store the summary is computed from.
// Every method is scoped to one user and ignores soft-deleted records.
type Store interface {
	// Totals
	SumIncome(ctx context.Context, userID int64, p core.Period) (core.Money, error)
	SumExpenses(ctx context.Context, userID int64, p core.Period) (core.Money, error)

	// Breakdowns, largest total first
	ExpenseBreakdown(ctx context.Context, userID int64, p core.Period) ([]core.CategoryAmount, error)
	IncomeBreakdown(ctx context.Context, userID int64, p core.Period) ([]core.CategoryAmount, error)

	// Recurring records for projections
	RecurringIncome(ctx context.Context, userID int64) ([]core.RecurringAmount, error)
	RecurringExpenses(ctx context.Context, userID int64) ([]core.RecurringAmount, error)
}
