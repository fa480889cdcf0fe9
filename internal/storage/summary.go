package storage

import (
	"context"
	"database/sql"
	"fmt"

	"finboard/internal/core"
)

// SumIncome returns the total of the user's active income within the period.
func (r *Repository) SumIncome(ctx context.Context, userID int64, p core.Period) (core.Money, error) {
	return r.sum(ctx, "income", userID, p)
}

// SumExpenses returns the total of the user's active expenses within the period.
func (r *Repository) SumExpenses(ctx context.Context, userID int64, p core.Period) (core.Money, error) {
	return r.sum(ctx, "expenses", userID, p)
}

// ExpenseBreakdown groups expenses by category, largest total first.
func (r *Repository) ExpenseBreakdown(ctx context.Context, userID int64, p core.Period) ([]core.CategoryAmount, error) {
	return r.breakdown(ctx, "expenses", "category", userID, p)
}

// IncomeBreakdown groups income by source, largest total first.
func (r *Repository) IncomeBreakdown(ctx context.Context, userID int64, p core.Period) ([]core.CategoryAmount, error) {
	return r.breakdown(ctx, "income", "source", userID, p)
}

// RecurringIncome lists the user's active recurring income.
func (r *Repository) RecurringIncome(ctx context.Context, userID int64) ([]core.RecurringAmount, error) {
	return r.recurring(ctx, "income", userID)
}

// RecurringExpenses lists the user's active recurring expenses.
func (r *Repository) RecurringExpenses(ctx context.Context, userID int64) ([]core.RecurringAmount, error) {
	return r.recurring(ctx, "expenses", userID)
}

func (r *Repository) sum(ctx context.Context, table string, userID int64, p core.Period) (core.Money, error) {
	f := newRecordFilter(userID, p)
	query := fmt.Sprintf("SELECT COALESCE(SUM(amount_cents), 0) FROM %s WHERE %s", table, f.where())

	var cents int64
	if err := r.db.QueryRowContext(ctx, query, f.args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum %s: %w", table, err)
	}
	return core.Money{Cents: cents}, nil
}

// breakdown sums table rows per label column. Equal totals are ordered by
// label so the result is deterministic across both dialects.
func (r *Repository) breakdown(ctx context.Context, table, label string, userID int64, p core.Period) ([]core.CategoryAmount, error) {
	f := newRecordFilter(userID, p)
	query := fmt.Sprintf(`SELECT %[2]s AS category, SUM(amount_cents) AS total
		FROM %[1]s
		WHERE %[3]s
		GROUP BY %[2]s
		ORDER BY total DESC, category ASC`, table, label, f.where())

	rows, err := r.db.QueryContext(ctx, query, f.args...)
	if err != nil {
		return nil, fmt.Errorf("%s breakdown: %w", table, err)
	}
	defer rows.Close()

	out := []core.CategoryAmount{}
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, fmt.Errorf("scan %s breakdown: %w", table, err)
		}
		out = append(out, core.CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s breakdown: %w", table, err)
	}
	return out, nil
}

func (r *Repository) recurring(ctx context.Context, table string, userID int64) ([]core.RecurringAmount, error) {
	query := fmt.Sprintf(`SELECT amount_cents, recurrence_period
		FROM %s
		WHERE user_id = $1 AND is_active AND is_recurring
		ORDER BY id`, table)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("recurring %s: %w", table, err)
	}
	defer rows.Close()

	var out []core.RecurringAmount
	for rows.Next() {
		var (
			cents  int64
			period sql.NullString
		)
		if err := rows.Scan(&cents, &period); err != nil {
			return nil, fmt.Errorf("scan recurring %s: %w", table, err)
		}
		out = append(out, core.RecurringAmount{
			Amount: core.Money{Cents: cents},
			Period: core.RecurrencePeriod(period.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring %s: %w", table, err)
	}
	return out, nil
}
