package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"finboard/internal/core"
)

func recurrencePeriodArg(r core.Recurrence) any {
	if !r.Recurring {
		return nil
	}
	return string(r.Period)
}

// CreateIncome inserts the record and returns it with its new id.
func (r *Repository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	err := r.db.QueryRowContext(ctx, `INSERT INTO income
		(user_id, amount_cents, source, category, description, date, is_recurring, recurrence_period, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		in.UserID, in.Amount.Cents, in.Source, in.Category, in.Description,
		in.Date.String(), in.Recurrence.Recurring, recurrencePeriodArg(in.Recurrence), time.Now().Unix(),
	).Scan(&in.ID)
	if err != nil {
		return core.Income{}, fmt.Errorf("insert income: %w", err)
	}
	return in, nil
}

// CreateExpense inserts the record and returns it with its new id.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	err := r.db.QueryRowContext(ctx, `INSERT INTO expenses
		(user_id, amount_cents, category, description, date, is_recurring, recurrence_period, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.UserID, e.Amount.Cents, e.Category, e.Description,
		e.Date.String(), e.Recurrence.Recurring, recurrencePeriodArg(e.Recurrence), time.Now().Unix(),
	).Scan(&e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

const (
	incomeColumns  = "id, user_id, amount_cents, source, category, description, date, is_recurring, recurrence_period"
	expenseColumns = "id, user_id, amount_cents, category, description, date, is_recurring, recurrence_period"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncome(row rowScanner) (core.Income, error) {
	var (
		in     core.Income
		date   any
		period sql.NullString
	)
	if err := row.Scan(&in.ID, &in.UserID, &in.Amount.Cents, &in.Source, &in.Category,
		&in.Description, &date, &in.Recurrence.Recurring, &period); err != nil {
		return core.Income{}, err
	}
	d, err := scanDate(date)
	if err != nil {
		return core.Income{}, err
	}
	in.Date = d
	in.Recurrence.Period = core.RecurrencePeriod(period.String)
	return in, nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e      core.Expense
		date   any
		period sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Category,
		&e.Description, &date, &e.Recurrence.Recurring, &period); err != nil {
		return core.Expense{}, err
	}
	d, err := scanDate(date)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = d
	e.Recurrence.Period = core.RecurrencePeriod(period.String)
	return e, nil
}

// ListIncome returns the user's active income matching the filter, newest
// first.
func (r *Repository) ListIncome(ctx context.Context, userID int64, filter core.RecordFilter) ([]core.Income, error) {
	f := newRecordFilter(userID, filter.Period).recurring(filter.Recurring)
	rows, err := r.db.QueryContext(ctx, `SELECT `+incomeColumns+`
		FROM income
		WHERE `+f.where()+`
		ORDER BY date DESC, id DESC`, f.args...)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	out := []core.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate income: %w", err)
	}
	return out, nil
}

// ListExpenses returns the user's active expenses matching the filter,
// newest first.
func (r *Repository) ListExpenses(ctx context.Context, userID int64, filter core.RecordFilter) ([]core.Expense, error) {
	f := newRecordFilter(userID, filter.Period).recurring(filter.Recurring)
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+`
		FROM expenses
		WHERE `+f.where()+`
		ORDER BY date DESC, id DESC`, f.args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// IncomeByID returns an active income record owned by the user. Missing,
// deleted and foreign records are all ErrNotFound.
func (r *Repository) IncomeByID(ctx context.Context, userID, id int64) (core.Income, error) {
	in, err := scanIncome(r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+`
		FROM income
		WHERE id = $1 AND user_id = $2 AND is_active`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, err)
	}
	return in, nil
}

// ExpenseByID returns an active expense owned by the user.
func (r *Repository) ExpenseByID(ctx context.Context, userID, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+`
		FROM expenses
		WHERE id = $1 AND user_id = $2 AND is_active`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// UpdateIncome overwrites the editable fields of an active income record
// owned by in.UserID.
func (r *Repository) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE income SET
		amount_cents = $1, source = $2, category = $3, description = $4, date = $5,
		is_recurring = $6, recurrence_period = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10 AND is_active`,
		in.Amount.Cents, in.Source, in.Category, in.Description, in.Date.String(),
		in.Recurrence.Recurring, recurrencePeriodArg(in.Recurrence), time.Now().Unix(),
		in.ID, in.UserID)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", in.ID, err)
	}
	if err := requireOneRow(res); err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", in.ID, err)
	}
	return in, nil
}

// UpdateExpense overwrites the editable fields of an active expense owned
// by e.UserID.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE expenses SET
		amount_cents = $1, category = $2, description = $3, date = $4,
		is_recurring = $5, recurrence_period = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9 AND is_active`,
		e.Amount.Cents, e.Category, e.Description, e.Date.String(),
		e.Recurrence.Recurring, recurrencePeriodArg(e.Recurrence), time.Now().Unix(),
		e.ID, e.UserID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if err := requireOneRow(res); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return e, nil
}

// DeactivateIncome soft deletes an income record owned by the user.
func (r *Repository) DeactivateIncome(ctx context.Context, userID, id int64) error {
	return r.deactivate(ctx, "income", userID, id)
}

// DeactivateExpense soft deletes an expense owned by the user.
func (r *Repository) DeactivateExpense(ctx context.Context, userID, id int64) error {
	return r.deactivate(ctx, "expenses", userID, id)
}

// deactivate returns ErrNotFound for missing, already deleted and foreign
// records alike.
func (r *Repository) deactivate(ctx context.Context, table string, userID, id int64) error {
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET is_active = $1 WHERE id = $2 AND user_id = $3 AND is_active", table),
		false, id, userID)
	if err != nil {
		return fmt.Errorf("deactivate %s %d: %w", table, id, err)
	}
	if err := requireOneRow(res); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deactivate %s %d: %w", table, id, err)
	}
	return nil
}

// requireOneRow maps an update that matched nothing to ErrNotFound.
func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
