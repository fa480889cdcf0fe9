package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "finboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func createUser(t *testing.T, repo *Repository, name string) int64 {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), name, "hash")
	require.NoError(t, err)
	return u.ID
}

func addIncome(t *testing.T, repo *Repository, userID int64, source, amount, date string) core.Income {
	t.Helper()
	cents, err := core.ParseDecimalToCents(amount)
	require.NoError(t, err)
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	in, err := repo.CreateIncome(context.Background(), core.Income{
		UserID: userID, Source: source, Amount: core.Money{Cents: cents}, Date: d,
	})
	require.NoError(t, err)
	return in
}

func addExpense(t *testing.T, repo *Repository, userID int64, category, amount, date string) core.Expense {
	t.Helper()
	cents, err := core.ParseDecimalToCents(amount)
	require.NoError(t, err)
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	e, err := repo.CreateExpense(context.Background(), core.Expense{
		UserID: userID, Category: category, Amount: core.Money{Cents: cents}, Date: d,
	})
	require.NoError(t, err)
	return e
}

func TestRepository_EmptyUser(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	userID := createUser(t, repo, "empty")

	income, err := repo.SumIncome(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), income.Cents)

	expenses, err := repo.SumExpenses(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), expenses.Cents)

	breakdown, err := repo.ExpenseBreakdown(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.NotNil(t, breakdown)
	assert.Empty(t, breakdown)

	breakdown, err = repo.IncomeBreakdown(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.NotNil(t, breakdown)
	assert.Empty(t, breakdown)
}

func TestRepository_SummaryAggregates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	userID := createUser(t, repo, "alice")

	addIncome(t, repo, userID, "salary", "1000", "2025-01-01")
	addExpense(t, repo, userID, "food", "60", "2025-01-02")
	addExpense(t, repo, userID, "rent", "400", "2025-01-03")
	addExpense(t, repo, userID, "food", "40", "2025-01-04")

	income, err := repo.SumIncome(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(100000), income.Cents)

	expenses, err := repo.SumExpenses(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(50000), expenses.Cents)

	breakdown, err := repo.ExpenseBreakdown(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Name: "rent", Amount: core.Money{Cents: 40000}},
		{Name: "food", Amount: core.Money{Cents: 10000}},
	}, breakdown)

	incomeBreakdown, err := repo.IncomeBreakdown(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{
		{Name: "salary", Amount: core.Money{Cents: 100000}},
	}, incomeBreakdown)
}

func TestRepository_BreakdownTiesOrderedByLabel(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	userID := createUser(t, repo, "ties")

	addExpense(t, repo, userID, "transport", "50", "2025-02-01")
	addExpense(t, repo, userID, "books", "50", "2025-02-01")
	addExpense(t, repo, userID, "rent", "700", "2025-02-01")

	breakdown, err := repo.ExpenseBreakdown(ctx, userID, core.Period{})
	require.NoError(t, err)
	require.Len(t, breakdown, 3)
	assert.Equal(t, "rent", breakdown[0].Name)
	assert.Equal(t, "books", breakdown[1].Name)
	assert.Equal(t, "transport", breakdown[2].Name)
}

func TestRepository_UserIsolation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice")
	bob := createUser(t, repo, "bob")

	addExpense(t, repo, alice, "food", "10", "2025-01-01")
	addExpense(t, repo, bob, "food", "99", "2025-01-01")
	addIncome(t, repo, bob, "salary", "5000", "2025-01-01")

	breakdown, err := repo.ExpenseBreakdown(ctx, alice, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, []core.CategoryAmount{{Name: "food", Amount: core.Money{Cents: 1000}}}, breakdown)

	income, err := repo.SumIncome(ctx, alice, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), income.Cents)

	err = repo.DeactivateExpense(ctx, alice, mustFirstExpense(t, repo, bob).ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func mustFirstExpense(t *testing.T, repo *Repository, userID int64) core.Expense {
	t.Helper()
	list, err := repo.ListExpenses(context.Background(), userID, core.RecordFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, list)
	return list[0]
}

func TestRepository_SoftDeleteExcludedFromAggregates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	userID := createUser(t, repo, "carol")

	keep := addIncome(t, repo, userID, "salary", "1000", "2025-01-01")
	drop := addIncome(t, repo, userID, "bonus", "250", "2025-01-15")

	require.NoError(t, repo.DeactivateIncome(ctx, userID, drop.ID))
	assert.ErrorIs(t, repo.DeactivateIncome(ctx, userID, drop.ID), ErrNotFound)

	total, err := repo.SumIncome(ctx, userID, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, keep.Amount, total)

	list, err := repo.ListIncome(ctx, userID, core.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
	assert.Equal(t, "2025-01-01", list[0].Date.String())
}

func TestRepository_PeriodFilter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	userID := createUser(t, repo, "dave")

	addExpense(t, repo, userID, "food", "10", "2024-12-31")
	addExpense(t, repo, userID, "food", "20", "2025-01-01")
	addExpense(t, repo, userID, "food", "30", "2025-01-31")
	addExpense(t, repo, userID, "food", "40", "2025-02-01")

	period := core.Period{From: core.NewDate(2025, 1, 1), To: core.NewDate(2025, 1, 31)}

	total, err := repo.SumExpenses(ctx, userID, period)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), total.Cents)

	list, err := repo.ListExpenses(ctx, userID, core.RecordFilter{Period: period})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-01-31", list[0].Date.String())
	assert.Equal(t, "2025-01-01", list[1].Date.String())

	open, err := repo.SumExpenses(ctx, userID, core.Period{From: core.NewDate(2025, 1, 31)})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), open.Cents)
}

func TestRepository_RecurringAmounts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	userID := createUser(t, repo, "erin")
	date := core.NewDate(2025, 3, 1)

	_, err := repo.CreateIncome(ctx, core.Income{
		UserID: userID, Source: "salary", Amount: core.Money{Cents: 300000}, Date: date,
		Recurrence: core.Recurrence{Recurring: true, Period: core.Monthly},
	})
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, core.Expense{
		UserID: userID, Category: "gym", Amount: core.Money{Cents: 2500}, Date: date,
		Recurrence: core.Recurrence{Recurring: true, Period: core.Weekly},
	})
	require.NoError(t, err)
	addExpense(t, repo, userID, "one-off", "99", "2025-03-02")

	income, err := repo.RecurringIncome(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []core.RecurringAmount{{Amount: core.Money{Cents: 300000}, Period: core.Monthly}}, income)

	expenses, err := repo.RecurringExpenses(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []core.RecurringAmount{{Amount: core.Money{Cents: 2500}, Period: core.Weekly}}, expenses)

	list, err := repo.ListExpenses(ctx, userID, core.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Recurrence.Recurring)
	assert.True(t, list[1].Recurrence.Recurring)
	assert.Equal(t, core.Weekly, list[1].Recurrence.Period)
}

func TestRepository_UsersAndSessions(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "frank", "bcrypt-hash")
	require.NoError(t, err)
	assert.Positive(t, u.ID)

	_, err = repo.CreateUser(ctx, "frank", "other")
	assert.ErrorIs(t, err, ErrConflict)

	got, err := repo.UserByUsername(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "bcrypt-hash", got.PasswordHash)

	_, err = repo.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	live := core.Session{Token: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}
	stale := core.Session{Token: "stale", UserID: u.ID, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.CreateSession(ctx, live))
	require.NoError(t, repo.CreateSession(ctx, stale))

	s, err := repo.SessionByToken(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, u.ID, s.UserID)
	assert.True(t, live.ExpiresAt.Equal(s.ExpiresAt))

	n, err := repo.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.SessionByToken(ctx, "stale")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteSession(ctx, "live"))
	_, err = repo.SessionByToken(ctx, "live")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_Ping(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Ping(context.Background()))
	assert.Equal(t, DriverSQLite, repo.Driver())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "whatever")
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "db.sqlite?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("db.sqlite"))
	assert.Equal(t, "db.sqlite?mode=ro", sqliteDSN("db.sqlite?mode=ro"))
}

func TestScanDate(t *testing.T) {
	d, err := scanDate("2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", d.String())

	d, err = scanDate([]byte("2025-01-02T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", d.String())

	d, err = scanDate(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", d.String())

	_, err = scanDate(42)
	assert.Error(t, err)
}

func TestRepository_RecurringFilter(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	userID := createUser(t, repo, "frank")

	rent, err := repo.CreateExpense(ctx, core.Expense{
		UserID: userID, Category: "rent", Amount: core.Money{Cents: 80000}, Date: core.NewDate(2025, 4, 1),
		Recurrence: core.Recurrence{Recurring: true, Period: core.Monthly},
	})
	require.NoError(t, err)
	food := addExpense(t, repo, userID, "food", "12.50", "2025-04-02")

	yes, no := true, false
	recurring, err := repo.ListExpenses(ctx, userID, core.RecordFilter{Recurring: &yes})
	require.NoError(t, err)
	require.Len(t, recurring, 1)
	assert.Equal(t, rent.ID, recurring[0].ID)

	oneOff, err := repo.ListExpenses(ctx, userID, core.RecordFilter{Recurring: &no})
	require.NoError(t, err)
	require.Len(t, oneOff, 1)
	assert.Equal(t, food.ID, oneOff[0].ID)

	all, err := repo.ListExpenses(ctx, userID, core.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	income, err := repo.ListIncome(ctx, userID, core.RecordFilter{Recurring: &yes})
	require.NoError(t, err)
	assert.Empty(t, income)
}

func TestRepository_GetAndUpdateRecords(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice")
	bob := createUser(t, repo, "bob")

	in := addIncome(t, repo, alice, "salary", "1000", "2025-01-01")

	got, err := repo.IncomeByID(ctx, alice, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = repo.IncomeByID(ctx, bob, in.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	in.Amount = core.Money{Cents: 125050}
	in.Source = "salário"
	in.Date = core.NewDate(2025, 1, 31)
	in.Recurrence = core.Recurrence{Recurring: true, Period: core.Monthly}
	updated, err := repo.UpdateIncome(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, updated)

	got, err = repo.IncomeByID(ctx, alice, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	total, err := repo.SumIncome(ctx, alice, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, int64(125050), total.Cents)

	foreign := in
	foreign.UserID = bob
	_, err = repo.UpdateIncome(ctx, foreign)
	assert.ErrorIs(t, err, ErrNotFound)

	e := addExpense(t, repo, bob, "food", "20", "2025-02-01")
	e.Category = "groceries"
	e.Recurrence = core.Recurrence{Recurring: true, Period: core.Weekly}
	_, err = repo.UpdateExpense(ctx, e)
	require.NoError(t, err)

	gotExpense, err := repo.ExpenseByID(ctx, bob, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "groceries", gotExpense.Category)
	assert.Equal(t, core.Weekly, gotExpense.Recurrence.Period)

	// Going back to one-off clears the stored period.
	e.Recurrence = core.Recurrence{}
	_, err = repo.UpdateExpense(ctx, e)
	require.NoError(t, err)
	gotExpense, err = repo.ExpenseByID(ctx, bob, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Recurrence{}, gotExpense.Recurrence)

	require.NoError(t, repo.DeactivateExpense(ctx, bob, e.ID))
	_, err = repo.ExpenseByID(ctx, bob, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.UpdateExpense(ctx, e)
	assert.ErrorIs(t, err, ErrNotFound)
}
