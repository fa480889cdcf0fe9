package storage

import (
	"fmt"
	"strings"

	"finboard/internal/core"
)

// recordFilter builds the WHERE clause shared by every read on the income
// and expenses tables: owned by the user, active, and inside the period.
type recordFilter struct {
	clauses []string
	args    []any
}

func newRecordFilter(userID int64, p core.Period) *recordFilter {
	f := &recordFilter{}
	f.add("user_id = $%d", userID)
	f.clauses = append(f.clauses, "is_active")
	if !p.From.IsZero() {
		f.add("date >= $%d", p.From.String())
	}
	if !p.To.IsZero() {
		f.add("date <= $%d", p.To.String())
	}
	return f
}

// recurring restricts the filter to recurring or one-off records when want
// is set.
func (f *recordFilter) recurring(want *bool) *recordFilter {
	if want != nil {
		f.add("is_recurring = $%d", *want)
	}
	return f
}

func (f *recordFilter) add(format string, arg any) {
	f.args = append(f.args, arg)
	f.clauses = append(f.clauses, fmt.Sprintf(format, len(f.args)))
}

func (f *recordFilter) where() string {
	return strings.Join(f.clauses, " AND ")
}
