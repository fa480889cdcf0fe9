package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary is the per-user finance overview. It is derived on every request
// and never stored.
type Summary struct {
	TotalIncome      Money
	TotalExpenses    Money
	TotalSavings     Money
	ExpenseBreakdown []CategoryAmount
	IncomeBreakdown  []CategoryAmount
}

// SavingsRate is savings as a percentage of income, or zero without
// income. It is negative when expenses exceed income.
func (s Summary) SavingsRate() decimal.Decimal {
	if s.TotalIncome.Cents <= 0 {
		return decimal.Zero
	}
	return s.TotalSavings.Decimal().Mul(hundred).Div(s.TotalIncome.Decimal())
}

// RecurringAmount is one recurring record reduced to what projections need.
type RecurringAmount struct {
	Amount Money
	Period RecurrencePeriod
}

// Flows groups income, expenses and their difference for one horizon.
type Flows struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Savings  decimal.Decimal
}

// Projection is the expected savings derived from recurring records.
type Projection struct {
	Monthly Flows
	Annual  Flows
}

var monthlyMultipliers = map[RecurrencePeriod]decimal.Decimal{
	Daily:     decimal.RequireFromString("30.44"),
	Weekly:    decimal.RequireFromString("4.348"),
	Biweekly:  decimal.RequireFromString("2.174"),
	Monthly:   decimal.NewFromInt(1),
	Quarterly: decimal.RequireFromString("0.333"),
	Annually:  decimal.RequireFromString("0.0833"),
}

// MonthlyEquivalent converts a recurring amount to what it costs or yields
// per month. Unknown periods count as monthly.
func (r RecurringAmount) MonthlyEquivalent() decimal.Decimal {
	mult, ok := monthlyMultipliers[r.Period]
	if !ok {
		mult = decimal.NewFromInt(1)
	}
	return r.Amount.Decimal().Mul(mult)
}

// NewProjection builds monthly and annual flows from recurring records.
func NewProjection(income, expenses []RecurringAmount) Projection {
	var in, out decimal.Decimal
	for _, r := range income {
		in = in.Add(r.MonthlyEquivalent())
	}
	for _, r := range expenses {
		out = out.Add(r.MonthlyEquivalent())
	}
	twelve := decimal.NewFromInt(12)
	monthly := Flows{Income: in, Expenses: out, Savings: in.Sub(out)}
	return Projection{
		Monthly: monthly,
		Annual: Flows{
			Income:   monthly.Income.Mul(twelve),
			Expenses: monthly.Expenses.Mul(twelve),
			Savings:  monthly.Savings.Mul(twelve),
		},
	}
}
