package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"10000000000", MaxAmountCents, true},
		{"10000000000.01", 0, false},
		{"92233720368547758", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:      "0",
		40000:  "400",
		1250:   "12.5",
		-307:   "-3.07",
		100001: "1000.01",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestNewProjection(t *testing.T) {
	income := []RecurringAmount{
		{Amount: Money{Cents: 300000}, Period: Monthly},
		{Amount: Money{Cents: 120000}, Period: Annually},
	}
	expenses := []RecurringAmount{
		{Amount: Money{Cents: 10000}, Period: Weekly},
		{Amount: Money{Cents: 5000}, Period: "fortnightly"}, // unknown counts as monthly
	}
	p := NewProjection(income, expenses)

	// 3000 + 1200*0.0833 = 3099.96
	if got := p.Monthly.Income.String(); got != "3099.96" {
		t.Fatalf("monthly income = %s", got)
	}
	// 100*4.348 + 50 = 484.8
	if got := p.Monthly.Expenses.String(); got != "484.8" {
		t.Fatalf("monthly expenses = %s", got)
	}
	if got := p.Monthly.Savings.String(); got != "2615.16" {
		t.Fatalf("monthly savings = %s", got)
	}
	if got := p.Annual.Savings.String(); got != "31381.92" {
		t.Fatalf("annual savings = %s", got)
	}
}

func TestNewProjectionEmpty(t *testing.T) {
	p := NewProjection(nil, nil)
	if !p.Monthly.Savings.IsZero() || !p.Annual.Income.IsZero() {
		t.Fatalf("expected zero projection, got %+v", p)
	}
}

func TestSummarySavingsRate(t *testing.T) {
	cases := []struct {
		income, expenses int64
		want             string
	}{
		{300000, 150000, "50"},
		{300000, 200000, "33.33"},
		{100000, 150000, "-50"},
		{0, 5000, "0"},
		{0, 0, "0"},
	}
	for _, tc := range cases {
		s := Summary{
			TotalIncome:   Money{Cents: tc.income},
			TotalExpenses: Money{Cents: tc.expenses},
			TotalSavings:  Money{Cents: tc.income - tc.expenses},
		}
		if got := s.SavingsRate().Round(2).String(); got != tc.want {
			t.Fatalf("income %d expenses %d: rate = %s, want %s", tc.income, tc.expenses, got, tc.want)
		}
	}
}
