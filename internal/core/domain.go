package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Daily     RecurrencePeriod = "daily"
	Weekly    RecurrencePeriod = "weekly"
	Biweekly  RecurrencePeriod = "biweekly"
	Monthly   RecurrencePeriod = "monthly"
	Quarterly RecurrencePeriod = "quarterly"
	Annually  RecurrencePeriod = "annually"
)

// DateLayout is the wire and storage format of record dates.
const DateLayout = "2006-01-02"

const (
	maxLabelLength       = 100
	maxDescriptionLength = 200
)

type (
	RecurrencePeriod string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Recurrence describes how often a record repeats. The zero value is a
	// one-off record.
	Recurrence struct {
		Recurring bool
		Period    RecurrencePeriod
	}

	Income struct {
		ID          int64
		UserID      int64
		Date        Date
		Amount      Money
		Source      string // breakdown label
		Category    string
		Description string
		Recurrence  Recurrence
	}

	Expense struct {
		ID          int64
		UserID      int64
		Date        Date
		Amount      Money
		Category    string // breakdown label
		Description string
		Recurrence  Recurrence
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Session struct {
		Token     string
		UserID    int64
		ExpiresAt time.Time
	}

	// Period bounds a query by record date, both ends inclusive. A zero
	// bound is open.
	Period struct {
		From Date
		To   Date
	}

	// RecordFilter narrows record listings. A nil Recurring lists both
	// one-off and recurring records.
	RecordFilter struct {
		Period    Period
		Recurring *bool
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrFutureDate         = errors.New("date cannot be in the future")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptySource        = errors.New("source must be between 1 and 100 characters")
	ErrEmptyCategory      = errors.New("category must be between 1 and 100 characters")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrInvalidRecurrence  = errors.New("invalid recurrence period")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Today returns the current UTC date with the clock stripped.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if d.After(Today().Time) {
		return ErrFutureDate
	}
	return nil
}

// IsZero reports whether the period has no bounds at all.
func (p Period) IsZero() bool {
	return p.From.IsZero() && p.To.IsZero()
}

// Valid reports whether a bounded period is not inverted.
func (p Period) Valid() bool {
	if p.From.IsZero() || p.To.IsZero() {
		return true
	}
	return !p.From.After(p.To.Time)
}

func (p RecurrencePeriod) Valid() bool {
	switch p {
	case Daily, Weekly, Biweekly, Monthly, Quarterly, Annually:
		return true
	}
	return false
}

func (r Recurrence) Validate() error {
	if !r.Recurring {
		return nil
	}
	if !r.Period.Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

func validateLabel(s string, err error) error {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > maxLabelLength {
		return err
	}
	return nil
}

func validateDescription(s string) error {
	if utf8.RuneCountInString(s) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func (i Income) Validate() error {
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	if err := validateLabel(i.Source, ErrEmptySource); err != nil {
		return err
	}
	if i.Category != "" {
		if err := validateLabel(i.Category, ErrEmptyCategory); err != nil {
			return err
		}
	}
	if err := validateDescription(i.Description); err != nil {
		return err
	}
	return i.Recurrence.Validate()
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := validateLabel(e.Category, ErrEmptyCategory); err != nil {
		return err
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	return e.Recurrence.Validate()
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
