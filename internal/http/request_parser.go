// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Record and account endpoints accept both JSON and form-encoded bodies, so
// browser forms and API clients share one code path.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finboard/internal/core"
	"finboard/internal/services"
)

const maxBodyBytes = 1 << 20

var (
	errInvalidBody      = errors.New("invalid request body")
	errInvalidRecordID  = errors.New("invalid record id")
	errRecurringFilter  = errors.New("is_recurring must be true or false")
	errPeriodWithoutRec = errors.New("recurrence_period requires is_recurring")
)

// ParsePeriod reads the optional start_date and end_date query parameters.
// Missing parameters leave that side of the period open.
func ParsePeriod(query url.Values) (core.Period, error) {
	var p core.Period
	if v := strings.TrimSpace(query.Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Period{}, err
		}
		p.From = d
	}
	if v := strings.TrimSpace(query.Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return core.Period{}, err
		}
		p.To = d
	}
	return p, nil
}

// ParseRecordFilter reads the period plus the optional is_recurring flag
// used by the record listings.
func ParseRecordFilter(query url.Values) (core.RecordFilter, error) {
	period, err := ParsePeriod(query)
	if err != nil {
		return core.RecordFilter{}, err
	}
	f := core.RecordFilter{Period: period}
	if v := strings.TrimSpace(query.Get("is_recurring")); v != "" {
		want, err := strconv.ParseBool(v)
		if err != nil {
			return core.RecordFilter{}, errRecurringFilter
		}
		f.Recurring = &want
	}
	return f, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once, capped at maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = errInvalidBody
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = errInvalidBody
			return p.err
		}
		return nil
	}

	var err error
	if p.formData, err = url.ParseQuery(string(p.body)); err != nil {
		p.err = errInvalidBody
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether the body carries key at all, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	_, ok := p.formData[key]
	return ok
}

// Bool reads a checkbox-style flag: true, on, 1 and yes count as set.
func (p *RequestBodyParser) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// recordFields is what income and expense bodies have in common.
type recordFields struct {
	amount      core.Money
	date        core.Date
	category    string
	description string
	recurrence  core.Recurrence
}

func parseRecordFields(p *RequestBodyParser) (recordFields, error) {
	cents, err := core.ParseDecimalToCents(p.Get("amount"))
	if err != nil {
		return recordFields{}, err
	}

	date := core.Today()
	if v := p.Get("date"); v != "" {
		if date, err = core.ParseDate(v); err != nil {
			return recordFields{}, err
		}
	}

	f := recordFields{
		amount:      core.Money{Cents: cents},
		date:        date,
		category:    p.Get("category"),
		description: p.Get("description"),
	}
	if p.Bool("is_recurring") {
		f.recurrence = core.Recurrence{
			Recurring: true,
			Period:    core.RecurrencePeriod(strings.ToLower(p.Get("recurrence_period"))),
		}
	}
	return f, nil
}

// ParseIncome builds an income record from a parsed body. The owner is set
// by the service.
func ParseIncome(p *RequestBodyParser) (core.Income, error) {
	f, err := parseRecordFields(p)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{
		Date:        f.date,
		Amount:      f.amount,
		Source:      p.Get("source"),
		Category:    f.category,
		Description: f.description,
		Recurrence:  f.recurrence,
	}, nil
}

// ParseExpense builds an expense record from a parsed body.
func ParseExpense(p *RequestBodyParser) (core.Expense, error) {
	f, err := parseRecordFields(p)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		Date:        f.date,
		Amount:      f.amount,
		Category:    f.category,
		Description: f.description,
		Recurrence:  f.recurrence,
	}, nil
}

// ParseRecordPatch collects the fields present in an update body. Absent
// fields are left nil so the stored values survive. Source is read only
// for income.
func ParseRecordPatch(p *RequestBodyParser, withSource bool) (services.RecordPatch, error) {
	var patch services.RecordPatch

	if p.Has("amount") {
		cents, err := core.ParseDecimalToCents(p.Get("amount"))
		if err != nil {
			return services.RecordPatch{}, err
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	if p.Has("date") {
		d, err := core.ParseDate(p.Get("date"))
		if err != nil {
			return services.RecordPatch{}, err
		}
		patch.Date = &d
	}
	if withSource && p.Has("source") {
		v := p.Get("source")
		patch.Source = &v
	}
	if p.Has("category") {
		v := p.Get("category")
		patch.Category = &v
	}
	if p.Has("description") {
		v := p.Get("description")
		patch.Description = &v
	}

	switch {
	case p.Has("is_recurring"):
		patch.Recurrence = &core.Recurrence{
			Recurring: p.Bool("is_recurring"),
			Period:    core.RecurrencePeriod(strings.ToLower(p.Get("recurrence_period"))),
		}
	case p.Has("recurrence_period"):
		return services.RecordPatch{}, errPeriodWithoutRec
	}
	return patch, nil
}

// parseRecordID reads the {id} path segment.
func parseRecordID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidRecordID
	}
	return id, nil
}

// wantsJSON reports whether the caller is an API client rather than a
// browser form.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
