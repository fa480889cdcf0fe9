// Package worker handles record events consumed from the message broker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/finance"
	"finboard/internal/log"
)

// SummaryComputer is the slice of finance.Service the worker needs.
type SummaryComputer interface {
	ComputeSummary(ctx context.Context, userID int64, period core.Period) (core.Summary, error)
}

// Stats counts handled events since the worker started.
type Stats struct {
	Refreshed int64
	Dropped   int64
	Failed    int64
}

// SummaryWorker recomputes a user's summaries whenever one of their records
// changes and logs the refreshed totals.
type SummaryWorker struct {
	summaries SummaryComputer
	logger    *log.Logger

	refreshed atomic.Int64
	dropped   atomic.Int64
	failed    atomic.Int64
}

func NewSummaryWorker(summaries SummaryComputer, logger *log.Logger) *SummaryWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SummaryWorker{
		summaries: summaries,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordEvent refreshes the all-time summary and the summary of the
// month the event happened in. Store failures are returned so the broker
// requeues the event; events that can never succeed are dropped.
func (w *SummaryWorker) HandleRecordEvent(ctx context.Context, event *amqp.RecordEvent) error {
	if event == nil {
		w.dropped.Add(1)
		return nil
	}

	fields := log.NewFields().
		WithOperation(log.OpConsume).
		WithUser(event.UserID)
	fields[log.FieldRecordKind] = event.Kind
	fields[log.FieldRecordID] = event.RecordID

	total, err := w.summaries.ComputeSummary(ctx, event.UserID, core.Period{})
	if err != nil {
		return w.fail(ctx, event, fields, "all-time summary", err)
	}

	month := MonthOf(event.Timestamp)
	monthly, err := w.summaries.ComputeSummary(ctx, event.UserID, month)
	if err != nil {
		return w.fail(ctx, event, fields, "monthly summary", err)
	}

	w.refreshed.Add(1)
	w.logger.InfoContext(ctx, "Summary refreshed", append(fields.ToSlice(),
		"type", event.Type,
		"total_income", total.TotalIncome.String(),
		"total_expenses", total.TotalExpenses.String(),
		"total_savings", total.TotalSavings.String(),
		"month", month.From.Format("2006-01"),
		"month_savings", monthly.TotalSavings.String(),
	)...)

	return nil
}

func (w *SummaryWorker) fail(ctx context.Context, event *amqp.RecordEvent, fields log.LogFields, step string, err error) error {
	if errors.Is(err, finance.ErrInvalidUser) || errors.Is(err, finance.ErrInvalidPeriod) {
		w.dropped.Add(1)
		w.logger.WarnContext(ctx, "Dropping record event", append(fields.
			WithErrorType(log.ErrorTypeValidation).
			WithError(err).ToSlice(), "step", step)...)
		return nil
	}

	w.failed.Add(1)
	return fmt.Errorf("refresh %s for user %d after %s: %w", step, event.UserID, event.Type, err)
}

func (w *SummaryWorker) Stats() Stats {
	return Stats{
		Refreshed: w.refreshed.Load(),
		Dropped:   w.dropped.Load(),
		Failed:    w.failed.Load(),
	}
}

// MonthOf returns the calendar month containing t, in UTC. A zero time
// falls back to the current month.
func MonthOf(t time.Time) core.Period {
	if t.IsZero() {
		t = time.Now()
	}
	t = t.UTC()
	first := core.NewDate(t.Year(), int(t.Month()), 1)
	last := core.Date{Time: first.AddDate(0, 1, -1)}
	return core.Period{From: first, To: last}
}
