package http

import (
	"encoding/json"
	"net/http"

	"finboard/internal/core"
	"finboard/internal/log"
)

type summaryTotals struct {
	TotalIncome   json.Number `json:"total_income"`
	TotalExpenses json.Number `json:"total_expenses"`
	TotalSavings  json.Number `json:"total_savings"`
}

// categoryTotal is one breakdown entry. Income entries carry the source
// under the same "category" key so the charts treat both alike.
type categoryTotal struct {
	Category string      `json:"category"`
	Total    json.Number `json:"total"`
}

type summaryResponse struct {
	Summary           summaryTotals   `json:"summary"`
	ExpensesBreakdown []categoryTotal `json:"expenses_breakdown"`
	IncomeBreakdown   []categoryTotal `json:"income_breakdown"`
}

func newSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		Summary: summaryTotals{
			TotalIncome:   moneyNumber(s.TotalIncome),
			TotalExpenses: moneyNumber(s.TotalExpenses),
			TotalSavings:  moneyNumber(s.TotalSavings),
		},
		ExpensesBreakdown: newBreakdown(s.ExpenseBreakdown),
		IncomeBreakdown:   newBreakdown(s.IncomeBreakdown),
	}
}

// newBreakdown never returns nil so empty breakdowns encode as [].
func newBreakdown(in []core.CategoryAmount) []categoryTotal {
	out := make([]categoryTotal, 0, len(in))
	for _, c := range in {
		out = append(out, categoryTotal{Category: c.Name, Total: moneyNumber(c.Amount)})
	}
	return out
}

type overviewTotals struct {
	summaryTotals
	SavingsRate json.Number `json:"savings_rate"`
}

// dateRange echoes the requested bounds; open bounds encode as null.
type dateRange struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type overviewResponse struct {
	Summary   overviewTotals `json:"summary"`
	DateRange dateRange      `json:"date_range"`
}

func dateOrNil(d core.Date) *string {
	if d.IsZero() {
		return nil
	}
	v := d.String()
	return &v
}

type flowsResponse struct {
	Income   json.Number `json:"income"`
	Expenses json.Number `json:"expenses"`
	Savings  json.Number `json:"savings"`
}

type projectionResponse struct {
	Monthly flowsResponse `json:"monthly"`
	Annual  flowsResponse `json:"annual"`
}

func newFlowsResponse(f core.Flows) flowsResponse {
	return flowsResponse{
		Income:   decimalNumber(f.Income),
		Expenses: decimalNumber(f.Expenses),
		Savings:  decimalNumber(f.Savings),
	}
}

// handleSummary serves GET /api/finance/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query())
	if err != nil {
		BadRequestError("Invalid date format. Use YYYY-MM-DD").Write(w)
		return
	}

	summary, err := s.finance.ComputeSummary(r.Context(), currentUser(r), period)
	if err != nil {
		s.writeFinanceError(w, r, log.OpSummary, err)
		return
	}

	NewJSONResponse().Body(newSummaryResponse(summary)).Write(w)
}

// handleOverview serves GET /api/finance/overview: the summary totals plus
// the savings rate, without the breakdowns.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query())
	if err != nil {
		BadRequestError("Invalid date format. Use YYYY-MM-DD").Write(w)
		return
	}

	summary, err := s.finance.ComputeSummary(r.Context(), currentUser(r), period)
	if err != nil {
		s.writeFinanceError(w, r, log.OpOverview, err)
		return
	}

	NewJSONResponse().Body(overviewResponse{
		Summary: overviewTotals{
			summaryTotals: newSummaryResponse(summary).Summary,
			SavingsRate:   decimalNumber(summary.SavingsRate()),
		},
		DateRange: dateRange{
			StartDate: dateOrNil(period.From),
			EndDate:   dateOrNil(period.To),
		},
	}).Write(w)
}

// handleProjectedSavings serves GET /api/finance/savings/projected.
func (s *Server) handleProjectedSavings(w http.ResponseWriter, r *http.Request) {
	p, err := s.finance.ProjectedSavings(r.Context(), currentUser(r))
	if err != nil {
		s.writeFinanceError(w, r, log.OpProjected, err)
		return
	}

	NewJSONResponse().Body(projectionResponse{
		Monthly: newFlowsResponse(p.Monthly),
		Annual:  newFlowsResponse(p.Annual),
	}).Write(w)
}

// handleVisuals renders the charts page. The page script fetches the
// summary itself; no finance data is read here.
func (s *Server) handleVisuals(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "visuals.html", struct {
		Title string
	}{
		Title: "Financial overview",
	})
}
