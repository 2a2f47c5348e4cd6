package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"

	"github.com/gin-gonic/gin"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeInvalidKind       = "invalid_kind"
	CodeInvalidAmount     = "invalid_amount"
	CodeNonPositiveAmount = "non_positive_amount"
	CodeInvalidDate       = "invalid_date"
	CodeInvalidMonth      = "invalid_month"
	CodeBadRequest        = "bad_request"
	CodeBodyTooLarge      = "body_too_large"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type entryResponse struct {
	Kind     string `json:"kind"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

type totalsResponse struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

type summaryResponse struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	Label        string          `json:"label"`
	Entries      []entryResponse `json:"entries"`
	Totals       totalsResponse  `json:"totals"`
	IncomeShare  string          `json:"income_share"`
	ExpenseShare string          `json:"expense_share"`
}

func newEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		Kind:     e.Kind.String(),
		Amount:   core.FormatAmount(e.Amount),
		Category: e.Category,
		Date:     e.Date.String(),
	}
}

func newEntryList(entries []core.Entry) []entryResponse {
	out := make([]entryResponse, len(entries))
	for i, e := range entries {
		out[i] = newEntryResponse(e)
	}
	return out
}

func newTotalsResponse(t core.Totals) totalsResponse {
	return totalsResponse{
		Income:   core.FormatAmount(t.Income),
		Expenses: core.FormatAmount(t.Expenses),
		Net:      core.FormatAmount(t.Net),
	}
}

func newSummaryResponse(s core.MonthSummary) summaryResponse {
	return summaryResponse{
		Year:         s.Year,
		Month:        s.Month,
		Label:        s.Label,
		Entries:      newEntryList(s.Entries),
		Totals:       newTotalsResponse(s.Totals),
		IncomeShare:  s.IncomeShare.StringFixed(1),
		ExpenseShare: s.ExpenseShare.StringFixed(1),
	}
}

// errorCode maps a validation sentinel to its public code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidKind):
		return CodeInvalidKind
	case errors.Is(err, core.ErrNonPositiveAmount):
		return CodeNonPositiveAmount
	case errors.Is(err, core.ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, core.ErrInvalidDate):
		return CodeInvalidDate
	case errors.Is(err, core.ErrInvalidMonth):
		return CodeInvalidMonth
	default:
		return CodeInternal
	}
}

// writeError answers 422 for validation errors and 500 for anything else.
// Internal error text is not echoed to the client.
func writeError(c *gin.Context, err error) {
	code := errorCode(err)
	if code == CodeInternal {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: code})
		return
	}
	c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: code})
}
