package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Totals is the income/expense/net triple shown by every summary view.
type Totals struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Net      decimal.Decimal
}

// Add sums two Totals componentwise.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Income:   t.Income.Add(o.Income),
		Expenses: t.Expenses.Add(o.Expenses),
		Net:      t.Net.Add(o.Net),
	}
}

// Equal compares componentwise by numeric value.
func (t Totals) Equal(o Totals) bool {
	return t.Income.Equal(o.Income) && t.Expenses.Equal(o.Expenses) && t.Net.Equal(o.Net)
}

// MonthSummary is a compact summary for a specific year+month.
type MonthSummary struct {
	Year         int
	Month        int // 1-12
	Label        string
	Entries      []Entry
	Totals       Totals
	IncomeShare  decimal.Decimal // percent of income+expenses, one decimal place
	ExpenseShare decimal.Decimal
}

// ComputeTotals sums the sequence by kind. It has no side effects.
func ComputeTotals(entries []Entry) Totals {
	income, expenses := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Kind {
		case Income:
			income = income.Add(e.Amount)
		case Expense:
			expenses = expenses.Add(e.Amount)
		}
	}
	return Totals{Income: income, Expenses: expenses, Net: income.Sub(expenses)}
}

// FilterMonth keeps entries dated in the given calendar month, preserving order.
func FilterMonth(entries []Entry, year, month int) []Entry {
	out := make([]Entry, 0)
	for _, e := range entries {
		if e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out
}

func validateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	return nil
}

// TotalsForMonth aggregates only the entries of year/month.
func TotalsForMonth(entries []Entry, year, month int) (Totals, error) {
	if err := validateMonth(month); err != nil {
		return Totals{}, err
	}
	return ComputeTotals(FilterMonth(entries, year, month)), nil
}

// Summarize builds the month view: filtered entries, totals and the
// income/expense split.
func Summarize(entries []Entry, year, month int) (MonthSummary, error) {
	if err := validateMonth(month); err != nil {
		return MonthSummary{}, err
	}
	monthEntries := FilterMonth(entries, year, month)
	totals := ComputeTotals(monthEntries)

	incomeShare, expenseShare := decimal.Zero, decimal.Zero
	if sum := totals.Income.Add(totals.Expenses); sum.IsPositive() {
		hundred := decimal.NewFromInt(100)
		incomeShare = totals.Income.Mul(hundred).DivRound(sum, 1)
		expenseShare = totals.Expenses.Mul(hundred).DivRound(sum, 1)
	}

	return MonthSummary{
		Year:         year,
		Month:        month,
		Label:        MonthLabel(year, month),
		Entries:      monthEntries,
		Totals:       totals,
		IncomeShare:  incomeShare,
		ExpenseShare: expenseShare,
	}, nil
}

// MonthLabel renders e.g. "January 2024".
func MonthLabel(year, month int) string {
	return fmt.Sprintf("%s %d", time.Month(month).String(), year)
}

// MonthKey renders e.g. "2024-01", used as a cache key.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
