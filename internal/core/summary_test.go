package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustEntry(t *testing.T, kind, amount, category, date string) Entry {
	t.Helper()
	e, err := NewEntry(kind, amount, category, date)
	if err != nil {
		t.Fatalf("NewEntry(%s, %s, %s, %s): %v", kind, amount, category, date, err)
	}
	return e
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeTotals(t *testing.T) {
	entries := []Entry{
		mustEntry(t, "income", "1000", "Salary", "2024-01-15"),
		mustEntry(t, "expense", "200", "Food", "2024-01-20"),
		mustEntry(t, "expense", "50.25", "Bus", "2024-02-01"),
	}
	got := ComputeTotals(entries)
	want := Totals{Income: dec("1000"), Expenses: dec("250.25"), Net: dec("749.75")}
	if !got.Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	if empty := ComputeTotals(nil); !empty.Equal(Totals{}) {
		t.Fatalf("expected zero totals, got %+v", empty)
	}
}

func TestComputeTotalsIsAdditive(t *testing.T) {
	a := []Entry{
		mustEntry(t, "income", "10.10", "A", "2024-01-01"),
		mustEntry(t, "expense", "3.03", "B", "2024-01-02"),
	}
	b := []Entry{
		mustEntry(t, "expense", "99.99", "C", "2023-12-31"),
		mustEntry(t, "income", "0.01", "D", "2025-06-01"),
		mustEntry(t, "income", "5", "E", "2025-06-02"),
	}
	joined := append(append([]Entry{}, a...), b...)
	if got, want := ComputeTotals(joined), ComputeTotals(a).Add(ComputeTotals(b)); !got.Equal(want) {
		t.Fatalf("totals not additive: %+v vs %+v", got, want)
	}
}

func TestTotalsForMonth(t *testing.T) {
	entries := []Entry{
		mustEntry(t, "income", "1000", "Salary", "2024-01-15"),
		mustEntry(t, "expense", "200", "Food", "2024-01-20"),
		mustEntry(t, "expense", "75", "Food", "2024-02-03"),
		mustEntry(t, "income", "500", "Bonus", "2023-01-10"),
	}
	got, err := TotalsForMonth(entries, 2024, 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := Totals{Income: dec("1000"), Expenses: dec("200"), Net: dec("800")}
	if !got.Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	for _, m := range []int{0, 13, -1} {
		if _, err := TotalsForMonth(entries, 2024, m); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("month %d expected ErrInvalidMonth, got %v", m, err)
		}
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		mustEntry(t, "income", "1000", "Salary", "2024-01-15"),
		mustEntry(t, "expense", "200", "Food", "2024-01-20"),
		mustEntry(t, "expense", "75", "Food", "2024-02-03"),
	}
	s, err := Summarize(entries, 2024, 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s.Label != "January 2024" {
		t.Fatalf("label: %q", s.Label)
	}
	if len(s.Entries) != 2 || s.Entries[0].Category != "Salary" || s.Entries[1].Category != "Food" {
		t.Fatalf("unexpected entries: %+v", s.Entries)
	}
	if !s.IncomeShare.Equal(dec("83.3")) || !s.ExpenseShare.Equal(dec("16.7")) {
		t.Fatalf("unexpected shares: %s / %s", s.IncomeShare, s.ExpenseShare)
	}

	empty, err := Summarize(entries, 2030, 6)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(empty.Entries) != 0 || !empty.IncomeShare.IsZero() || !empty.ExpenseShare.IsZero() {
		t.Fatalf("expected empty summary, got %+v", empty)
	}

	if _, err := Summarize(entries, 2024, 13); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey(2024, 3); got != "2024-03" {
		t.Fatalf("got %q", got)
	}
}
