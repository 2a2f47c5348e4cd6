package export

import (
	"bytes"
	"testing"

	"fintrack/internal/core"

	"github.com/xuri/excelize/v2"
)

func mustEntry(t *testing.T, kind, amount, category, date string) core.Entry {
	t.Helper()
	e, err := core.NewEntry(kind, amount, category, date)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return e
}

func TestWriteWorkbook(t *testing.T) {
	entries := []core.Entry{
		mustEntry(t, "income", "1000", "Salary", "2024-01-15"),
		mustEntry(t, "expense", "200.5", "Groceries", "2024-01-20"),
	}
	totals := core.ComputeTotals(entries)

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, entries, totals); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(EntriesSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Type" || rows[2][0] != "expense" || rows[2][1] != "200.5" || rows[2][3] != "2024-01-20" {
		t.Fatalf("unexpected rows %v", rows)
	}

	net, err := f.GetCellValue(SummarySheet, "B3")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if net != "799.5" {
		t.Fatalf("expected net 799.5, got %s", net)
	}
}

func TestWriteWorkbookEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, nil, core.Totals{}); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 2 || got[0] != EntriesSheet || got[1] != SummarySheet {
		t.Fatalf("unexpected sheets %v", got)
	}
	income, _ := f.GetCellValue(SummarySheet, "B1")
	if income != "0" {
		t.Fatalf("expected 0 income, got %q", income)
	}
}
