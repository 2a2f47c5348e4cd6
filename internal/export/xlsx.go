// Package export renders the ledger as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"fintrack/internal/core"

	"github.com/xuri/excelize/v2"
)

const (
	EntriesSheet = "Entries"
	SummarySheet = "Summary"

	// ContentType is the MIME type of the written workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var entryHeaders = []string{"Type", "Amount", "Category", "Date"}

// WriteWorkbook writes entries in ledger order to the Entries sheet and the
// totals to the Summary sheet.
func WriteWorkbook(w io.Writer, entries []core.Entry, totals core.Totals) error {
	f := excelize.NewFile()
	defer f.Close()

	// A new workbook starts with "Sheet1".
	if err := f.SetSheetName("Sheet1", EntriesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range entryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(EntriesSheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for idx, e := range entries {
		row := idx + 2
		values := []any{e.Kind.String(), e.Amount.InexactFloat64(), e.Category, e.Date.String()}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(EntriesSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	f.SetColWidth(EntriesSheet, "A", "A", 10)
	f.SetColWidth(EntriesSheet, "B", "B", 12)
	f.SetColWidth(EntriesSheet, "C", "C", 20)
	f.SetColWidth(EntriesSheet, "D", "D", 12)

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Total Income", totals.Income.InexactFloat64()},
		{"Total Expenses", totals.Expenses.InexactFloat64()},
		{"Net Income", totals.Net.InexactFloat64()},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	f.SetColWidth(SummarySheet, "A", "A", 16)

	if i, err := f.GetSheetIndex(EntriesSheet); err == nil {
		f.SetActiveSheet(i)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
