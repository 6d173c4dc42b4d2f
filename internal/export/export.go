// Package export writes listing views as CSV or XLSX. The output holds exactly
// the rows and columns of the view, with NULL written as an empty cell.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"car-listings/internal/models"
)

// Format is an export file flavor
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps a file extension onto a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Table is a rectangular view ready for export
type Table struct {
	Sheet   string
	Columns []string
	Rows    [][]string
}

// KijijiTable builds the Kijiji listing view, including the elapsed time
// since activation as of now.
func KijijiTable(rows []models.KijijiRow, now time.Time) Table {
	cols := append(append([]string{}, models.KijijiColumns...), "elapsed")
	t := Table{Sheet: "Kijiji", Columns: cols}
	for _, r := range rows {
		t.Rows = append(t.Rows, append(r.Values(), models.ElapsedText(r.ElapsedAt(now)).String))
	}
	return t
}

// AutotraderTable builds the Autotrader listing view
func AutotraderTable(rows []models.AutotraderRow) Table {
	t := Table{Sheet: "Autotrader", Columns: models.AutotraderColumns}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.Values())
	}
	return t
}

// UnifiedTable builds the merged view
func UnifiedTable(rows []models.UnifiedRow) Table {
	t := Table{Sheet: "Merged", Columns: models.UnifiedColumns}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.Values())
	}
	return t
}

// Write encodes t in the given format
func Write(w io.Writer, t Table, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteCSV writes a header line followed by one line per row
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("failed to write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a single sheet named after the table
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, t.Columns); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", n, err)
	}
	return nil
}
