package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"car-listings/internal/models"
)

func strp(s string) *string { return &s }

func sampleTable() Table {
	return AutotraderTable([]models.AutotraderRow{
		{ID: 1, Title: "2019 Honda Civic", Price: strp("$18,995"), ImageSrc: strp("N/A"), CreatedAt: "2024-05-01 12:00:00"},
		{ID: 2, Title: `Truck, "lifted"`, Odometer: strp("120,000 km"), CreatedAt: "2024-05-01 12:00:01"},
	})
}

func TestWriteCSV(t *testing.T) {
	tbl := sampleTable()
	var buf bytes.Buffer
	if err := WriteCSV(&buf, tbl); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading back csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records; want header + 2", len(records))
	}
	if !reflect.DeepEqual(records[0], models.AutotraderColumns) {
		t.Errorf("header = %v", records[0])
	}
	for i, row := range tbl.Rows {
		if !reflect.DeepEqual(records[i+1], row) {
			t.Errorf("row %d = %v; want %v", i, records[i+1], row)
		}
	}
	if records[2][2] != "" {
		t.Errorf("NULL price should export as empty, got %q", records[2][2])
	}
}

func TestWriteXLSX(t *testing.T) {
	tbl := sampleTable()
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, tbl); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reading back xlsx: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "Autotrader" {
		t.Errorf("sheets = %v", got)
	}
	rows, err := f.GetRows("Autotrader")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows; want 3", len(rows))
	}
	if !reflect.DeepEqual(rows[0], models.AutotraderColumns) {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "2019 Honda Civic" || rows[2][1] != `Truck, "lifted"` {
		t.Errorf("titles = %q, %q", rows[1][1], rows[2][1])
	}
}

func TestKijijiTableElapsed(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tbl := KijijiTable([]models.KijijiRow{
		{ID: 1, Name: strp("2015 Mazda 3"), ActivationDate: strp("2024-05-01T09:30:00Z"), CreatedAt: "2024-05-01 12:00:00"},
		{ID: 2, Name: strp("2018 Ford F-150"), CreatedAt: "2024-05-01 12:00:01"},
	}, now)

	last := len(tbl.Columns) - 1
	if tbl.Columns[last] != "elapsed" || len(tbl.Columns) != len(models.KijijiColumns)+1 {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	for i, row := range tbl.Rows {
		if len(row) != len(tbl.Columns) {
			t.Fatalf("row %d has %d cells; want %d", i, len(row), len(tbl.Columns))
		}
	}
	if got := tbl.Rows[0][last]; got != "2:30:00" {
		t.Errorf("elapsed = %q; want 2:30:00", got)
	}
	if got := tbl.Rows[1][last]; got != "" {
		t.Errorf("elapsed without activation = %q; want empty", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, ".XLSX": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); err == nil {
		t.Error("expected error for pdf")
	}
}
