package reconcile

import (
	"context"
	"errors"
	"testing"

	"car-listings/internal/models"
)

func strp(s string) *string { return &s }

type fakeSource struct {
	kijiji     []models.KijijiRow
	autotrader []models.AutotraderRow
	err        error
}

func (f fakeSource) ListKijiji(ctx context.Context) ([]models.KijijiRow, error) {
	return f.kijiji, f.err
}

func (f fakeSource) ListAutotrader(ctx context.Context) ([]models.AutotraderRow, error) {
	return f.autotrader, nil
}

func TestMergeCompleteness(t *testing.T) {
	src := fakeSource{
		kijiji: []models.KijijiRow{
			{ID: 1, Name: strp("k1"), CreatedAt: "2024-01-01 00:00:00"},
			{ID: 2, Name: strp("k2"), CreatedAt: "2024-01-03 00:00:00"},
		},
		autotrader: []models.AutotraderRow{
			{ID: 1, Title: "a1", CreatedAt: "2024-01-02 00:00:00"},
			{ID: 2, Title: "a2", CreatedAt: "2024-01-04 00:00:00"},
			{ID: 3, Title: "a3", CreatedAt: "2023-12-31 23:59:59"},
		},
	}

	rows, err := View(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("got %d rows; want 5", len(rows))
	}

	counts := map[string]int{}
	for _, r := range rows {
		counts[r.Source]++
	}
	if counts["Kijiji"] != 2 || counts["Autotrader"] != 3 {
		t.Errorf("source counts = %v", counts)
	}

	want := []string{"a2", "k2", "a1", "k1", "a3"}
	for i, r := range rows {
		if *r.Title != want[i] {
			t.Errorf("row %d = %q; want %q", i, *r.Title, want[i])
		}
	}
}

func TestMergeOrdering(t *testing.T) {
	rows := Merge(
		[]models.KijijiRow{{Name: strp("older"), CreatedAt: "2024-01-01 00:00:00"}},
		[]models.AutotraderRow{{Title: "newer", CreatedAt: "2024-01-02 00:00:00"}},
	)
	if *rows[0].Title != "newer" {
		t.Errorf("first row = %q; want the later created_at", *rows[0].Title)
	}
}

func TestMergeTiesKeepKijijiFirst(t *testing.T) {
	ts := "2024-01-01 00:00:00"
	rows := Merge(
		[]models.KijijiRow{{ID: 1, Name: strp("k1"), CreatedAt: ts}, {ID: 2, Name: strp("k2"), CreatedAt: ts}},
		[]models.AutotraderRow{{ID: 1, Title: "a1", CreatedAt: ts}},
	)
	want := []string{"k1", "k2", "a1"}
	for i, r := range rows {
		if *r.Title != want[i] {
			t.Errorf("row %d = %q; want %q", i, *r.Title, want[i])
		}
	}
}

func TestProjectionFillsNulls(t *testing.T) {
	a := FromAutotrader(models.AutotraderRow{
		Title:    "2019 Honda Civic",
		ImageSrc: strp(models.NotAvailable),
		AdLink:   strp("https://a/1"),
	})
	if a.Brand != nil || a.Color != nil || a.Currency != nil || a.FuelType != nil {
		t.Errorf("autotrader projection should leave missing columns NULL: %+v", a)
	}
	if a.ImageSrc != nil {
		t.Errorf("N/A image should project to NULL, got %q", *a.ImageSrc)
	}

	k := FromKijiji(models.KijijiRow{
		Image:        strp(`["https://img/1.jpg","https://img/2.jpg"]`),
		MileageValue: strp("98000"),
	})
	if k.ImageSrc == nil || *k.ImageSrc != "https://img/1.jpg" {
		t.Errorf("kijiji primary image = %v", k.ImageSrc)
	}
	if k.Odometer == nil || *k.Odometer != "98000" {
		t.Errorf("kijiji odometer = %v", k.Odometer)
	}
	if k.Source != "Kijiji" {
		t.Errorf("source = %q", k.Source)
	}
}

func TestViewPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	if _, err := View(context.Background(), fakeSource{err: boom}); !errors.Is(err, boom) {
		t.Errorf("error = %v; want wrapped db error", err)
	}
}
