package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"car-listings/internal/db"
	"car-listings/internal/models"
	"car-listings/internal/scraper"
)

type stubRunner struct {
	got models.Source
}

func (s *stubRunner) Run(ctx context.Context, source models.Source) scraper.Report {
	s.got = source
	return scraper.Report{Source: source, Found: 2, Inserted: 2, Status: "Kijiji: 2 listings found"}
}

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func newTestServer(t *testing.T) (*httptest.Server, *db.DB, *stubRunner) {
	t.Helper()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store, err := db.New(db.Config{
		Path: filepath.Join(t.TempDir(), "api.db"),
		Now:  func() time.Time { clock = clock.Add(time.Second); return clock },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if _, err := store.UpsertKijiji(ctx, &models.Listing{
		Source:      models.SourceKijiji,
		Title:       "2015 Toyota Corolla LE",
		URL:         ns("https://k/1"),
		Brand:       ns("toyota"),
		Model:       ns("corolla"),
		Year:        ns("2015"),
		Odometer:    ns("160000"),
		Price:       ns("9500"),
		ActivatedAt: models.ParseTimestamp("2024-05-01T10:00:00Z"),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.InsertAutotrader(ctx, &models.Listing{
		Source:   models.SourceAutotrader,
		Title:    "2019 Honda Civic",
		Price:    ns("$18,995"),
		Odometer: ns("85,000 km"),
	}); err != nil {
		t.Fatal(err)
	}

	runner := &stubRunner{}
	srv := httptest.NewServer(NewRouter(store, runner))
	t.Cleanup(srv.Close)
	return srv, store, runner
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestListMerged(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var body struct {
		Listings []models.UnifiedRow `json:"listings"`
		Count    int                 `json:"count"`
	}
	if code := getJSON(t, srv.URL+"/api/listings", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d; want 2", body.Count)
	}
	// autotrader row was inserted a second later
	if body.Listings[0].Source != "Autotrader" || body.Listings[1].Source != "Kijiji" {
		t.Errorf("order = %s, %s", body.Listings[0].Source, body.Listings[1].Source)
	}
}

func TestListKijijiIncludesElapsed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var body struct {
		Listings []map[string]interface{} `json:"listings"`
	}
	if code := getJSON(t, srv.URL+"/api/listings/kijiji", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if len(body.Listings) != 1 {
		t.Fatalf("got %d listings", len(body.Listings))
	}
	if body.Listings[0]["name"] != "2015 Toyota Corolla LE" {
		t.Errorf("name = %v", body.Listings[0]["name"])
	}
	if _, ok := body.Listings[0]["elapsed"].(string); !ok {
		t.Errorf("elapsed = %v; want text", body.Listings[0]["elapsed"])
	}
}

func TestMarketQuery(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var q models.MarketQuery
	if code := getJSON(t, srv.URL+"/api/listings/autotrader/1/market-query", &q); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if q.Brand != "Honda" || q.Model != "Civic" || q.Year != 2019 || q.OdometerKm != 85000 {
		t.Errorf("query = %+v", q)
	}

	if code := getJSON(t, srv.URL+"/api/listings/kijiji/99/market-query", nil); code != http.StatusNotFound {
		t.Errorf("missing listing status = %d; want 404", code)
	}
	if code := getJSON(t, srv.URL+"/api/listings/ebay/1/market-query", nil); code != http.StatusBadRequest {
		t.Errorf("bad source status = %d; want 400", code)
	}
}

func TestExport(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/export/merged.csv")
	if err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(resp.Body).ReadAll()
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || records[0][0] != "source" {
		t.Errorf("csv records = %v", records)
	}

	resp, err = http.Get(srv.URL + "/api/export/kijiji.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	resp.Body.Close()

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Kijiji")
	if err != nil || len(rows) != 2 {
		t.Fatalf("xlsx rows = %d, %v; want 2", len(rows), err)
	}
	// same fields as GET /api/listings/kijiji, including elapsed
	header, row := rows[0], rows[1]
	if header[len(header)-1] != "elapsed" || len(row) != len(header) || row[len(row)-1] == "" {
		t.Errorf("kijiji export header %v, row %v; want trailing elapsed value", header, row)
	}

	if code := getJSON(t, srv.URL+"/api/export/garage.csv", nil); code != http.StatusNotFound {
		t.Errorf("unknown view status = %d; want 404", code)
	}
	if code := getJSON(t, srv.URL+"/api/export/merged.pdf", nil); code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d; want 400", code)
	}
}

func TestTriggerScrapeAndReset(t *testing.T) {
	srv, store, runner := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/scrape/kijiji", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || runner.got != models.SourceKijiji {
		t.Errorf("scrape status = %d, source = %q", resp.StatusCode, runner.got)
	}

	resp, err = http.Post(srv.URL+"/api/reset", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}

	n, err := store.Count(context.Background(), models.SourceKijiji)
	if err != nil || n != 0 {
		t.Errorf("kijiji rows after reset = %d, %v", n, err)
	}
}
