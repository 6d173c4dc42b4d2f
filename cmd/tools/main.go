package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"car-listings/internal/config"
	"car-listings/internal/db"
	"car-listings/internal/export"
	"car-listings/internal/models"
	"car-listings/internal/reconcile"
	"car-listings/internal/scraper"
)

func main() {
	// Sub-commands
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	os.Args = os.Args[1:] // Shift args for flag parsing

	switch cmd {
	case "export":
		exportView()
	case "reset":
		resetListings()
	case "extract":
		extractPage()
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: tools <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  export   Write the kijiji, autotrader or merged view to CSV or XLSX")
	fmt.Println("  reset    Delete all listings and restart ids")
	fmt.Println("  extract  Map a saved search page offline and print the listings as JSON")
}

func openDB() *db.DB {
	cfg := config.Load()
	dbPath := flag.String("db", cfg.DBPath, "Database path")
	flag.Parse()

	cfg.DBPath = *dbPath
	database, err := db.New(cfg.DB())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	return database
}

func exportView() {
	view := flag.String("view", "merged", "View to export: kijiji, autotrader, merged")
	format := flag.String("format", "csv", "Output format: csv or xlsx")
	out := flag.String("out", "", "Output file (default <view>.<format>)")
	database := openDB()
	defer database.Close()

	f, err := export.ParseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	var table export.Table
	switch *view {
	case "kijiji":
		rows, err := database.ListKijiji(ctx)
		if err != nil {
			log.Fatalf("Failed to list listings: %v", err)
		}
		table = export.KijijiTable(rows, time.Now())
	case "autotrader":
		rows, err := database.ListAutotrader(ctx)
		if err != nil {
			log.Fatalf("Failed to list listings: %v", err)
		}
		table = export.AutotraderTable(rows)
	case "merged":
		rows, err := reconcile.View(ctx, database)
		if err != nil {
			log.Fatalf("Failed to build merged view: %v", err)
		}
		table = export.UnifiedTable(rows)
	default:
		log.Fatalf("Unknown view %q", *view)
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("%s.%s", *view, f)
	}
	file, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", path, err)
	}
	defer file.Close()

	if err := export.Write(file, table, f); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	log.Printf("Wrote %d rows to %s", len(table.Rows), path)
}

func resetListings() {
	database := openDB()
	defer database.Close()

	if err := database.ResetAll(context.Background()); err != nil {
		log.Fatalf("Failed to reset listings: %v", err)
	}
	log.Println("All listings cleared")
}

func extractPage() {
	source := flag.String("source", "kijiji", "Source the page was saved from")
	file := flag.String("file", "", "Saved HTML page")
	flag.Parse()

	src, err := models.ParseSource(*source)
	if err != nil {
		log.Fatal(err)
	}
	page, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read page: %v", err)
	}

	listings, err := scraper.Parse(src, string(page), time.Now())
	if err != nil {
		log.Fatalf("Failed to extract listings: %v", err)
	}

	out := make([]map[string]interface{}, 0, len(listings))
	for _, l := range listings {
		out = append(out, map[string]interface{}{
			"source":        l.Source,
			"title":         l.Title,
			"price":         nullable(l.Price.String, l.Price.Valid),
			"url":           nullable(l.URL.String, l.URL.Valid),
			"brand":         nullable(l.Brand.String, l.Brand.Valid),
			"model":         nullable(l.Model.String, l.Model.Valid),
			"year":          nullable(l.Year.String, l.Year.Valid),
			"odometer":      nullable(l.Odometer.String, l.Odometer.Valid),
			"image":         nullable(l.ImageRef().String, l.ImageRef().Valid),
			"activation":    nullable(models.FormatTimestamp(l.ActivatedAt).String, l.ActivatedAt.Valid),
			"elapsed":       nullable(models.ElapsedText(l.Elapsed).String, l.Elapsed != nil),
			"brand_matches": models.MatchBrands(l.Title),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal(err)
	}
	log.Printf("Extracted %d %s listings", len(listings), src)
}

func nullable(s string, ok bool) interface{} {
	if !ok {
		return nil
	}
	return s
}
