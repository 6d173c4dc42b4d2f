package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"car-listings/internal/config"
	"car-listings/internal/db"
	"car-listings/internal/models"
	"car-listings/internal/scraper"
)

func main() {
	cfg := config.Load()

	// Parse command line flags
	dbPath := flag.String("db", cfg.DBPath, "Path to SQLite database")
	source := flag.String("source", "all", "Source to scrape: kijiji, autotrader, or all")
	sourcesFile := flag.String("sources", cfg.SourcesFile, "YAML file with source search pages (built-in when empty)")
	useBrowser := flag.Bool("browser", cfg.UseBrowser, "Use headless browser instead of plain HTTP")
	headless := flag.Bool("headless", cfg.Headless, "Run browser in headless mode (set false to see browser)")
	reset := flag.Bool("reset", false, "Clear both listing tables before scraping")
	flag.Parse()

	cfg.DBPath = *dbPath
	cfg.UseBrowser = *useBrowser
	cfg.Headless = *headless

	log.Printf("Using database: %s (%s)", cfg.DBPath, cfg.DBDriver)

	// Initialize database
	database, err := db.New(cfg.DB())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	requests, err := config.LoadSources(*sourcesFile)
	if err != nil {
		log.Fatalf("Failed to load sources: %v", err)
	}

	fetcher, stop, err := scraper.NewFetcher(cfg.Fetch())
	if err != nil {
		log.Fatalf("Failed to create fetcher: %v", err)
	}
	defer stop()

	scfg := scraper.DefaultConfig()
	scfg.Requests = requests
	s := scraper.New(database, fetcher, scfg)

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received interrupt signal, shutting down...")
		cancel()
	}()

	if *reset {
		if err := database.ResetAll(ctx); err != nil {
			log.Fatalf("Failed to reset listings: %v", err)
		}
		log.Println("Cleared all listings")
	}

	log.Println("Starting listing scraper...")
	startTime := time.Now()

	var reports []scraper.Report
	if *source == "all" {
		reports = s.RunAll(ctx)
	} else {
		src, err := models.ParseSource(*source)
		if err != nil {
			log.Fatalf("Invalid source: %v", err)
		}
		reports = append(reports, s.Run(ctx, src))
	}

	failed := false
	for _, rep := range reports {
		log.Println(rep.Status)
		if !rep.OK() {
			failed = true
		}
	}

	log.Printf("Scraping completed in %s", time.Since(startTime))
	if ctx.Err() == context.Canceled {
		log.Println("Scraper cancelled by user")
		return
	}
	if failed {
		os.Exit(1)
	}
}
