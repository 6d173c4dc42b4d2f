package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"car-listings/internal/api"
	"car-listings/internal/config"
	"car-listings/internal/db"
	"car-listings/internal/scraper"
)

func main() {
	cfg := config.Load()

	// Parse command line flags
	port := flag.Int("port", cfg.Port, "Port to listen on")
	dbPath := flag.String("db", cfg.DBPath, "Path to SQLite database")
	noScrape := flag.Bool("no-scrape", false, "Disable the scrape endpoint")
	flag.Parse()

	cfg.DBPath = *dbPath
	log.Printf("Database: %s (%s)", cfg.DBPath, cfg.DBDriver)

	// Initialize database
	database, err := db.New(cfg.DB())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	var runner api.Runner
	if !*noScrape {
		requests, err := config.LoadSources(cfg.SourcesFile)
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
		runner = scraper.New(database, fetcher, scfg)
	}

	// Create router
	router := api.NewRouter(database, runner)

	// Start server
	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Starting server on http://localhost%s", addr)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
