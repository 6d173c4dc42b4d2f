package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the Chi router
func NewRouter(store Store, runner Runner) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	// Create handlers
	h := NewHandlers(store, runner)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/listings", h.ListMerged)
		r.Get("/listings/kijiji", h.ListKijiji)
		r.Get("/listings/autotrader", h.ListAutotrader)
		r.Get("/listings/{source}/{id}/market-query", h.GetMarketQuery)
		r.Get("/export/{view}.{format}", h.Export)
		r.Post("/scrape/{source}", h.TriggerScrape)
		r.Post("/reset", h.Reset)
	})

	return r
}

// CORS allows the dashboard to call the API from another origin
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
