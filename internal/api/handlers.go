package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"car-listings/internal/db"
	"car-listings/internal/export"
	"car-listings/internal/models"
	"car-listings/internal/reconcile"
	"car-listings/internal/scraper"
)

// Store is what the handlers need from the listing store
type Store interface {
	reconcile.RowSource
	GetKijiji(ctx context.Context, id int64) (*models.KijijiRow, error)
	GetAutotrader(ctx context.Context, id int64) (*models.AutotraderRow, error)
	ResetAll(ctx context.Context) error
}

// Runner runs one scrape cycle
type Runner interface {
	Run(ctx context.Context, source models.Source) scraper.Report
}

// Handlers contains HTTP handlers and their dependencies
type Handlers struct {
	store  Store
	runner Runner
	now    func() time.Time
}

// NewHandlers creates a new Handlers instance. runner may be nil, in which
// case scrape requests are refused.
func NewHandlers(store Store, runner Runner) *Handlers {
	return &Handlers{store: store, runner: runner, now: time.Now}
}

// kijijiItem adds the elapsed time derived at request time
type kijijiItem struct {
	models.KijijiRow
	Elapsed *string `json:"elapsed"`
}

// ListKijiji handles GET /api/listings/kijiji
func (h *Handlers) ListKijiji(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListKijiji(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := h.now()
	items := make([]kijijiItem, len(rows))
	for i, row := range rows {
		items[i] = kijijiItem{KijijiRow: row}
		if d := row.ElapsedAt(now); d != nil {
			s := models.FormatElapsed(*d)
			items[i].Elapsed = &s
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listings": items,
		"count":    len(items),
	})
}

// ListAutotrader handles GET /api/listings/autotrader
func (h *Handlers) ListAutotrader(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListAutotrader(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listings": rows,
		"count":    len(rows),
	})
}

// ListMerged handles GET /api/listings
func (h *Handlers) ListMerged(w http.ResponseWriter, r *http.Request) {
	rows, err := reconcile.View(r.Context(), h.store)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listings": rows,
		"count":    len(rows),
	})
}

// GetMarketQuery handles GET /api/listings/{source}/{id}/market-query
func (h *Handlers) GetMarketQuery(w http.ResponseWriter, r *http.Request) {
	source, err := models.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid listing ID", http.StatusBadRequest)
		return
	}

	var q models.MarketQuery
	switch source {
	case models.SourceKijiji:
		var row *models.KijijiRow
		row, err = h.store.GetKijiji(r.Context(), id)
		if err == nil {
			q = row.MarketQuery()
		}
	case models.SourceAutotrader:
		var row *models.AutotraderRow
		row, err = h.store.GetAutotrader(r.Context(), id)
		if err == nil {
			q = row.MarketQuery()
		}
	}
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "listing not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// Export handles GET /api/export/{view}.{format}
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view := chi.URLParam(r, "view")
	table, err := h.table(r.Context(), view)
	if err != nil {
		var bad badViewError
		if errors.As(err, &bad) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Encode fully before writing so a failure can still produce a 500
	var buf bytes.Buffer
	if err := export.Write(&buf, table, format); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, view, format))
	w.Write(buf.Bytes())
}

type badViewError string

func (e badViewError) Error() string { return fmt.Sprintf("unknown view %q", string(e)) }

func (h *Handlers) table(ctx context.Context, view string) (export.Table, error) {
	switch view {
	case "kijiji":
		rows, err := h.store.ListKijiji(ctx)
		if err != nil {
			return export.Table{}, err
		}
		return export.KijijiTable(rows, h.now()), nil
	case "autotrader":
		rows, err := h.store.ListAutotrader(ctx)
		if err != nil {
			return export.Table{}, err
		}
		return export.AutotraderTable(rows), nil
	case "merged":
		rows, err := reconcile.View(ctx, h.store)
		if err != nil {
			return export.Table{}, err
		}
		return export.UnifiedTable(rows), nil
	}
	return export.Table{}, badViewError(view)
}

// TriggerScrape handles POST /api/scrape/{source}. The cycle runs to
// completion before the response is written.
func (h *Handlers) TriggerScrape(w http.ResponseWriter, r *http.Request) {
	source, err := models.ParseSource(chi.URLParam(r, "source"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if h.runner == nil {
		http.Error(w, "scraping is not enabled", http.StatusServiceUnavailable)
		return
	}

	rep := h.runner.Run(r.Context(), source)
	status := http.StatusOK
	if !rep.OK() {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, rep)
}

// Reset handles POST /api/reset
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ResetAll(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[api] All listings cleared")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "All listings cleared",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
