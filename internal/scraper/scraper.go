package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"car-listings/internal/models"
)

// Store persists mapped listings. Kijiji rows are keyed by URL; Autotrader
// rows are appended unconditionally.
type Store interface {
	UpsertKijiji(ctx context.Context, l *models.Listing) (bool, error)
	InsertAutotrader(ctx context.Context, l *models.Listing) (int64, error)
}

// Config holds scraper configuration
type Config struct {
	// Requests maps each source to its search page
	Requests map[models.Source]PageRequest
	// Now is the clock used for derived elapsed times
	Now func() time.Time
}

// DefaultConfig returns a config with no sources and the wall clock
func DefaultConfig() Config {
	return Config{
		Requests: make(map[models.Source]PageRequest),
		Now:      time.Now,
	}
}

// Report summarizes one scrape cycle for one source
type Report struct {
	RunID    string        `json:"run_id"`
	Source   models.Source `json:"source"`
	Found    int           `json:"found"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Status   string        `json:"status"`
	Err      error         `json:"-"`
}

// OK reports whether the cycle reached the persistence step
func (r Report) OK() bool { return r.Err == nil }

// Scraper runs fetch, extract, map and persist cycles
type Scraper struct {
	store   Store
	fetcher Fetcher
	config  Config
}

// New creates a new Scraper instance
func New(store Store, fetcher Fetcher, config Config) *Scraper {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Requests == nil {
		config.Requests = make(map[models.Source]PageRequest)
	}
	return &Scraper{
		store:   store,
		fetcher: fetcher,
		config:  config,
	}
}

// Run executes one cycle for source. Failures are reported, never returned:
// an extraction or transport failure ends the cycle before anything is
// persisted, while a failed row is logged and the batch carries on.
func (s *Scraper) Run(ctx context.Context, source models.Source) Report {
	rep := Report{
		RunID:   uuid.NewString(),
		Source:  source,
		Started: time.Now(),
	}

	finish := func() Report {
		rep.Duration = time.Since(rep.Started)
		rep.Status = statusMessage(rep)
		log.Printf("[scraper] %s run %s: %s (%s)", source, rep.RunID, rep.Status, rep.Duration.Round(time.Millisecond))
		return rep
	}

	req, ok := s.config.Requests[source]
	if !ok {
		rep.Err = fmt.Errorf("no page configured for source %q", source)
		return finish()
	}
	if req.Source == "" {
		req.Source = source
	}

	log.Printf("[scraper] Starting %s cycle %s...", source, rep.RunID)

	page, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		rep.Err = err
		return finish()
	}

	listings, err := Parse(source, page, s.config.Now())
	if err != nil {
		rep.Err = err
		return finish()
	}
	rep.Found = len(listings)
	log.Printf("[scraper] Found %d %s listings", rep.Found, source)

	s.persist(ctx, &rep, listings)
	return finish()
}

func (s *Scraper) persist(ctx context.Context, rep *Report, listings []models.Listing) {
	for i := range listings {
		l := &listings[i]
		if err := l.Validate(); err != nil {
			log.Printf("[scraper] Skipping %s listing %d: %v", l.Source, i, err)
			rep.Failed++
			continue
		}

		switch l.Source {
		case models.SourceKijiji:
			inserted, err := s.store.UpsertKijiji(ctx, l)
			switch {
			case err != nil:
				log.Printf("[scraper] Failed to save listing %s: %v", l.URL.String, err)
				rep.Failed++
			case inserted:
				rep.Inserted++
			default:
				rep.Skipped++
			}
		case models.SourceAutotrader:
			if _, err := s.store.InsertAutotrader(ctx, l); err != nil {
				log.Printf("[scraper] Failed to save listing %q: %v", l.Title, err)
				rep.Failed++
				continue
			}
			rep.Inserted++
		}
	}
}

// RunAll runs one cycle per configured source, Kijiji first
func (s *Scraper) RunAll(ctx context.Context) []Report {
	var reports []Report
	for _, src := range models.Sources {
		if _, ok := s.config.Requests[src]; !ok {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		reports = append(reports, s.Run(ctx, src))
	}
	return reports
}

// Parse turns a fetched page into mapped listings for source. Kijiji
// listings come back sorted newest activation first.
func Parse(source models.Source, page string, now time.Time) ([]models.Listing, error) {
	root, err := ExtractEmbeddedJSON(page)
	if err != nil {
		return nil, err
	}

	switch source {
	case models.SourceKijiji:
		located := LocateListings(root, KijijiListingPrefix)
		listings := make([]models.Listing, 0, len(located))
		for _, loc := range located {
			listings = append(listings, MapKijiji(loc.Node, now))
		}
		SortByActivation(listings)
		return listings, nil
	case models.SourceAutotrader:
		nodes, err := AutotraderListings(root)
		if err != nil {
			return nil, err
		}
		listings := make([]models.Listing, 0, len(nodes))
		for _, n := range nodes {
			listings = append(listings, MapAutotrader(n))
		}
		return listings, nil
	default:
		return nil, fmt.Errorf("unknown source %q", source)
	}
}

func statusMessage(r Report) string {
	label := r.Source.Label()
	var te *TransportError
	switch {
	case r.Err == nil:
		return fmt.Sprintf("%s: %d listings found, %d new, %d already stored, %d failed",
			label, r.Found, r.Inserted, r.Skipped, r.Failed)
	case errors.Is(r.Err, ErrNoEmbeddedData), errors.Is(r.Err, ErrNoListings):
		return fmt.Sprintf("%s: no data available this cycle", label)
	case errors.As(r.Err, &te):
		return fmt.Sprintf("%s: fetch failed after %d attempts", label, te.Attempts)
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return fmt.Sprintf("%s: cycle cancelled", label)
	default:
		return fmt.Sprintf("%s: cycle failed: %v", label, r.Err)
	}
}
