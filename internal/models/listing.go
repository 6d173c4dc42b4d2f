package models

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Source identifies where a listing was scraped from
type Source string

const (
	SourceKijiji     Source = "kijiji"
	SourceAutotrader Source = "autotrader"
)

// Sources lists every supported source in reconciliation order
var Sources = []Source{SourceKijiji, SourceAutotrader}

// ParseSource maps a user-supplied name onto a Source
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kijiji", "kjiji":
		return SourceKijiji, nil
	case "autotrader", "autotreader":
		return SourceAutotrader, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Label is the display tag used in the merged view
func (s Source) Label() string {
	switch s {
	case SourceKijiji:
		return "Kijiji"
	case SourceAutotrader:
		return "Autotrader"
	}
	return string(s)
}

// NotAvailable marks a missing image on Autotrader listings
const NotAvailable = "N/A"

// Listing is the canonical, source-normalized record built by the field
// mappers. It is typed in memory and flattened to text at the storage boundary.
type Listing struct {
	Source       Source
	Type         sql.NullString // upstream type name (Kijiji __typename)
	Title        string
	Description  sql.NullString
	Images       []string
	Price        sql.NullString
	Currency     sql.NullString
	URL          sql.NullString
	Location     sql.NullString
	Brand        sql.NullString
	Model        sql.NullString
	Year         sql.NullString
	BodyType     sql.NullString
	Color        sql.NullString
	Doors        sql.NullString
	FuelType     sql.NullString
	Transmission sql.NullString
	Odometer     sql.NullString
	OdometerUnit sql.NullString
	ActivatedAt  sql.NullTime
	SortedAt     sql.NullTime
	Elapsed      *time.Duration // now - ActivatedAt at mapping time
	SortingLag   *time.Duration // SortedAt - ActivatedAt
}

// Validate checks the fields every stored record must carry
func (l *Listing) Validate() error {
	if l.Source != SourceKijiji && l.Source != SourceAutotrader {
		return fmt.Errorf("listing has unknown source %q", l.Source)
	}
	if strings.TrimSpace(l.Title) == "" {
		return fmt.Errorf("%s listing %s has no title", l.Source, l.URL.String)
	}
	// Kijiji rows are keyed on url and NULL never conflicts
	if l.Source == SourceKijiji && strings.TrimSpace(l.URL.String) == "" {
		return fmt.Errorf("%s listing %q has no url", l.Source, l.Title)
	}
	return nil
}

// ImageRef is the stored form of the image list: a JSON array for Kijiji, the
// first URL (or "N/A") for Autotrader.
func (l *Listing) ImageRef() sql.NullString {
	switch l.Source {
	case SourceAutotrader:
		if len(l.Images) == 0 || l.Images[0] == "" {
			return sql.NullString{String: NotAvailable, Valid: true}
		}
		return sql.NullString{String: l.Images[0], Valid: true}
	default:
		if len(l.Images) == 0 {
			return sql.NullString{}
		}
		b, err := json.Marshal(l.Images)
		if err != nil {
			return sql.NullString{}
		}
		return sql.NullString{String: string(b), Valid: true}
	}
}

// PrimaryImage returns the first URL held by a stored image reference. The
// reference may be a JSON array, a bare URL, or the "N/A" marker.
func PrimaryImage(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == NotAvailable {
		return ""
	}
	if strings.HasPrefix(ref, "[") {
		var urls []string
		if err := json.Unmarshal([]byte(ref), &urls); err == nil {
			for _, u := range urls {
				if u != "" {
					return u
				}
			}
		}
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return ""
}
