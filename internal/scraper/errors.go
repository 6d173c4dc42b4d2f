package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEmbeddedData means the fetched page carried no embedded JSON block
	ErrNoEmbeddedData = errors.New("no embedded JSON data block found")
	// ErrNoListings means the embedded data had no listings collection where the
	// source keeps it
	ErrNoListings = errors.New("embedded data has no listings collection")
)

// StatusError is a non-200 response from a source
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Status)
}

// TransportError is returned once a fetch has used up its retry budget
type TransportError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
