package models

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CreatedAtLayout is the text layout of the store-assigned created_at column.
// Lexicographic order over this layout is chronological order.
const CreatedAtLayout = "2006-01-02 15:04:05"

// compact numeric offset, e.g. "+0000" or "-0400"
const compactOffsetLayout = "2006-01-02T15:04:05.999999999Z0700"

// ParseTimestamp parses the ISO-8601 variants seen in scraped payloads and in
// stored rows: fractional or whole seconds, with a trailing "Z" or an explicit
// numeric offset. The result is in UTC at whole-second resolution. Anything
// else yields an invalid value.
func ParseTimestamp(s string) sql.NullTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullTime{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(compactOffsetLayout, s)
		if err != nil {
			return sql.NullTime{}
		}
	}
	return sql.NullTime{Time: t.UTC().Truncate(time.Second), Valid: true}
}

// FormatTimestamp renders a parsed timestamp for storage
func FormatTimestamp(t sql.NullTime) sql.NullString {
	if !t.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Time.UTC().Format(time.RFC3339Nano), Valid: true}
}

// Since returns now - from, clamped at zero, or nil when from is unknown
func Since(now time.Time, from sql.NullTime) *time.Duration {
	if !from.Valid || now.IsZero() {
		return nil
	}
	d := now.Sub(from.Time)
	if d < 0 {
		d = 0
	}
	return &d
}

// Between returns to - from when both are known
func Between(from, to sql.NullTime) *time.Duration {
	if !from.Valid || !to.Valid {
		return nil
	}
	d := to.Time.Sub(from.Time)
	return &d
}

// FormatElapsed renders a duration as "D days, H:MM:SS[.ffffff]"
func FormatElapsed(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	micros := d / time.Microsecond

	clock := fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	if micros > 0 {
		clock += fmt.Sprintf(".%06d", micros)
	}

	switch {
	case days == 1:
		return fmt.Sprintf("%s1 day, %s", sign, clock)
	case days > 1:
		return fmt.Sprintf("%s%d days, %s", sign, days, clock)
	}
	return sign + clock
}

// ElapsedText is FormatElapsed for an optional duration
func ElapsedText(d *time.Duration) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatElapsed(*d), Valid: true}
}
