package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"car-listings/internal/models"
)

// ErrNotFound is returned when a listing id does not exist
var ErrNotFound = errors.New("listing not found")

// ErrMissingURL is returned when a Kijiji listing has no url to deduplicate on
var ErrMissingURL = errors.New("kijiji listing has no url")

// UpsertKijiji stores a Kijiji listing unless its url is already present.
// It reports whether a row was inserted; a conflict is not an error.
func (db *DB) UpsertKijiji(ctx context.Context, l *models.Listing) (bool, error) {
	if !l.URL.Valid || strings.TrimSpace(l.URL.String) == "" {
		return false, ErrMissingURL
	}

	query := `
		INSERT INTO kijiji (
			type, name, description, image, price, price_currency, url,
			brand_name, mileage_value, mileage_unit_code, model, vehicle_model_date,
			body_type, color, number_of_doors, fuel_type, vehicle_transmission,
			activation_date, sorting_date, time_since_activation, activation_to_sorting_diff,
			created_at
		) VALUES (
			?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?
		)
		ON CONFLICT(url) DO NOTHING
	`

	conn, err := db.Connx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx, conn.Rebind(query),
		l.Type, l.Title, l.Description, l.ImageRef(), l.Price, l.Currency, l.URL,
		l.Brand, l.Odometer, l.OdometerUnit, l.Model, l.Year,
		l.BodyType, l.Color, l.Doors, l.FuelType, l.Transmission,
		models.FormatTimestamp(l.ActivatedAt), models.FormatTimestamp(l.SortedAt),
		models.ElapsedText(l.Elapsed), models.ElapsedText(l.SortingLag),
		db.createdAt(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert kijiji listing: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// InsertAutotrader appends an Autotrader listing and returns its id. Repeated
// inserts of the same listing produce separate rows.
func (db *DB) InsertAutotrader(ctx context.Context, l *models.Listing) (int64, error) {
	query := `
		INSERT INTO autotrader (
			title, price, location, odometer, image_src, ad_link, description, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	conn, err := db.Connx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	var id int64
	err = conn.QueryRowxContext(ctx, conn.Rebind(query),
		l.Title, l.Price, l.Location, l.Odometer, l.ImageRef(), l.URL, l.Description,
		db.createdAt(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert autotrader listing: %w", err)
	}
	return id, nil
}

// ListKijiji returns every stored Kijiji listing in insertion order
func (db *DB) ListKijiji(ctx context.Context) ([]models.KijijiRow, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows := []models.KijijiRow{}
	if err := conn.SelectContext(ctx, &rows, "SELECT * FROM kijiji ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("failed to list kijiji listings: %w", err)
	}
	return rows, nil
}

// ListAutotrader returns every stored Autotrader listing in insertion order
func (db *DB) ListAutotrader(ctx context.Context) ([]models.AutotraderRow, error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	rows := []models.AutotraderRow{}
	if err := conn.SelectContext(ctx, &rows, "SELECT * FROM autotrader ORDER BY id ASC"); err != nil {
		return nil, fmt.Errorf("failed to list autotrader listings: %w", err)
	}
	return rows, nil
}

// GetKijiji returns one Kijiji listing by id
func (db *DB) GetKijiji(ctx context.Context, id int64) (*models.KijijiRow, error) {
	var r models.KijijiRow
	err := db.GetContext(ctx, &r, db.Rebind("SELECT * FROM kijiji WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kijiji listing: %w", err)
	}
	return &r, nil
}

// GetAutotrader returns one Autotrader listing by id
func (db *DB) GetAutotrader(ctx context.Context, id int64) (*models.AutotraderRow, error) {
	var r models.AutotraderRow
	err := db.GetContext(ctx, &r, db.Rebind("SELECT * FROM autotrader WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get autotrader listing: %w", err)
	}
	return &r, nil
}

// Count returns the number of stored rows for a source
func (db *DB) Count(ctx context.Context, source models.Source) (int, error) {
	table, err := tableFor(source)
	if err != nil {
		return 0, err
	}
	var count int
	err = db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table)
	return count, err
}

// ResetAll deletes every listing from both tables and restarts their id
// counters. Both tables are cleared in one transaction.
func (db *DB) ResetAll(ctx context.Context) error {
	var stmts []string
	switch db.driver {
	case DriverPostgres:
		stmts = []string{"TRUNCATE TABLE kijiji, autotrader RESTART IDENTITY"}
	default:
		stmts = []string{
			"DELETE FROM kijiji",
			"DELETE FROM autotrader",
			"DELETE FROM sqlite_sequence WHERE name IN ('kijiji', 'autotrader')",
		}
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset listings: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}

func (db *DB) createdAt() string {
	return db.now().UTC().Format(models.CreatedAtLayout)
}

func tableFor(source models.Source) (string, error) {
	switch source {
	case models.SourceKijiji:
		return "kijiji", nil
	case models.SourceAutotrader:
		return "autotrader", nil
	}
	return "", fmt.Errorf("unknown source %q", source)
}
