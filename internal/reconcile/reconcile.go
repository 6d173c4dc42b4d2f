// Package reconcile projects both sources' stored rows onto one column set.
// The merged view is rebuilt on every call and never stored.
package reconcile

import (
	"context"
	"fmt"
	"sort"

	"car-listings/internal/models"
)

// RowSource is the read side of the listing store
type RowSource interface {
	ListKijiji(ctx context.Context) ([]models.KijijiRow, error)
	ListAutotrader(ctx context.Context) ([]models.AutotraderRow, error)
}

// FromKijiji projects a Kijiji row onto the shared columns
func FromKijiji(r models.KijijiRow) models.UnifiedRow {
	return models.UnifiedRow{
		Source:              models.SourceKijiji.Label(),
		Title:               r.Name,
		Price:               r.Price,
		Currency:            r.PriceCurrency,
		Brand:               r.BrandName,
		Model:               r.Model,
		VehicleModelDate:    r.VehicleModelDate,
		BodyType:            r.BodyType,
		Color:               r.Color,
		FuelType:            r.FuelType,
		VehicleTransmission: r.VehicleTransmission,
		Odometer:            r.MileageValue,
		ImageSrc:            primaryImage(r.Image),
		AdLink:              r.URL,
		CreatedAt:           r.CreatedAt,
	}
}

// FromAutotrader projects an Autotrader row onto the shared columns. Columns
// Autotrader does not store stay NULL.
func FromAutotrader(r models.AutotraderRow) models.UnifiedRow {
	title := r.Title
	return models.UnifiedRow{
		Source:    models.SourceAutotrader.Label(),
		Title:     &title,
		Price:     r.Price,
		Odometer:  r.Odometer,
		ImageSrc:  primaryImage(r.ImageSrc),
		AdLink:    r.AdLink,
		CreatedAt: r.CreatedAt,
	}
}

// Merge unions both projections and orders them newest created_at first.
// Rows with equal created_at keep Kijiji before Autotrader, each in id order.
func Merge(kijiji []models.KijijiRow, autotrader []models.AutotraderRow) []models.UnifiedRow {
	rows := make([]models.UnifiedRow, 0, len(kijiji)+len(autotrader))
	for _, r := range kijiji {
		rows = append(rows, FromKijiji(r))
	}
	for _, r := range autotrader {
		rows = append(rows, FromAutotrader(r))
	}

	// created_at is "YYYY-MM-DD HH:MM:SS", so string order is time order
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt > rows[j].CreatedAt
	})
	return rows
}

// View reads both tables and returns the merged view
func View(ctx context.Context, src RowSource) ([]models.UnifiedRow, error) {
	kijiji, err := src.ListKijiji(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load kijiji rows: %w", err)
	}
	autotrader, err := src.ListAutotrader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load autotrader rows: %w", err)
	}
	return Merge(kijiji, autotrader), nil
}

func primaryImage(ref *string) *string {
	if ref == nil {
		return nil
	}
	img := models.PrimaryImage(*ref)
	if img == "" {
		return nil
	}
	return &img
}
