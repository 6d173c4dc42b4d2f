package models

import (
	"strconv"
	"time"
)

// KijijiRow is one stored Kijiji listing. Every column is text; url is unique.
type KijijiRow struct {
	ID                  int64   `db:"id" json:"id"`
	Type                *string `db:"type" json:"type"`
	Name                *string `db:"name" json:"name"`
	Description         *string `db:"description" json:"description"`
	Image               *string `db:"image" json:"image"`
	Price               *string `db:"price" json:"price"`
	PriceCurrency       *string `db:"price_currency" json:"price_currency"`
	URL                 *string `db:"url" json:"url"`
	BrandName           *string `db:"brand_name" json:"brand_name"`
	MileageValue        *string `db:"mileage_value" json:"mileage_value"`
	MileageUnitCode     *string `db:"mileage_unit_code" json:"mileage_unit_code"`
	Model               *string `db:"model" json:"model"`
	VehicleModelDate    *string `db:"vehicle_model_date" json:"vehicle_model_date"`
	BodyType            *string `db:"body_type" json:"body_type"`
	Color               *string `db:"color" json:"color"`
	NumberOfDoors       *string `db:"number_of_doors" json:"number_of_doors"`
	FuelType            *string `db:"fuel_type" json:"fuel_type"`
	VehicleTransmission *string `db:"vehicle_transmission" json:"vehicle_transmission"`
	ActivationDate      *string `db:"activation_date" json:"activation_date"`
	SortingDate         *string `db:"sorting_date" json:"sorting_date"`
	TimeSinceActivation *string `db:"time_since_activation" json:"time_since_activation"`
	ActivationToSorting *string `db:"activation_to_sorting_diff" json:"activation_to_sorting_diff"`
	CreatedAt           string  `db:"created_at" json:"created_at"`
}

// KijijiColumns is the column order of KijijiRow.Values
var KijijiColumns = []string{
	"id", "type", "name", "description", "image", "price", "price_currency", "url",
	"brand_name", "mileage_value", "mileage_unit_code", "model", "vehicle_model_date",
	"body_type", "color", "number_of_doors", "fuel_type", "vehicle_transmission",
	"activation_date", "sorting_date", "time_since_activation", "activation_to_sorting_diff",
	"created_at",
}

// Values flattens the row in KijijiColumns order; NULL becomes "".
func (r KijijiRow) Values() []string {
	return []string{
		itoa(r.ID), str(r.Type), str(r.Name), str(r.Description), str(r.Image), str(r.Price),
		str(r.PriceCurrency), str(r.URL), str(r.BrandName), str(r.MileageValue),
		str(r.MileageUnitCode), str(r.Model), str(r.VehicleModelDate), str(r.BodyType),
		str(r.Color), str(r.NumberOfDoors), str(r.FuelType), str(r.VehicleTransmission),
		str(r.ActivationDate), str(r.SortingDate), str(r.TimeSinceActivation),
		str(r.ActivationToSorting), r.CreatedAt,
	}
}

// ElapsedAt re-derives the time since activation from the stored activation
// date. The stored time_since_activation is the snapshot taken at insert time.
func (r KijijiRow) ElapsedAt(now time.Time) *time.Duration {
	return Since(now, ParseTimestamp(str(r.ActivationDate)))
}

// AutotraderRow is one stored Autotrader listing. Rows are never deduplicated.
type AutotraderRow struct {
	ID          int64   `db:"id" json:"id"`
	Title       string  `db:"title" json:"title"`
	Price       *string `db:"price" json:"price"`
	Location    *string `db:"location" json:"location"`
	Odometer    *string `db:"odometer" json:"odometer"`
	ImageSrc    *string `db:"image_src" json:"image_src"`
	AdLink      *string `db:"ad_link" json:"ad_link"`
	Description *string `db:"description" json:"description"`
	CreatedAt   string  `db:"created_at" json:"created_at"`
}

// AutotraderColumns is the column order of AutotraderRow.Values
var AutotraderColumns = []string{
	"id", "title", "price", "location", "odometer", "image_src", "ad_link", "description", "created_at",
}

// Values flattens the row in AutotraderColumns order
func (r AutotraderRow) Values() []string {
	return []string{
		itoa(r.ID), r.Title, str(r.Price), str(r.Location), str(r.Odometer),
		str(r.ImageSrc), str(r.AdLink), str(r.Description), r.CreatedAt,
	}
}

// UnifiedRow is one row of the reconciled view across both sources
type UnifiedRow struct {
	Source              string  `json:"source"`
	Title               *string `json:"title"`
	Price               *string `json:"price"`
	Currency            *string `json:"currency"`
	Brand               *string `json:"brand"`
	Model               *string `json:"model"`
	VehicleModelDate    *string `json:"vehicle_model_date"`
	BodyType            *string `json:"body_type"`
	Color               *string `json:"color"`
	FuelType            *string `json:"fuel_type"`
	VehicleTransmission *string `json:"vehicle_transmission"`
	Odometer            *string `json:"odometer"`
	ImageSrc            *string `json:"image_src"`
	AdLink              *string `json:"ad_link"`
	CreatedAt           string  `json:"created_at"`
}

// UnifiedColumns is the shared column set of the reconciled view
var UnifiedColumns = []string{
	"source", "title", "price", "currency", "brand", "model", "vehicle_model_date",
	"body_type", "color", "fuel_type", "vehicle_transmission", "odometer",
	"image_src", "ad_link", "created_at",
}

// Values flattens the row in UnifiedColumns order
func (r UnifiedRow) Values() []string {
	return []string{
		r.Source, str(r.Title), str(r.Price), str(r.Currency), str(r.Brand), str(r.Model),
		str(r.VehicleModelDate), str(r.BodyType), str(r.Color), str(r.FuelType),
		str(r.VehicleTransmission), str(r.Odometer), str(r.ImageSrc), str(r.AdLink), r.CreatedAt,
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
