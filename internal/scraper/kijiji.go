package scraper

import (
	"database/sql"
	"sort"
	"time"

	"car-listings/internal/jsontree"
	"car-listings/internal/models"
)

const (
	kijijiCurrency    = "CAD"
	kijijiMileageUnit = "KMT"
)

// kijijiAttrs looks fields up in a listing's attributes.all bag
type kijijiAttrs []*jsontree.Value

func (a kijijiAttrs) get(name string) sql.NullString {
	for _, attr := range a {
		if attr.Get("canonicalName").String() == name {
			return text(attr.Get("canonicalValues").Index(0))
		}
	}
	return sql.NullString{}
}

// MapKijiji converts one AutosListing node into a canonical listing. Missing
// fields become NULL; mapping never fails.
func MapKijiji(node *jsontree.Value, now time.Time) models.Listing {
	attrs := kijijiAttrs(node.Path("attributes", "all").Items())

	activated := models.ParseTimestamp(node.Get("activationDate").String())
	sorted := models.ParseTimestamp(node.Get("sortingDate").String())

	return models.Listing{
		Source:       models.SourceKijiji,
		Type:         text(node.Get("__typename")),
		Title:        node.Get("title").String(),
		Description:  text(node.Get("description")),
		Images:       node.Get("imageUrls").Strings(),
		Price:        text(node.Path("price", "amount")),
		Currency:     sql.NullString{String: kijijiCurrency, Valid: true},
		URL:          text(node.Get("url")),
		Location:     text(node.Path("location", "name")),
		Brand:        attrs.get("carmake"),
		Model:        attrs.get("carmodel"),
		Year:         attrs.get("caryear"),
		BodyType:     attrs.get("carbodytype"),
		Color:        attrs.get("carcolor"),
		Doors:        attrs.get("noofdoors"),
		FuelType:     attrs.get("carfueltype"),
		Transmission: attrs.get("cartransmission"),
		Odometer:     attrs.get("carmileageinkms"),
		OdometerUnit: sql.NullString{String: kijijiMileageUnit, Valid: true},
		ActivatedAt:  activated,
		SortedAt:     sorted,
		Elapsed:      models.Since(now, activated),
		SortingLag:   models.Between(activated, sorted),
	}
}

// SortByActivation orders listings newest activation first; listings without
// an activation date go last. The sort is stable.
func SortByActivation(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i].ActivatedAt, listings[j].ActivatedAt
		if !a.Valid {
			return false
		}
		if !b.Valid {
			return true
		}
		return a.Time.After(b.Time)
	})
}

func text(v *jsontree.Value) sql.NullString {
	s, ok := v.Text()
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
