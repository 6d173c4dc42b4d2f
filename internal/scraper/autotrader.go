package scraper

import (
	"database/sql"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"car-listings/internal/jsontree"
	"car-listings/internal/models"
)

// MapAutotrader converts one item of Autotrader's pageProps.listings into a
// canonical listing. The title is composed as "YEAR MAKE MODEL".
func MapAutotrader(node *jsontree.Value) models.Listing {
	vehicle := node.Get("vehicle")
	year := vehicle.Get("modelYear").String()
	mk := vehicle.Get("make").String()
	model := vehicle.Get("model").String()

	var images []string
	if first, ok := node.Get("images").Index(0).Text(); ok && first != "" {
		images = []string{first}
	}

	l := models.Listing{
		Source:   models.SourceAutotrader,
		Title:    strings.Join(strings.Fields(year+" "+mk+" "+model), " "),
		Images:   images,
		Price:    text(node.Path("price", "priceFormatted")),
		URL:      text(node.Get("url")),
		Location: text(node.Path("location", "city")),
		Brand:    nonEmpty(mk),
		Model:    nonEmpty(model),
		Year:     nonEmpty(year),
		Odometer: text(vehicle.Get("mileageInKm")),
	}
	if desc, ok := node.Get("description").Text(); ok {
		l.Description = nonEmpty(descriptionPreview(desc))
	}
	return l
}

// descriptionPreview keeps the description up to the first line break and
// strips whatever markup is left.
func descriptionPreview(desc string) string {
	if i := strings.Index(desc, "<br"); i >= 0 {
		desc = desc[:i]
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(desc))
	if err != nil {
		return strings.TrimSpace(desc)
	}
	return strings.TrimSpace(doc.Text())
}

func nonEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
