package models

import (
	"regexp"
	"strconv"
	"strings"
)

// Brands is the shared table of vehicle makes recognised in listing titles
var Brands = []string{
	"AM General", "Acura", "Alfa Romeo", "American Motors (AMC)", "Aston Martin", "Audi",
	"BMW", "Bentley", "BrightDrop", "Buick", "Cadillac", "Chevrolet", "Chrysler", "Daewoo",
	"Datsun", "Dodge", "Ducati", "Eagle", "FIAT", "Ferrari", "Fisker", "Ford", "Freightliner",
	"GMC", "Genesis", "Geo", "HUMMER", "Harley-Davidson", "Hino", "Honda", "Hyundai", "INEOS",
	"INFINITI", "Indian", "International", "Isuzu", "Jaguar", "Jeep", "KTM", "Karma", "Kawasaki",
	"Kenworth", "Kia", "Lamborghini", "Land Rover", "Lexus", "Lincoln", "Lordstown", "Lotus",
	"Lucid", "MINI", "MV-1", "Mack", "Maserati", "Maybach", "Mazda", "McLaren", "Mercedes-Benz",
	"Mercury", "Merkur", "Mitsubishi", "Moto Guzzi", "Nissan", "Oldsmobile", "Panoz", "Peterbilt",
	"Peugeot", "Plymouth", "Polestar", "Pontiac", "Porsche", "Ram", "Renault", "Rivian",
	"Rolls-Royce", "Saab", "Saturn", "Scion", "Smart", "Sterling", "Subaru", "Suzuki", "Tesla",
	"Toyota", "Triumph", "VPG", "Victory", "VinFast", "Volkswagen", "Volvo", "Western Star",
	"Yamaha", "Yugo", "Zero",
}

var (
	yearPattern   = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	digitsPattern = regexp.MustCompile(`[\d,]+`)
)

// MatchBrands returns every make from Brands contained in title, compared
// case-insensitively, in table order.
func MatchBrands(title string) []string {
	lower := strings.ToLower(title)
	var out []string
	for _, b := range Brands {
		if strings.Contains(lower, strings.ToLower(b)) {
			out = append(out, b)
		}
	}
	return out
}

// PrimaryBrand picks the longest matching make, so "Land Rover" wins over a
// shorter make that happens to be a substring of the title.
func PrimaryBrand(title string) string {
	best := ""
	for _, b := range MatchBrands(title) {
		if len(b) > len(best) {
			best = b
		}
	}
	return best
}

// ExtractYear finds the first 19xx/20xx year in s
func ExtractYear(s string) int {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// ParseOdometer pulls the first number out of an odometer string such as
// "123,456 km".
func ParseOdometer(s string) int {
	m := digitsPattern.FindString(s)
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// MarketQuery carries the fields a pricing-guide lookup needs
type MarketQuery struct {
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	OdometerKm int    `json:"odometer_km"`
	Price      string `json:"price"`
}

// PriceValue parses the numeric part of the price text
func (q MarketQuery) PriceValue() (float64, bool) {
	var b strings.Builder
	for _, r := range q.Price {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// MarketQuery builds the pricing-guide fields from the structured attributes,
// falling back to the title for the make and year.
func (r KijijiRow) MarketQuery() MarketQuery {
	q := MarketQuery{
		Brand:      str(r.BrandName),
		Model:      str(r.Model),
		Year:       ExtractYear(str(r.VehicleModelDate)),
		OdometerKm: ParseOdometer(str(r.MileageValue)),
		Price:      str(r.Price),
	}
	if q.Brand == "" {
		q.Brand = PrimaryBrand(str(r.Name))
	}
	if q.Year == 0 {
		q.Year = ExtractYear(str(r.Name))
	}
	return q
}

// MarketQuery derives the pricing-guide fields from a "YEAR MAKE MODEL" title
func (r AutotraderRow) MarketQuery() MarketQuery {
	q := MarketQuery{
		Brand:      PrimaryBrand(r.Title),
		Year:       ExtractYear(r.Title),
		OdometerKm: ParseOdometer(str(r.Odometer)),
		Price:      str(r.Price),
	}
	if q.Brand != "" {
		lower := strings.ToLower(r.Title)
		if i := strings.Index(lower, strings.ToLower(q.Brand)); i >= 0 {
			q.Model = strings.TrimSpace(r.Title[i+len(q.Brand):])
		}
	}
	return q
}
