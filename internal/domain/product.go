package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// GeoPoint is the geo_point representation stored on a product document.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ProductDocument represents a product document in the search index.
// Field names follow the index mapping; Price/PriceFormatted and
// Latitude/Longitude/Location are paired derived fields — see DeriveFields.
type ProductDocument struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	NameFR         string     `json:"name_fr"`
	Description    string     `json:"description"`
	DescriptionFR  string     `json:"description_fr"`
	CategoryID     int64      `json:"category_id"`
	CategoryNameEN string     `json:"category_name_en"`
	CategoryNameFR string     `json:"category_name_fr"`
	BrandID        int64      `json:"brand_id"`
	UserID         int64      `json:"user_id"`
	Country        int        `json:"country"`
	WholeSale      int        `json:"whole_sale"`
	Price          *int64     `json:"price"`
	PriceFormatted *string    `json:"price_formatted"`
	Currency       string     `json:"currency"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	Location       *GeoPoint  `json:"location,omitempty"`
	Hash           string     `json:"hash"`
	Image          string     `json:"image"`
	SearchIndex    string     `json:"search_index"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// DeriveFields recomputes the derived fields from their source fields:
// price_formatted from price (nil when price is absent) and location from
// latitude/longitude (absent unless both coordinates are present).
func (p *ProductDocument) DeriveFields() {
	if p.Price != nil {
		formatted := FormatLargeNumber(*p.Price)
		p.PriceFormatted = &formatted
	} else {
		p.PriceFormatted = nil
	}
	p.Location = NewLocation(p.Latitude, p.Longitude)
}

// NewLocation returns a geo point with both coordinates rounded to two
// decimal places, or nil when either coordinate is missing.
func NewLocation(lat, lon *float64) *GeoPoint {
	if lat == nil || lon == nil {
		return nil
	}
	return &GeoPoint{
		Lat: roundCoord(*lat),
		Lon: roundCoord(*lon),
	}
}

func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

// numberUnits are the suffixes applied by FormatLargeNumber, in ascending
// order of magnitude (steps of 1000).
var numberUnits = []string{"", "K", "M", "B", "T"}

// FormatLargeNumber renders n with the largest unit suffix that keeps its
// magnitude below 1000, to one decimal place with a trailing ".0" stripped:
// 1500 -> "1.5K", -2000000 -> "-2M", 950 -> "950".
func FormatLargeNumber(n int64) string {
	abs := math.Abs(float64(n))
	i := 0
	for abs >= 1000 && i < len(numberUnits)-1 {
		abs /= 1000
		i++
	}

	formatted := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", abs), "0"), ".")

	sign := ""
	if n < 0 {
		sign = "-"
	}
	return sign + formatted + numberUnits[i]
}
