package model

import (
	"fmt"
	"strconv"
)

// Product is a catalog record as the external API returns it.
// All fields are optional and several have more than one shape
// (price as number or object, category as string or object, images as
// string, list, or object), so the record is kept as decoded JSON and
// projected through the normalizer.
type Product map[string]any

// String returns the string value of key, or "" when absent or not a string.
func (p Product) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Number returns the numeric value of key. Numeric strings are accepted.
func (p Product) Number(key string) (float64, bool) {
	return AsNumber(p[key])
}

// Object returns the nested object at key, if any.
func (p Product) Object(key string) (map[string]any, bool) {
	m, ok := p[key].(map[string]any)
	return m, ok
}

// ID returns the product identifier from "_id" or "id".
func (p Product) ID() string {
	for _, key := range []string{"_id", "id"} {
		if id := AsString(p[key]); id != "" {
			return id
		}
	}
	return ""
}

// AsNumber reports the numeric value of a decoded JSON value.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// AsString renders identifiers that may arrive as strings or numbers.
func AsString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// Price is a display price. The zero value is the "not available" sentinel.
type Price struct {
	Amount    float64 `json:"amount"`
	Available bool    `json:"available"`
}

// PriceNotAvailable is the sentinel for products without a usable price.
var PriceNotAvailable = Price{}

// NewPrice returns an available price.
func NewPrice(amount float64) Price {
	return Price{Amount: amount, Available: true}
}

func (p Price) String() string {
	if !p.Available {
		return "N/A"
	}
	return strconv.FormatFloat(p.Amount, 'f', 2, 64)
}

// StarRating is the star-display decomposition of a 0-5 rating.
type StarRating struct {
	Full  int  `json:"full"`
	Half  bool `json:"half"`
	Empty int  `json:"empty"`
}

// NormalizedProduct is the canonical display projection of a Product.
type NormalizedProduct struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Price              Price      `json:"price"`
	DiscountPercentage float64    `json:"discountPercentage,omitempty"`
	BeforeDiscount     float64    `json:"beforeDiscount,omitempty"`
	ImageURL           string     `json:"imageUrl"`
	Category           string     `json:"category"`
	CategoryID         string     `json:"categoryId,omitempty"`
	Brand              string     `json:"brand"`
	Rating             float64    `json:"rating"`
	Stars              StarRating `json:"stars"`
	Description        string     `json:"description"`
	ShortDescription   string     `json:"shortDescription"`
	Stock              int        `json:"stock"`
}

// OnSale reports whether the product carries a pre-discount price above its display price.
func (p NormalizedProduct) OnSale() bool {
	return p.Price.Available && p.BeforeDiscount > p.Price.Amount
}

// CategoryOption is one entry of the category filter.
type CategoryOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
