package normalize

import (
	"sort"
	"strings"

	"storefront/internal/model"
)

// Criteria narrows a product listing client-side. Nil bounds are unset.
type Criteria struct {
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
}

// IsZero reports whether no criterion is set.
func (c Criteria) IsZero() bool {
	return c.MinPrice == nil && c.MaxPrice == nil && c.MinRating == nil
}

// Match reports whether p satisfies every set criterion.
// Products without a price are compared as 0.
func (c Criteria) Match(p model.NormalizedProduct) bool {
	price := 0.0
	if p.Price.Available {
		price = p.Price.Amount
	}
	if c.MinPrice != nil && price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && price > *c.MaxPrice {
		return false
	}
	if c.MinRating != nil && p.Rating < *c.MinRating {
		return false
	}
	return true
}

// Filter returns the products matching c, preserving order.
func Filter(products []model.NormalizedProduct, c Criteria) []model.NormalizedProduct {
	if c.IsZero() {
		return products
	}
	out := make([]model.NormalizedProduct, 0, len(products))
	for _, p := range products {
		if c.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// CategoryOptions returns the distinct categories of products sorted by name.
// The option id is the category id when the record has one, else the name.
// Products without a category are skipped.
func CategoryOptions(products []model.Product) []model.CategoryOption {
	byName := make(map[string]string)
	for _, p := range products {
		if !hasCategoryName(p) {
			continue
		}
		label, id := ResolveCategory(p)
		if id == "" {
			id = label
		}
		byName[label] = id
	}

	out := make([]model.CategoryOption, 0, len(byName))
	for name, id := range byName {
		out = append(out, model.CategoryOption{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Brands returns the distinct non-empty brands of products, sorted.
func Brands(products []model.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		b := strings.TrimSpace(p.String("brand"))
		if b == "" {
			continue
		}
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func hasCategoryName(p model.Product) bool {
	switch cat := p["category"].(type) {
	case string:
		return cat != ""
	case map[string]any:
		name, _ := cat["name"].(string)
		return name != ""
	}
	return false
}
