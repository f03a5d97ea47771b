// Package normalize projects heterogeneous catalog records onto the
// canonical display model. Every function here is pure and total: missing or
// oddly-shaped fields fall back to defaults instead of failing.
package normalize

import (
	"math"
	"net/url"
	"strings"
	"unicode/utf8"

	"storefront/internal/model"
)

// Display defaults.
const (
	DefaultTitle       = "Unknown Product"
	DefaultBrand       = "Unknown Brand"
	DefaultCategory    = "Uncategorized"
	DefaultDescription = "No description available"

	// ShortDescriptionLength is the rune count kept by ShortDescription.
	ShortDescriptionLength = 70
)

// DefaultBrokenImageHosts lists hosts whose thumbnails are known to be dead.
var DefaultBrokenImageHosts = []string{"imgur.com"}

const placeholderBase = "https://placehold.co/300x300/f8bbd0/333333?text="

// Options configures a Normalizer.
type Options struct {
	// Origin is prefixed to relative image paths, e.g. "https://api.everrest.educata.dev".
	Origin string
	// BrokenImageHosts are substrings that mark a thumbnail as unusable.
	// Nil means DefaultBrokenImageHosts.
	BrokenImageHosts []string
}

// Normalizer converts raw products into NormalizedProduct values.
type Normalizer struct {
	origin      string
	brokenHosts []string
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	hosts := opts.BrokenImageHosts
	if hosts == nil {
		hosts = DefaultBrokenImageHosts
	}
	return &Normalizer{
		origin:      strings.TrimSuffix(opts.Origin, "/"),
		brokenHosts: hosts,
	}
}

// Normalize derives the display projection of p.
func (n *Normalizer) Normalize(p model.Product) model.NormalizedProduct {
	category, categoryID := ResolveCategory(p)
	rating, _ := p.Number("rating")
	stock, _ := p.Number("stock")

	out := model.NormalizedProduct{
		ID:          p.ID(),
		Title:       withDefault(p.String("title"), DefaultTitle),
		Price:       ResolvePrice(p),
		ImageURL:    n.ResolveImage(p),
		Category:    category,
		CategoryID:  categoryID,
		Brand:       withDefault(p.String("brand"), DefaultBrand),
		Rating:      rating,
		Stars:       Stars(rating),
		Description: withDefault(p.String("description"), DefaultDescription),
		Stock:       int(stock),
	}
	out.ShortDescription = ShortDescription(out.Description)

	if price, ok := p.Object("price"); ok {
		out.DiscountPercentage, _ = model.AsNumber(price["discountPercentage"])
		out.BeforeDiscount, _ = model.AsNumber(price["beforeDiscount"])
	}
	return out
}

// NormalizeAll normalizes products in order.
func (n *Normalizer) NormalizeAll(products []model.Product) []model.NormalizedProduct {
	out := make([]model.NormalizedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, n.Normalize(p))
	}
	return out
}

// ResolvePrice picks price.current, then price.value, then a bare numeric
// price. Zero counts as absent at every step.
func ResolvePrice(p model.Product) model.Price {
	switch price := p["price"].(type) {
	case map[string]any:
		for _, key := range []string{"current", "value"} {
			if v, ok := model.AsNumber(price[key]); ok && v != 0 {
				return model.NewPrice(v)
			}
		}
	case float64:
		if price != 0 {
			return model.NewPrice(price)
		}
	}
	return model.PriceNotAvailable
}

// ResolveImage returns an absolute image URL for p. It never returns "".
//
// Order: thumbnail, first non-empty images entry, image (string, url, src),
// category image, title placeholder. A thumbnail on a broken host skips
// straight to the category image.
func (n *Normalizer) ResolveImage(p model.Product) string {
	var candidates []string
	thumb := strings.TrimSpace(p.String("thumbnail"))

	if n.isBroken(thumb) {
		candidates = append(candidates, categoryImage(p))
	} else {
		candidates = append(candidates, thumb, firstImage(p["images"]), imageField(p["image"]), categoryImage(p))
	}

	for _, c := range candidates {
		if c != "" {
			return n.absolute(c)
		}
	}
	return Placeholder(p.String("title"))
}

func (n *Normalizer) isBroken(thumb string) bool {
	if thumb == "" {
		return false
	}
	for _, host := range n.brokenHosts {
		if host != "" && strings.Contains(thumb, host) {
			return true
		}
	}
	return false
}

// absolute prefixes the origin to relative paths with exactly one separator.
func (n *Normalizer) absolute(u string) string {
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return u
	}
	return n.origin + "/" + strings.TrimLeft(u, "/")
}

func firstImage(v any) string {
	switch images := v.(type) {
	case []any:
		for _, img := range images {
			if s := imageField(img); s != "" {
				return s
			}
		}
	case string:
		return strings.TrimSpace(images)
	}
	return ""
}

func imageField(v any) string {
	switch img := v.(type) {
	case string:
		return strings.TrimSpace(img)
	case map[string]any:
		for _, key := range []string{"url", "src"} {
			if s, ok := img[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func categoryImage(p model.Product) string {
	if cat, ok := p.Object("category"); ok {
		if s, ok := cat["image"].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Placeholder returns the generated placeholder image for title.
func Placeholder(title string) string {
	return placeholderBase + encodeURIComponent(withDefault(title, "Product"))
}

// encodeURIComponent escapes like the browser function of the same name:
// spaces become %20 and !'()* stay literal.
func encodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}

var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// ResolveCategory returns the category label and, for object categories, its id.
// An empty label counts as absent.
func ResolveCategory(p model.Product) (label, id string) {
	switch cat := p["category"].(type) {
	case string:
		if cat != "" {
			return cat, ""
		}
	case map[string]any:
		id = model.AsString(cat["id"])
		if id == "" {
			id = model.AsString(cat["_id"])
		}
		if name, ok := cat["name"].(string); ok && name != "" {
			return name, id
		}
		return DefaultCategory, id
	}
	return DefaultCategory, ""
}

// Stars decomposes a rating into full, half and empty stars.
// Input outside [0,5] is not clamped and yields a degenerate count.
func Stars(rating float64) model.StarRating {
	full := int(math.Floor(rating))
	half := math.Mod(rating, 1) >= 0.5
	empty := 5 - full
	if half {
		empty--
	}
	return model.StarRating{Full: full, Half: half, Empty: empty}
}

// ShortDescription truncates s to ShortDescriptionLength runes plus "...".
func ShortDescription(s string) string {
	if utf8.RuneCountInString(s) <= ShortDescriptionLength {
		return s
	}
	return string([]rune(s)[:ShortDescriptionLength]) + "..."
}

func withDefault(val, defaultVal string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	return defaultVal
}
