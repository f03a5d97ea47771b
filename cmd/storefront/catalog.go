package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/debounce"
	"storefront/internal/export"
	"storefront/internal/model"
	"storefront/internal/normalize"
)

// optionalFloat is a float flag that records whether it was set.
type optionalFloat struct {
	v *float64
}

func (f *optionalFloat) String() string {
	if f.v == nil {
		return ""
	}
	return strconv.FormatFloat(*f.v, 'f', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New("must be a number")
	}
	f.v = &v
	return nil
}

// =============================================================================
// PRODUCTS COMMAND
// =============================================================================

func runProducts(args []string) {
	fs := newFlagSet("products", "products")
	var category, brand string
	var minPrice, maxPrice, minRating optionalFloat
	fs.StringVar(&category, "category", "", "Category id (wins over -brand)")
	fs.StringVar(&brand, "brand", "", "Brand name")
	fs.Var(&minPrice, "min-price", "Lowest display price")
	fs.Var(&maxPrice, "max-price", "Highest display price")
	fs.Var(&minRating, "min-rating", "Lowest rating, 0 to 5")
	ctx, a, done := start(fs, args)
	defer done()

	listing, err := a.Catalog.Browse(ctx, catalog.Query{
		Category: category,
		Brand:    brand,
		Criteria: normalize.Criteria{
			MinPrice:  minPrice.v,
			MaxPrice:  maxPrice.v,
			MinRating: minRating.v,
		},
	})
	if err != nil {
		fatalErr(err)
	}
	printListing(listing)
}

// =============================================================================
// SEARCH COMMAND
// =============================================================================

func runSearch(args []string) {
	fs := newFlagSet("search", "search [-i] [QUERY...]")
	var interactive bool
	fs.BoolVar(&interactive, "i", false, "Interactive - read one query per line and search as you type")
	ctx, a, done := start(fs, args)
	defer done()

	if !interactive {
		listing, err := a.Catalog.Search(ctx, strings.Join(fs.Args(), " "))
		if err != nil {
			fatalErr(err)
		}
		printListing(listing)
		return
	}

	printInfo("Type a query and press enter. Ctrl-D to quit.")
	var mu sync.Mutex
	err := searchLoop(os.Stdin, time.Duration(a.Config.Store.SearchDebounce), func(q string) {
		mu.Lock()
		defer mu.Unlock()
		listing, err := a.Catalog.Search(ctx, q)
		if err != nil {
			printError("%s", userMessage(err))
			return
		}
		if q != "" {
			fmt.Fprintf(out, "%s%s%s\n", colorBold, q, colorReset)
		}
		printListing(listing)
	})
	if err != nil {
		fatal("Failed to read queries: %v", err)
	}
}

// searchLoop reads one query per line from r and runs search for the
// latest query once input has been quiet for delay. When r is exhausted the
// pending query is run and searchLoop returns only after every search has
// finished.
func searchLoop(r io.Reader, delay time.Duration, search func(string)) error {
	d := debounce.New(delay, search)
	defer d.Stop()

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		d.Trigger(strings.TrimSpace(sc.Text()))
	}
	d.Flush()
	d.Wait()
	return sc.Err()
}

// =============================================================================
// PRODUCT / RELATED / FILTERS COMMANDS
// =============================================================================

func runProduct(args []string) {
	fs := newFlagSet("product", "product -id ID")
	var id string
	fs.StringVar(&id, "id", "", "Product id (required)")
	ctx, a, done := start(fs, args)
	defer done()

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	p, err := a.Catalog.Detail(ctx, id)
	if err != nil {
		fatalErr(err)
	}
	if p.ID != id {
		printWarning("Product %s was not found; showing %s instead", id, p.ID)
	}
	printProduct(p)
}

func runRelated(args []string) {
	fs := newFlagSet("related", "related -id ID")
	var id, category string
	var limit int
	fs.StringVar(&id, "id", "", "Product id (required unless -category is set)")
	fs.StringVar(&category, "category", "", "Category id (defaults to the product's category)")
	fs.IntVar(&limit, "limit", catalog.DefaultRelatedLimit, "Maximum number of products")
	ctx, a, done := start(fs, args)
	defer done()

	if category == "" {
		if id == "" {
			fs.Usage()
			os.Exit(1)
		}
		p, err := a.Catalog.Detail(ctx, id)
		if err != nil {
			fatalErr(err)
		}
		category = p.CategoryID
	}

	listing, err := a.Catalog.Related(ctx, category, limit)
	if err != nil {
		fatalErr(err)
	}
	printListing(listing)
}

func runFilters(args []string) {
	fs := newFlagSet("filters", "filters")
	ctx, a, done := start(fs, args)
	defer done()

	filters, err := a.Catalog.Filters(ctx)
	if err != nil {
		fatalErr(err)
	}
	if jsonOut {
		printJSON(filters)
		return
	}

	fmt.Fprintf(out, "%sCategories%s\n", colorBold, colorReset)
	for _, c := range filters.Categories {
		fmt.Fprintf(out, "  %s%-20s%s %s\n", colorGray, c.ID, colorReset, c.Name)
	}
	fmt.Fprintf(out, "%sBrands%s\n", colorBold, colorReset)
	for _, b := range filters.Brands {
		fmt.Fprintf(out, "  %s\n", b)
	}
}

// =============================================================================
// EXPORT COMMAND
// =============================================================================

func runExport(args []string) {
	fs := newFlagSet("export", "export -what products|cart -o FILE")
	var what, path string
	fs.StringVar(&what, "what", "products", "What to export: products or cart")
	fs.StringVar(&path, "o", "", "Output file (defaults to <what>.xlsx)")
	ctx, a, done := start(fs, args)
	defer done()

	if path == "" {
		path = what + ".xlsx"
	}

	var write func(io.Writer) error
	switch what {
	case "products":
		listing, err := a.Catalog.All(ctx)
		if err != nil {
			fatalErr(err)
		}
		write = func(w io.Writer) error { return export.Products(w, listing.Products) }
	case "cart":
		eff, summary := a.Cart.Summary(ctx)
		write = func(w io.Writer) error { return export.Cart(w, eff.Items, summary) }
	default:
		fs.Usage()
		os.Exit(1)
	}

	f, err := os.Create(path)
	if err != nil {
		fatal("Failed to create %s: %v", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		fatal("Failed to write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		fatal("Failed to write %s: %v", path, err)
	}

	if quiet {
		fmt.Fprintln(out, path)
		return
	}
	printSuccess("Exported %s to %s", what, path)
}

// =============================================================================
// RENDERING
// =============================================================================

func printListing(l *catalog.Listing) {
	if jsonOut {
		printJSON(l)
		return
	}
	if quiet {
		for _, p := range l.Products {
			fmt.Fprintln(out, p.ID)
		}
		return
	}
	if len(l.Products) == 0 {
		printInfo("%s", l.Message)
		return
	}

	for _, p := range l.Products {
		sale := ""
		if p.OnSale() {
			sale = fmt.Sprintf(" %s-%.0f%%%s", colorGreen, p.DiscountPercentage, colorReset)
		}
		fmt.Fprintf(out, "%s%-24s%s %-40s %10s %s %s%s%s%s\n",
			colorGray, p.ID, colorReset,
			truncate(p.Title, 40),
			formatPrice(p.Price),
			stars(p.Stars),
			colorBlue, p.Brand, colorReset,
			sale,
		)
	}
	printInfo("%d of %d product(s)", len(l.Products), l.Total)
}

func printProduct(p *model.NormalizedProduct) {
	if jsonOut {
		printJSON(p)
		return
	}
	if quiet {
		fmt.Fprintln(out, p.ID)
		return
	}

	fmt.Fprintf(out, "%s%s%s\n", colorBold, p.Title, colorReset)
	fmt.Fprintf(out, "  ID:       %s%s%s\n", colorCyan, p.ID, colorReset)
	price := formatPrice(p.Price)
	if p.OnSale() {
		price += fmt.Sprintf(" %s(was %s, -%.0f%%)%s", colorGray, formatMoney(p.BeforeDiscount), p.DiscountPercentage, colorReset)
	}
	fmt.Fprintf(out, "  Price:    %s\n", price)
	fmt.Fprintf(out, "  Rating:   %s %.1f\n", stars(p.Stars), p.Rating)
	fmt.Fprintf(out, "  Category: %s\n", p.Category)
	fmt.Fprintf(out, "  Brand:    %s\n", p.Brand)
	if p.Stock > 0 {
		fmt.Fprintf(out, "  Stock:    %d\n", p.Stock)
	} else {
		fmt.Fprintf(out, "  Stock:    %sout of stock%s\n", colorYellow, colorReset)
	}
	if p.ImageURL != "" {
		fmt.Fprintf(out, "  Image:    %s%s%s\n", colorGray, p.ImageURL, colorReset)
	}
	if p.Description != "" {
		fmt.Fprintf(out, "\n%s\n", p.Description)
	}
}

// stars renders a rating as five star glyphs. Counts outside the scale are
// clipped.
func stars(s model.StarRating) string {
	full := min(max(s.Full, 0), 5)
	var b strings.Builder
	b.WriteString(strings.Repeat("★", full))
	if s.Half && full < 5 {
		b.WriteString("⯪")
		full++
	}
	b.WriteString(strings.Repeat("☆", min(max(s.Empty, 0), 5-full)))
	return b.String()
}

func formatPrice(p model.Price) string {
	if !p.Available {
		return p.String()
	}
	return formatMoney(p.Amount)
}

func formatMoney(f float64) string {
	return model.FormatCents(model.ToCents(f))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
