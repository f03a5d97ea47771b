// Package catalog serves normalized product listings, details, related
// products and filter options on top of the shop API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/normalize"
)

// Empty-state messages shown by the front doors.
const (
	MsgLoadFailed         = "Products could not be loaded. Please try again later."
	MsgSearchFailed       = "Search error. Please try again."
	MsgFilterFailed       = "Error applying filters. Please try again."
	MsgDetailFailed       = "Error loading product details. Please try again later."
	MsgNoProducts         = "No products found."
	MsgNoFilterMatch      = "No products match your filter criteria."
	MsgNoRelated          = "No related products found"
	MsgRelatedUnavailable = "Related products unavailable"
)

// DefaultRelatedLimit is how many related products Related returns.
const DefaultRelatedLimit = 4

// Listing is a page of normalized products. Message carries the empty-state
// text when Products is empty.
type Listing struct {
	Products []model.NormalizedProduct `json:"products"`
	Total    int                       `json:"total"`
	Message  string                    `json:"message,omitempty"`
}

// Query selects what Browse lists. Category wins over Brand; with neither
// every product is listed. Criteria is applied afterwards.
type Query struct {
	Category string
	Brand    string
	Criteria normalize.Criteria
}

// IsZero reports whether q selects the unfiltered catalog.
func (q Query) IsZero() bool {
	return q.Category == "" && q.Brand == "" && q.Criteria.IsZero()
}

// Filters holds the options of the category and brand filters.
type Filters struct {
	Categories []model.CategoryOption `json:"categories"`
	Brands     []string               `json:"brands"`
}

// Service reads the catalog.
type Service struct {
	catalog    adapter.Catalog
	normalizer *normalize.Normalizer
	page       adapter.PageOptions
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPageSize requests size products per listing. Zero keeps the server
// default.
func WithPageSize(size int) Option {
	return func(s *Service) {
		s.page.Size = size
	}
}

// New creates a catalog service.
func New(catalog adapter.Catalog, normalizer *normalize.Normalizer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		catalog:    catalog,
		normalizer: normalizer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// All lists every product.
func (s *Service) All(ctx context.Context) (*Listing, error) {
	page, err := s.catalog.AllProducts(ctx, s.page)
	if err != nil {
		return nil, s.failed(ctx, "list products", MsgLoadFailed, err)
	}
	return s.listing(page, MsgNoProducts), nil
}

// Search lists products matching q. A blank query lists everything.
func (s *Service) Search(ctx context.Context, q string) (*Listing, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.All(ctx)
	}

	page, err := s.catalog.SearchProducts(ctx, q, s.page)
	if err != nil {
		return nil, s.failed(ctx, "search products", MsgSearchFailed, err)
	}
	return s.listing(page, fmt.Sprintf("No products found matching %q", q)), nil
}

// ByCategory lists the products of one category.
func (s *Service) ByCategory(ctx context.Context, categoryID string) (*Listing, error) {
	if strings.TrimSpace(categoryID) == "" {
		return nil, model.NewRequiredFieldError("category")
	}
	page, err := s.catalog.ProductsByCategory(ctx, categoryID, s.page)
	if err != nil {
		return nil, s.failed(ctx, "list category", MsgLoadFailed, err)
	}
	return s.listing(page, MsgNoProducts), nil
}

// ByBrand lists the products of one brand.
func (s *Service) ByBrand(ctx context.Context, brand string) (*Listing, error) {
	if strings.TrimSpace(brand) == "" {
		return nil, model.NewRequiredFieldError("brand")
	}
	page, err := s.catalog.ProductsByBrand(ctx, brand, s.page)
	if err != nil {
		return nil, s.failed(ctx, "list brand", MsgLoadFailed, err)
	}
	return s.listing(page, MsgNoProducts), nil
}

// Browse lists products for q and filters them client-side.
func (s *Service) Browse(ctx context.Context, q Query) (*Listing, error) {
	var (
		page *adapter.ProductPage
		err  error
	)
	switch {
	case q.Category != "":
		page, err = s.catalog.ProductsByCategory(ctx, q.Category, s.page)
	case q.Brand != "":
		page, err = s.catalog.ProductsByBrand(ctx, q.Brand, s.page)
	default:
		page, err = s.catalog.AllProducts(ctx, s.page)
	}
	if err != nil {
		msg := MsgFilterFailed
		if q.IsZero() {
			msg = MsgLoadFailed
		}
		return nil, s.failed(ctx, "browse products", msg, err)
	}

	products := normalize.Filter(s.normalizer.NormalizeAll(page.Products), q.Criteria)
	out := &Listing{Products: products, Total: len(products)}
	if len(products) == 0 {
		out.Message = MsgNoProducts
		if len(page.Products) > 0 {
			out.Message = MsgNoFilterMatch
		}
	}
	return out, nil
}

// Product fetches one product by id without any fallback. It is used where
// the caller needs the exact record, such as filling in a cart line.
func (s *Service) Product(ctx context.Context, id string) (*model.NormalizedProduct, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewRequiredFieldError("productId")
	}
	p, err := s.catalog.Product(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || model.RemoteStatus(err) == http.StatusNotFound {
			return nil, model.NewNotFoundError("product")
		}
		return nil, s.failed(ctx, "get product", MsgDetailFailed, err)
	}
	np := s.normalizer.Normalize(p)
	return &np, nil
}

// CompleteLine fills the blanks of item from the product it names. The
// lookup happens only when the title or price is missing. A failed lookup is
// logged and item is returned as given.
func (s *Service) CompleteLine(ctx context.Context, item model.CartLineItem) model.CartLineItem {
	if item.ProductID == "" || (item.Title != "" && item.UnitPrice > 0) {
		return item
	}

	p, err := s.Product(ctx, item.ProductID)
	if err != nil {
		s.logger.WarnContext(ctx, "could not complete cart line from catalog",
			slog.String("product_id", item.ProductID),
			slog.String("error", err.Error()),
		)
		return item
	}
	if item.Title == "" {
		item.Title = p.Title
	}
	if item.UnitPrice <= 0 && p.Price.Available {
		item.UnitPrice = model.FlexFloat(p.Price.Amount)
	}
	if item.ImageURL == "" {
		item.ImageURL = p.ImageURL
	}
	return item
}

// Detail fetches one product. If the shop API answers the detail request
// with an error status, the first product of the full listing is shown
// instead. Transport failures are not retried that way.
func (s *Service) Detail(ctx context.Context, id string) (*model.NormalizedProduct, error) {
	p, err := s.catalog.Product(ctx, id)
	if err == nil {
		np := s.normalizer.Normalize(p)
		return &np, nil
	}
	if !fallsBack(err) {
		return nil, s.failed(ctx, "get product", MsgDetailFailed, err)
	}

	s.logger.WarnContext(ctx, "product not found, showing an alternative",
		slog.String("product_id", id),
		slog.Int("remote_status", model.RemoteStatus(err)),
	)

	page, err := s.catalog.AllProducts(ctx, adapter.PageOptions{Size: 1})
	if err != nil {
		return nil, s.failed(ctx, "get alternative product", MsgDetailFailed, err)
	}
	if len(page.Products) == 0 {
		return nil, model.NewNotFoundError("product")
	}
	np := s.normalizer.Normalize(page.Products[0])
	return &np, nil
}

// Related lists up to limit products of categoryID, falling back to the
// full listing when the category request is answered with an error status.
// A limit of 0 uses DefaultRelatedLimit.
func (s *Service) Related(ctx context.Context, categoryID string, limit int) (*Listing, error) {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	var (
		page *adapter.ProductPage
		err  error
	)
	if categoryID != "" {
		page, err = s.catalog.ProductsByCategory(ctx, categoryID, s.page)
	}
	if categoryID == "" || (err != nil && fallsBack(err)) {
		page, err = s.catalog.AllProducts(ctx, s.page)
	}
	if err != nil {
		return nil, s.failed(ctx, "list related products", MsgRelatedUnavailable, err)
	}

	raw := page.Products
	if len(raw) > limit {
		raw = raw[:limit]
	}
	products := s.normalizer.NormalizeAll(raw)
	out := &Listing{Products: products, Total: len(products)}
	if len(products) == 0 {
		out.Message = MsgNoRelated
	}
	return out, nil
}

// Filters derives the category and brand filter options from the full
// listing.
func (s *Service) Filters(ctx context.Context) (*Filters, error) {
	page, err := s.catalog.AllProducts(ctx, s.page)
	if err != nil {
		return nil, s.failed(ctx, "load filters", MsgLoadFailed, err)
	}
	return &Filters{
		Categories: normalize.CategoryOptions(page.Products),
		Brands:     normalize.Brands(page.Products),
	}, nil
}

func (s *Service) listing(page *adapter.ProductPage, empty string) *Listing {
	products := s.normalizer.NormalizeAll(page.Products)
	out := &Listing{Products: products, Total: len(products)}
	if page.Total > out.Total {
		out.Total = page.Total
	}
	if len(products) == 0 {
		out.Message = empty
	}
	return out
}

// failed logs err and wraps it in an error carrying the user-facing
// message. Validation and rate-limit errors pass through unchanged.
func (s *Service) failed(ctx context.Context, op, message string, err error) error {
	s.logger.ErrorContext(ctx, op+" failed",
		slog.Int("remote_status", model.RemoteStatus(err)),
		slog.String("error", err.Error()),
	)

	if errors.Is(err, model.ErrInvalidRequest) || errors.Is(err, model.ErrRateLimited) {
		return err
	}
	return &model.APIError{
		Code:         "REMOTE_REQUEST_FAILED",
		Message:      message,
		StatusCode:   http.StatusBadGateway,
		RemoteStatus: model.RemoteStatus(err),
		Err:          err,
	}
}

// fallsBack reports whether err is an answer from the shop API rather than
// a transport failure.
func fallsBack(err error) bool {
	if errors.Is(err, model.ErrNotFound) {
		return true
	}
	return model.RemoteStatus(err) != 0 && !errors.Is(err, model.ErrRateLimited)
}
