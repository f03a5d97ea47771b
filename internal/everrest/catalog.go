package everrest

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// AllProducts fetches GET /shop/products/all.
func (c *Client) AllProducts(ctx context.Context, page adapter.PageOptions) (*adapter.ProductPage, error) {
	return c.listProducts(ctx, "/products/all", page, nil)
}

// SearchProducts fetches GET /shop/products/search?q=.
func (c *Client) SearchProducts(ctx context.Context, query string, page adapter.PageOptions) (*adapter.ProductPage, error) {
	return c.listProducts(ctx, "/products/search", page, url.Values{"q": {query}})
}

// ProductsByCategory fetches GET /shop/products/category/{id}.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID string, page adapter.PageOptions) (*adapter.ProductPage, error) {
	return c.listProducts(ctx, "/products/category/"+url.PathEscape(categoryID), page, nil)
}

// ProductsByBrand fetches GET /shop/products/brand/{name}.
func (c *Client) ProductsByBrand(ctx context.Context, brand string, page adapter.PageOptions) (*adapter.ProductPage, error) {
	return c.listProducts(ctx, "/products/brand/"+url.PathEscape(brand), page, nil)
}

// Product fetches GET /shop/products/{id}.
func (c *Client) Product(ctx context.Context, id string) (model.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewRequiredFieldError("id")
	}
	var p model.Product
	if err := c.do(ctx, http.MethodGet, shopPath+"/products/"+url.PathEscape(id), nil, "", &p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.NewNotFoundError("product")
	}
	return p, nil
}

func (c *Client) listProducts(ctx context.Context, path string, page adapter.PageOptions, query url.Values) (*adapter.ProductPage, error) {
	if query == nil {
		query = url.Values{}
	}
	if page.Index > 0 {
		query.Set("page_index", strconv.Itoa(page.Index))
	}
	if page.Size > 0 {
		query.Set("page_size", strconv.Itoa(page.Size))
	}

	full := shopPath + path
	if encoded := query.Encode(); encoded != "" {
		full += "?" + encoded
	}

	var out adapter.ProductPage
	if err := c.do(ctx, http.MethodGet, full, nil, "", &out); err != nil {
		return nil, err
	}
	if out.Products == nil {
		out.Products = []model.Product{}
	}
	return &out, nil
}
