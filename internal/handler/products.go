package handler

import (
	"net/http"

	"storefront/internal/catalog"
	"storefront/internal/normalize"
)

// handleListProducts lists products, optionally narrowed by category or
// brand and filtered by price and rating.
// GET /products?category=&brand=&min_price=&max_price=&min_rating=
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	q := r.URL.Query()
	listing, err := h.catalog.Browse(r.Context(), catalog.Query{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Criteria: criteria,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// handleSearchProducts runs a free-text search. A blank query lists all.
// GET /products/search?q=
func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// GET /categories/{id}/products
func (h *Handler) handleCategoryProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.ByCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// GET /brands/{name}/products
func (h *Handler) handleBrandProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.ByBrand(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// handleGetProduct returns the product detail view. An unknown id is
// answered with an alternative product rather than 404.
// GET /products/{id}
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Detail(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

// handleRelatedProducts lists products from the same category. The category
// comes from ?category= or, when absent, from the product itself.
// GET /products/{id}/related?category=&limit=
func (h *Handler) handleRelatedProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, err)
		return
	}

	categoryID := r.URL.Query().Get("category")
	if categoryID == "" {
		p, err := h.catalog.Detail(r.Context(), r.PathValue("id"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		categoryID = p.CategoryID
	}

	listing, err := h.catalog.Related(r.Context(), categoryID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, listing)
}

// GET /filters
func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.catalog.Filters(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, filters)
}

func parseCriteria(r *http.Request) (normalize.Criteria, error) {
	var (
		c   normalize.Criteria
		err error
	)
	if c.MinPrice, err = queryFloat(r, "min_price"); err != nil {
		return c, err
	}
	if c.MaxPrice, err = queryFloat(r, "max_price"); err != nil {
		return c, err
	}
	if c.MinRating, err = queryFloat(r, "min_rating"); err != nil {
		return c, err
	}
	return c, nil
}
