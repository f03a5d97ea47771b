package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/export"
	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// addItemRequest is the body of POST /cart/items. Title, price and image
// are snapshots; missing ones are filled in from the catalog.
type addItemRequest struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title,omitempty"`
	Price     model.FlexFloat `json:"price,omitempty"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity,omitempty"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// cartMutationResponse answers every cart mutation.
type cartMutationResponse struct {
	Outcome reconcile.Outcome `json:"outcome"`
	Badge   model.Badge       `json:"badge"`
	Message string            `json:"message"`
	Warning string            `json:"warning,omitempty"`
}

type cartSummaryResponse struct {
	Source  model.CartSource  `json:"source"`
	Items   model.Cart        `json:"items"`
	Summary model.CartSummary `json:"summary"`
}

type checkoutResponse struct {
	Error   errorBody         `json:"error"`
	Summary model.CartSummary `json:"summary"`
}

// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cart.EffectiveCart(r.Context()))
}

// GET /cart/count
func (h *Handler) handleCartCount(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.cart.Badge(r.Context()))
}

// GET /cart/summary
func (h *Handler) handleCartSummary(w http.ResponseWriter, r *http.Request) {
	eff, summary := h.cart.Summary(r.Context())
	h.writeJSON(w, http.StatusOK, cartSummaryResponse{
		Source:  eff.Source,
		Items:   eff.Items,
		Summary: summary,
	})
}

// handleCartDivergence reports how the local mirror differs from the
// remote cart.
// GET /cart/divergence
func (h *Handler) handleCartDivergence(w http.ResponseWriter, r *http.Request) {
	d, err := h.cart.Divergence(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, d)
}

// POST /cart/items
func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	item := h.lineItemFor(r.Context(), req)
	res, err := h.cart.Add(r.Context(), item, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeMutation(w, r, res, reconcile.AddedMessage(req.Quantity))
}

// PUT /cart/items/{id}
func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	res, err := h.cart.Update(r.Context(), r.PathValue("id"), req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeMutation(w, r, res, reconcile.MsgUpdated)
}

// DELETE /cart/items/{id}
func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	res, err := h.cart.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeMutation(w, r, res, reconcile.MsgRemoved)
}

// handleClearCart empties the local cart. The remote cart is not touched.
// DELETE /cart
func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.ClearLocal(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeMutation(w, r, reconcile.Result{Outcome: reconcile.OutcomeLocal}, reconcile.MsgCleared)
}

// handleCheckout is a placeholder. It answers 501 with the summary the
// order would have been placed with.
// POST /checkout
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	summary, err := h.cart.Checkout(r.Context())
	if err == nil {
		h.writeJSON(w, http.StatusOK, summary)
		return
	}
	h.writeJSON(w, h.statusOf(w, err), checkoutResponse{
		Error:   h.errorBodyOf(err),
		Summary: summary,
	})
}

// GET /export/cart
func (h *Handler) handleExportCart(w http.ResponseWriter, r *http.Request) {
	eff, summary := h.cart.Summary(r.Context())
	writeWorkbook(w, "cart.xlsx", func(w http.ResponseWriter) error {
		return export.Cart(w, eff.Items, summary)
	}, h.logger)
}

// GET /export/products
func (h *Handler) handleExportProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.All(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeWorkbook(w, "products.xlsx", func(w http.ResponseWriter) error {
		return export.Products(w, listing.Products)
	}, h.logger)
}

func (h *Handler) writeMutation(w http.ResponseWriter, r *http.Request, res reconcile.Result, msg string) {
	h.writeJSON(w, http.StatusOK, h.mutation(r.Context(), res, msg))
}

// lineItemFor builds the cart line for req, completed from the catalog.
func (h *Handler) lineItemFor(ctx context.Context, req addItemRequest) model.CartLineItem {
	return h.catalog.CompleteLine(ctx, model.CartLineItem{
		ProductID: strings.TrimSpace(req.ProductID),
		Title:     req.Title,
		UnitPrice: req.Price,
		ImageURL:  req.Image,
	})
}

func writeWorkbook(w http.ResponseWriter, filename string, write func(http.ResponseWriter) error, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := write(w); err != nil {
		logger.Error("failed to write workbook",
			slog.String("file", filename),
			slog.String("error", err.Error()),
		)
	}
}
