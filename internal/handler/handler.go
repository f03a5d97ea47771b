// Package handler provides the HTTP handlers of the storefront daemon.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"storefront/internal/catalog"
	"storefront/internal/model"
	"storefront/internal/reconcile"
	"storefront/internal/session"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	catalog  *catalog.Service
	cart     *reconcile.Service
	sessions *session.Manager
	logger   *slog.Logger
}

// New creates a Handler over the catalog, cart and session services.
func New(catalog *catalog.Service, cart *reconcile.Service, sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		cart:     cart,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Catalog
	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("GET /products/search", h.handleSearchProducts)
	mux.HandleFunc("GET /products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /products/{id}/related", h.handleRelatedProducts)
	mux.HandleFunc("GET /categories/{id}/products", h.handleCategoryProducts)
	mux.HandleFunc("GET /brands/{name}/products", h.handleBrandProducts)
	mux.HandleFunc("GET /filters", h.handleFilters)

	// Cart
	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("GET /cart/count", h.handleCartCount)
	mux.HandleFunc("GET /cart/summary", h.handleCartSummary)
	mux.HandleFunc("GET /cart/divergence", h.handleCartDivergence)
	mux.HandleFunc("POST /cart/items", h.handleAddToCart)
	mux.HandleFunc("PUT /cart/items/{id}", h.handleUpdateCartItem)
	mux.HandleFunc("DELETE /cart/items/{id}", h.handleRemoveFromCart)
	mux.HandleFunc("DELETE /cart", h.handleClearCart)
	mux.HandleFunc("POST /checkout", h.handleCheckout)

	// Spreadsheet export
	mux.HandleFunc("GET /export/products", h.handleExportProducts)
	mux.HandleFunc("GET /export/cart", h.handleExportCart)

	// Session
	mux.HandleFunc("POST /auth/sign-in", h.handleSignIn)
	mux.HandleFunc("POST /auth/sign-up", h.handleSignUp)
	mux.HandleFunc("POST /auth/sign-out", h.handleSignOut)
	mux.HandleFunc("GET /auth/session", h.handleSession)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	h.writeJSON(w, h.statusOf(w, err), errorResponse{Error: h.errorBodyOf(err)})
}

// statusOf returns the HTTP status for err and sets Retry-After when the
// shop API asked us to back off.
func (h *Handler) statusOf(w http.ResponseWriter, err error) int {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	if apiErr.RetryAfter > 0 {
		secs := int(math.Ceil(apiErr.RetryAfter.Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	return apiErr.StatusCode
}

func (h *Handler) errorBodyOf(err error) errorBody {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return errorBody{Code: apiErr.Code, Message: apiErr.Message, Field: apiErr.Field}
	}

	// Wrap unexpected errors
	h.logger.Error("internal error", slog.String("error", err.Error()))
	return errorBody{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(r *http.Request, v interface{}) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(nil, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// queryFloat parses an optional numeric query parameter.
func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, model.NewValidationError(name, "must be a number")
	}
	return &v, nil
}

// queryInt parses an optional positive integer query parameter; 0 when absent.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, model.NewValidationError(name, "must be a non-negative integer")
	}
	return v, nil
}
