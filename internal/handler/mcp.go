// MCP transport for the storefront daemon using the official MCP Go SDK.
// Exposes catalog browsing and cart operations as MCP tools.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/catalog"
	"storefront/internal/model"
	"storefront/internal/normalize"
	"storefront/internal/reconcile"
)

// === MCP Tool Input/Output Types ===

// ListProductsInput is the input schema for list_products tool.
type ListProductsInput struct {
	Category  string   `json:"category,omitempty" jsonschema:"category id; wins over brand"`
	Brand     string   `json:"brand,omitempty" jsonschema:"brand name"`
	MinPrice  *float64 `json:"min_price,omitempty" jsonschema:"lowest display price"`
	MaxPrice  *float64 `json:"max_price,omitempty" jsonschema:"highest display price"`
	MinRating *float64 `json:"min_rating,omitempty" jsonschema:"lowest rating, 0 to 5"`
}

// SearchProductsInput is the input schema for search_products tool.
type SearchProductsInput struct {
	Query string `json:"query" jsonschema:"free-text query; blank lists every product"`
}

// ProductInput addresses one product.
type ProductInput struct {
	ID string `json:"id" jsonschema:"product id"`
}

// RelatedInput is the input schema for get_related tool.
type RelatedInput struct {
	ID       string `json:"id" jsonschema:"product id"`
	Category string `json:"category,omitempty" jsonschema:"category id; defaults to the product's category"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of products, default 4"`
}

// AddToCartInput is the input schema for add_to_cart tool.
type AddToCartInput struct {
	ProductID string  `json:"product_id" jsonschema:"product id"`
	Quantity  int     `json:"quantity,omitempty" jsonschema:"units to add, at least 1"`
	Title     string  `json:"title,omitempty" jsonschema:"title snapshot; looked up when empty"`
	Price     float64 `json:"price,omitempty" jsonschema:"unit price snapshot; looked up when empty"`
	Image     string  `json:"image,omitempty" jsonschema:"image URL snapshot"`
}

// UpdateCartItemInput is the input schema for update_cart_item tool.
type UpdateCartItemInput struct {
	ProductID string `json:"product_id" jsonschema:"product id"`
	Quantity  int    `json:"quantity" jsonschema:"new quantity; values below 1 become 1"`
}

// RemoveFromCartInput is the input schema for remove_from_cart tool.
type RemoveFromCartInput struct {
	ProductID string `json:"product_id" jsonschema:"product id"`
}

// EmptyInput is used by tools without arguments.
type EmptyInput struct{}

// SessionOutput is the output of session_status tool.
type SessionOutput struct {
	Authenticated bool   `json:"authenticated"`
	Name          string `json:"name,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
	Expired       bool   `json:"expired,omitempty"`
}

// NewMCPServer creates an MCP server with catalog and cart tools registered.
// The server exposes the same operations as the REST API but via MCP protocol.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront - browse the product catalog and manage the shopping cart. " +
				"Cart changes are kept on the shop when signed in and on this device otherwise.",
		},
	)

	// Catalog tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List products, optionally by category or brand, filtered by price and rating.",
	}, h.mcpListProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search products by free text.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get the detail view of one product. Unknown ids return an alternative product.",
	}, h.mcpGetProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_related",
		Description: "List products from the same category as a product.",
	}, h.mcpGetRelated)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_filters",
		Description: "List the category and brand filter options.",
	}, h.mcpListFilters)

	// Cart tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the current cart and whether it came from the shop or this device.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cart_count",
		Description: "Get the cart badge: total units and whether the badge is shown.",
	}, h.mcpCartCount)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cart_summary",
		Description: "Get the cart with subtotal, shipping, tax and total.",
	}, h.mcpCartSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart. Adding a product already in the cart increases its quantity.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_item",
		Description: "Set the quantity of a cart line.",
	}, h.mcpUpdateCartItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_from_cart",
		Description: "Remove a product from the cart.",
	}, h.mcpRemoveFromCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkout",
		Description: "Place the order. Not available yet; reports the order summary.",
	}, h.mcpCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "session_status",
		Description: "Report whether a user is signed in.",
	}, h.mcpSessionStatus)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListProducts(ctx context.Context, req *mcp.CallToolRequest, input ListProductsInput) (*mcp.CallToolResult, *catalog.Listing, error) {
	listing, err := h.catalog.Browse(ctx, catalog.Query{
		Category: input.Category,
		Brand:    input.Brand,
		Criteria: normalize.Criteria{
			MinPrice:  input.MinPrice,
			MaxPrice:  input.MaxPrice,
			MinRating: input.MinRating,
		},
	})
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, listing, nil
}

func (h *Handler) mcpSearchProducts(ctx context.Context, req *mcp.CallToolRequest, input SearchProductsInput) (*mcp.CallToolResult, *catalog.Listing, error) {
	listing, err := h.catalog.Search(ctx, input.Query)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, listing, nil
}

func (h *Handler) mcpGetProduct(ctx context.Context, req *mcp.CallToolRequest, input ProductInput) (*mcp.CallToolResult, *model.NormalizedProduct, error) {
	if input.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	p, err := h.catalog.Detail(ctx, input.ID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, p, nil
}

func (h *Handler) mcpGetRelated(ctx context.Context, req *mcp.CallToolRequest, input RelatedInput) (*mcp.CallToolResult, *catalog.Listing, error) {
	categoryID := input.Category
	if categoryID == "" {
		if input.ID == "" {
			return nil, nil, fmt.Errorf("id or category is required")
		}
		p, err := h.catalog.Detail(ctx, input.ID)
		if err != nil {
			return nil, nil, h.mcpError(err)
		}
		categoryID = p.CategoryID
	}

	listing, err := h.catalog.Related(ctx, categoryID, input.Limit)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, listing, nil
}

func (h *Handler) mcpListFilters(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *catalog.Filters, error) {
	filters, err := h.catalog.Filters(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, filters, nil
}

func (h *Handler) mcpGetCart(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *model.EffectiveCart, error) {
	eff := h.cart.EffectiveCart(ctx)
	return nil, &eff, nil
}

func (h *Handler) mcpCartCount(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *model.Badge, error) {
	badge := h.cart.Badge(ctx)
	return nil, &badge, nil
}

func (h *Handler) mcpCartSummary(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *cartSummaryResponse, error) {
	eff, summary := h.cart.Summary(ctx)
	return nil, &cartSummaryResponse{Source: eff.Source, Items: eff.Items, Summary: summary}, nil
}

func (h *Handler) mcpAddToCart(ctx context.Context, req *mcp.CallToolRequest, input AddToCartInput) (*mcp.CallToolResult, *cartMutationResponse, error) {
	item := h.lineItemFor(ctx, addItemRequest{
		ProductID: input.ProductID,
		Title:     input.Title,
		Price:     model.FlexFloat(input.Price),
		Image:     input.Image,
	})
	res, err := h.cart.Add(ctx, item, input.Quantity)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, h.mutation(ctx, res, reconcile.AddedMessage(input.Quantity)), nil
}

func (h *Handler) mcpUpdateCartItem(ctx context.Context, req *mcp.CallToolRequest, input UpdateCartItemInput) (*mcp.CallToolResult, *cartMutationResponse, error) {
	res, err := h.cart.Update(ctx, input.ProductID, input.Quantity)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, h.mutation(ctx, res, reconcile.MsgUpdated), nil
}

func (h *Handler) mcpRemoveFromCart(ctx context.Context, req *mcp.CallToolRequest, input RemoveFromCartInput) (*mcp.CallToolResult, *cartMutationResponse, error) {
	res, err := h.cart.Remove(ctx, input.ProductID)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, h.mutation(ctx, res, reconcile.MsgRemoved), nil
}

func (h *Handler) mcpCheckout(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *model.CartSummary, error) {
	summary, err := h.cart.Checkout(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &summary, nil
}

func (h *Handler) mcpSessionStatus(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, *SessionOutput, error) {
	st := h.sessions.Status(ctx)
	out := &SessionOutput{
		Authenticated: st.Authenticated,
		Name:          st.Name,
		Expired:       st.Expired,
	}
	if st.ExpiresAt != nil {
		out.ExpiresAt = st.ExpiresAt.Format(time.RFC3339)
	}
	return nil, out, nil
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", slog.String("error", err.Error()))
	return fmt.Errorf("internal error")
}

func (h *Handler) mutation(ctx context.Context, res reconcile.Result, msg string) *cartMutationResponse {
	resp := &cartMutationResponse{
		Outcome: res.Outcome,
		Badge:   h.cart.Badge(ctx),
		Message: msg,
	}
	if res.Outcome == reconcile.OutcomeDegraded {
		resp.Warning = reconcile.MsgSavedLocally
	}
	return resp
}
