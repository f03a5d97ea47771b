package everrest

import (
	"context"
	"net/http"
	"net/url"

	"storefront/internal/model"
)

// cartWire is the remote cart body. Lines arrive under "items" or "products".
type cartWire struct {
	Items    []map[string]any `json:"items"`
	Products []map[string]any `json:"products"`
}

// FetchCart fetches GET /shop/cart.
// No token, or a 400/401 answer, means there is no remote cart: an empty
// cart is returned without error.
func (c *Client) FetchCart(ctx context.Context, token string) (model.Cart, error) {
	if token == "" {
		return model.Cart{}, nil
	}

	var wire cartWire
	err := c.do(ctx, http.MethodGet, shopPath+"/cart", nil, token, &wire)
	if isStatus(err, http.StatusBadRequest, http.StatusUnauthorized) {
		return model.Cart{}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := wire.Items
	if len(lines) == 0 {
		lines = wire.Products
	}

	cart := make(model.Cart, 0, len(lines))
	for _, line := range lines {
		cart = append(cart, lineFromWire(line))
	}
	return cart, nil
}

// AddToCart calls POST /shop/cart/product.
func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	if token == "" {
		return model.NewAuthRequiredError("sign in to use the remote cart")
	}
	return c.do(ctx, http.MethodPost, shopPath+"/cart/product", CartLineRequest{ProductID: productID, Quantity: quantity}, token, nil)
}

// UpdateCartItem calls PUT /shop/cart/product.
func (c *Client) UpdateCartItem(ctx context.Context, token, productID string, quantity int) error {
	if token == "" {
		return model.NewAuthRequiredError("sign in to use the remote cart")
	}
	return c.do(ctx, http.MethodPut, shopPath+"/cart/product", CartLineRequest{ProductID: productID, Quantity: quantity}, token, nil)
}

// RemoveFromCart calls DELETE /shop/cart/product/{id}.
func (c *Client) RemoveFromCart(ctx context.Context, token, productID string) error {
	if token == "" {
		return model.NewAuthRequiredError("sign in to use the remote cart")
	}
	return c.do(ctx, http.MethodDelete, shopPath+"/cart/product/"+url.PathEscape(productID), nil, token, nil)
}

func lineFromWire(line map[string]any) model.CartLineItem {
	item := model.CartLineItem{
		ProductID: firstString(line, "productId", "id", "_id"),
		Title:     firstString(line, "title", "name"),
		ImageURL:  firstString(line, "image", "thumbnail"),
	}
	for _, key := range []string{"price", "pricePerQuantity"} {
		if v, ok := model.AsNumber(line[key]); ok {
			item.UnitPrice = model.FlexFloat(v)
			break
		}
	}
	if q, ok := model.AsNumber(line["quantity"]); ok {
		item.Quantity = int(q)
	}
	return item
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := model.AsString(m[k]); s != "" {
			return s
		}
	}
	return ""
}
