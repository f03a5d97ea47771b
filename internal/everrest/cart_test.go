package everrest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/model"
)

func TestFetchCartWithoutTokenIsEmpty(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without a token")
	})

	cart, err := c.FetchCart(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, cart)
	assert.Empty(t, cart)
}

func TestFetchCartAuthFailuresAreEmpty(t *testing.T) {
	for _, status := range []int{400, 401} {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]any{"error": "no cart"})
		})

		cart, err := c.FetchCart(context.Background(), "tok")
		require.NoError(t, err, "status %d", status)
		assert.Empty(t, cart, "status %d", status)
	}
}

func TestFetchCartServerErrorSurfaces(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 503, map[string]any{})
	})

	_, err := c.FetchCart(context.Background(), "tok")
	assert.True(t, errors.Is(err, model.ErrRemoteRequestFailed))
}

func TestFetchCartItems(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shop/cart", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{
			"items": []map[string]any{
				{"productId": "p1", "title": "Shirt", "price": 20, "quantity": 2, "image": "a.png"},
				{"id": "p2", "price": "5.5", "quantity": 1},
			},
		})
	})

	cart, err := c.FetchCart(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, model.Cart{
		{ProductID: "p1", Title: "Shirt", UnitPrice: 20, Quantity: 2, ImageURL: "a.png"},
		{ProductID: "p2", UnitPrice: 5.5, Quantity: 1},
	}, cart)
}

func TestFetchCartProductsShape(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"products": []map[string]any{
				{"productId": "p9", "pricePerQuantity": 12, "quantity": 3},
			},
		})
	})

	cart, err := c.FetchCart(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, "p9", cart[0].ProductID)
	assert.Equal(t, model.FlexFloat(12), cart[0].UnitPrice)
	assert.Equal(t, 3, cart[0].Quantity)
}

func TestCartMutations(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *Client, token string) error
		wantMethod string
		wantPath   string
		wantBody   *CartLineRequest
	}{
		{
			name:       "add",
			call:       func(c *Client, tok string) error { return c.AddToCart(context.Background(), tok, "p1", 2) },
			wantMethod: http.MethodPost,
			wantPath:   "/shop/cart/product",
			wantBody:   &CartLineRequest{ProductID: "p1", Quantity: 2},
		},
		{
			name:       "update",
			call:       func(c *Client, tok string) error { return c.UpdateCartItem(context.Background(), tok, "p1", 5) },
			wantMethod: http.MethodPut,
			wantPath:   "/shop/cart/product",
			wantBody:   &CartLineRequest{ProductID: "p1", Quantity: 5},
		},
		{
			name:       "remove",
			call:       func(c *Client, tok string) error { return c.RemoveFromCart(context.Background(), tok, "p1") },
			wantMethod: http.MethodDelete,
			wantPath:   "/shop/cart/product/p1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantMethod, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				if tt.wantBody != nil {
					var got CartLineRequest
					require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
					assert.Equal(t, *tt.wantBody, got)
				}
				writeJSON(w, 200, map[string]any{"ok": true})
			})

			require.NoError(t, tt.call(c, "tok"))
		})

		t.Run(tt.name+" without token", func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request expected without a token")
			})

			err := tt.call(c, "")
			assert.True(t, errors.Is(err, model.ErrAuthRequired))
		})
	}
}

func TestCartMutationNon2xx(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 404, map[string]any{"error": "product not found"})
	})

	err := c.UpdateCartItem(context.Background(), "tok", "p1", 1)

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, errors.Is(err, model.ErrRemoteRequestFailed))
	assert.Equal(t, 404, apiErr.RemoteStatus)
	assert.Equal(t, "product not found", apiErr.Message)
}
