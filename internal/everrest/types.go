package everrest

import "storefront/internal/adapter"

// CartLineRequest is the body of cart add and update calls.
type CartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// authWire accepts both token spellings the API has used.
type authWire struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"access_token"`
	User        adapter.User `json:"user"`
}

func (w authWire) response() *adapter.AuthResponse {
	token := w.Token
	if token == "" {
		token = w.AccessToken
	}
	return &adapter.AuthResponse{Token: token, User: w.User}
}
