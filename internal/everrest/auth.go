package everrest

import (
	"context"
	"net/http"
	"strings"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// SignIn calls POST /auth/sign_in.
func (c *Client) SignIn(ctx context.Context, req adapter.SignInRequest) (*adapter.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" {
		return nil, model.NewRequiredFieldError("email")
	}
	if req.Password == "" {
		return nil, model.NewRequiredFieldError("password")
	}

	var wire authWire
	if err := c.do(ctx, http.MethodPost, "/auth/sign_in", req, "", &wire); err != nil {
		return nil, err
	}
	return wire.response(), nil
}

// SignUp validates req and calls POST /auth/sign_up. Validation failures
// are returned before any request is sent.
func (c *Client) SignUp(ctx context.Context, req adapter.SignUpRequest) (*adapter.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var wire authWire
	if err := c.do(ctx, http.MethodPost, "/auth/sign_up", req, "", &wire); err != nil {
		return nil, err
	}
	return wire.response(), nil
}

// CurrentUser calls GET /auth to check that token is still accepted.
func (c *Client) CurrentUser(ctx context.Context, token string) (*adapter.User, error) {
	if token == "" {
		return nil, model.NewAuthRequiredError("no session token")
	}
	var user adapter.User
	if err := c.do(ctx, http.MethodGet, "/auth", nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
