// Package adapter defines the interfaces between the storefront core and the
// external shop API. The everrest package implements them; tests use Mock.
package adapter

import (
	"context"
	"strings"

	"storefront/internal/model"
)

// Catalog issues read-only product queries.
type Catalog interface {
	// AllProducts lists every product, one page at a time.
	AllProducts(ctx context.Context, page PageOptions) (*ProductPage, error)

	// SearchProducts lists products matching a free-text query.
	SearchProducts(ctx context.Context, query string, page PageOptions) (*ProductPage, error)

	// ProductsByCategory lists products in one category, addressed by id.
	ProductsByCategory(ctx context.Context, categoryID string, page PageOptions) (*ProductPage, error)

	// ProductsByBrand lists products of one brand, addressed by name.
	ProductsByBrand(ctx context.Context, brand string, page PageOptions) (*ProductPage, error)

	// Product fetches one product by id.
	Product(ctx context.Context, id string) (model.Product, error)
}

// RemoteCart is the server-side cart of an authenticated user.
//
// FetchCart returns an empty cart, not an error, when token is empty or the
// server rejects it with 400/401. The mutations return an
// Authentication-Required error without a token and a Remote-Request-Failed
// error for any non-2xx answer.
type RemoteCart interface {
	FetchCart(ctx context.Context, token string) (model.Cart, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, token, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, token, productID string) error
}

// Auth exchanges credentials for a bearer token.
type Auth interface {
	SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error)

	// SignUp validates req before sending anything.
	SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error)

	// CurrentUser checks that token is still accepted.
	CurrentUser(ctx context.Context, token string) (*User, error)
}

// Backend is everything the shop API offers.
type Backend interface {
	Catalog
	RemoteCart
	Auth
}

// ProductPage is a page of a product listing.
type ProductPage struct {
	Total    int             `json:"total"`
	Limit    int             `json:"limit"`
	Page     int             `json:"page"`
	Skip     int             `json:"skip"`
	Products []model.Product `json:"products"`
}

// PageOptions selects a page of a listing. Zero values use server defaults.
type PageOptions struct {
	Index int
	Size  int
}

// SignInRequest contains sign-in credentials.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest contains the account to create.
// The first four fields are required; the rest are sent as "" when unset.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

// Validate checks required fields in order and names the first missing one.
func (r SignUpRequest) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"email", r.Email},
		{"password", r.Password},
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return model.NewRequiredFieldError(f.name)
		}
	}
	return nil
}

// User is an account record.
type User struct {
	ID        string `json:"_id,omitempty"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName picks name, then "first last", then email.
func (u User) DisplayName() string {
	if n := strings.TrimSpace(u.Name); n != "" {
		return n
	}
	if n := strings.TrimSpace(u.FirstName + " " + u.LastName); n != "" {
		return n
	}
	return u.Email
}

// AuthResponse is a successful sign-in or sign-up.
// Token is empty when the API created an account without signing in.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
