package adapter

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Backend for testing.
// Each method can be configured via function fields.
type Mock struct {
	AllProductsFunc        func(ctx context.Context, page PageOptions) (*ProductPage, error)
	SearchProductsFunc     func(ctx context.Context, query string, page PageOptions) (*ProductPage, error)
	ProductsByCategoryFunc func(ctx context.Context, categoryID string, page PageOptions) (*ProductPage, error)
	ProductsByBrandFunc    func(ctx context.Context, brand string, page PageOptions) (*ProductPage, error)
	ProductFunc            func(ctx context.Context, id string) (model.Product, error)

	FetchCartFunc      func(ctx context.Context, token string) (model.Cart, error)
	AddToCartFunc      func(ctx context.Context, token, productID string, quantity int) error
	UpdateCartItemFunc func(ctx context.Context, token, productID string, quantity int) error
	RemoveFromCartFunc func(ctx context.Context, token, productID string) error

	SignInFunc      func(ctx context.Context, req SignInRequest) (*AuthResponse, error)
	SignUpFunc      func(ctx context.Context, req SignUpRequest) (*AuthResponse, error)
	CurrentUserFunc func(ctx context.Context, token string) (*User, error)
}

// AllProducts calls the configured AllProductsFunc or returns an empty page.
func (m *Mock) AllProducts(ctx context.Context, page PageOptions) (*ProductPage, error) {
	if m.AllProductsFunc != nil {
		return m.AllProductsFunc(ctx, page)
	}
	return &ProductPage{Products: []model.Product{}}, nil
}

// SearchProducts calls the configured SearchProductsFunc or returns an empty page.
func (m *Mock) SearchProducts(ctx context.Context, query string, page PageOptions) (*ProductPage, error) {
	if m.SearchProductsFunc != nil {
		return m.SearchProductsFunc(ctx, query, page)
	}
	return &ProductPage{Products: []model.Product{}}, nil
}

// ProductsByCategory calls the configured ProductsByCategoryFunc or returns an empty page.
func (m *Mock) ProductsByCategory(ctx context.Context, categoryID string, page PageOptions) (*ProductPage, error) {
	if m.ProductsByCategoryFunc != nil {
		return m.ProductsByCategoryFunc(ctx, categoryID, page)
	}
	return &ProductPage{Products: []model.Product{}}, nil
}

// ProductsByBrand calls the configured ProductsByBrandFunc or returns an empty page.
func (m *Mock) ProductsByBrand(ctx context.Context, brand string, page PageOptions) (*ProductPage, error) {
	if m.ProductsByBrandFunc != nil {
		return m.ProductsByBrandFunc(ctx, brand, page)
	}
	return &ProductPage{Products: []model.Product{}}, nil
}

// Product calls the configured ProductFunc or returns a not-found error.
func (m *Mock) Product(ctx context.Context, id string) (model.Product, error) {
	if m.ProductFunc != nil {
		return m.ProductFunc(ctx, id)
	}
	return nil, model.NewNotFoundError("product")
}

// FetchCart calls the configured FetchCartFunc or returns an empty cart.
func (m *Mock) FetchCart(ctx context.Context, token string) (model.Cart, error) {
	if m.FetchCartFunc != nil {
		return m.FetchCartFunc(ctx, token)
	}
	return model.Cart{}, nil
}

// AddToCart calls the configured AddToCartFunc or succeeds.
func (m *Mock) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, token, productID, quantity)
	}
	return nil
}

// UpdateCartItem calls the configured UpdateCartItemFunc or succeeds.
func (m *Mock) UpdateCartItem(ctx context.Context, token, productID string, quantity int) error {
	if m.UpdateCartItemFunc != nil {
		return m.UpdateCartItemFunc(ctx, token, productID, quantity)
	}
	return nil
}

// RemoveFromCart calls the configured RemoveFromCartFunc or succeeds.
func (m *Mock) RemoveFromCart(ctx context.Context, token, productID string) error {
	if m.RemoveFromCartFunc != nil {
		return m.RemoveFromCartFunc(ctx, token, productID)
	}
	return nil
}

// SignIn calls the configured SignInFunc or returns an auth error.
func (m *Mock) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, req)
	}
	return nil, model.NewRemoteError(401, "invalid credentials")
}

// SignUp validates req, then calls the configured SignUpFunc or returns an error.
func (m *Mock) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, req)
	}
	return nil, model.NewInternalError(nil)
}

// CurrentUser calls the configured CurrentUserFunc or returns an auth error.
func (m *Mock) CurrentUser(ctx context.Context, token string) (*User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, token)
	}
	return nil, model.NewRemoteError(401, "invalid token")
}

// Ensure Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)
