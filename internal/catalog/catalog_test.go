package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/normalize"
)

func newTestService(m *adapter.Mock, opts ...Option) *Service {
	n := normalize.New(normalize.Options{Origin: "https://api.example.test"})
	return New(m, n, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func page(products ...model.Product) *adapter.ProductPage {
	return &adapter.ProductPage{Total: len(products), Products: products}
}

func product(id, title string, price, rating float64) model.Product {
	return model.Product{
		"_id":    id,
		"title":  title,
		"price":  map[string]any{"current": price},
		"rating": rating,
	}
}

func TestAll(t *testing.T) {
	m := &adapter.Mock{
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			return page(product("1", "Shirt", 20, 4), product("2", "Hat", 5, 3)), nil
		},
	}

	got, err := newTestService(m).All(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Products, 2)
	assert.Equal(t, "Shirt", got.Products[0].Title)
	assert.Equal(t, model.NewPrice(20), got.Products[0].Price)
	assert.Empty(t, got.Message)
}

func TestAllEmptyHasMessage(t *testing.T) {
	got, err := newTestService(&adapter.Mock{}).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Products)
	assert.Equal(t, MsgNoProducts, got.Message)
}

func TestAllFailure(t *testing.T) {
	m := &adapter.Mock{
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			return nil, model.NewTransportError("shop API", errors.New("connection refused"))
		},
	}

	_, err := newTestService(m).All(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrRemoteRequestFailed))

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, MsgLoadFailed, apiErr.Message)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestPageSizeIsForwarded(t *testing.T) {
	var got adapter.PageOptions
	m := &adapter.Mock{
		AllProductsFunc: func(_ context.Context, p adapter.PageOptions) (*adapter.ProductPage, error) {
			got = p
			return page(), nil
		},
	}

	_, err := newTestService(m, WithPageSize(50)).All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50, got.Size)
}

func TestSearch(t *testing.T) {
	var gotQuery string
	m := &adapter.Mock{
		SearchProductsFunc: func(_ context.Context, q string, _ adapter.PageOptions) (*adapter.ProductPage, error) {
			gotQuery = q
			return page(), nil
		},
	}

	got, err := newTestService(m).Search(context.Background(), "  shoes ")
	require.NoError(t, err)
	assert.Equal(t, "shoes", gotQuery)
	assert.Equal(t, `No products found matching "shoes"`, got.Message)
}

func TestSearchBlankListsAll(t *testing.T) {
	calledAll := false
	m := &adapter.Mock{
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			calledAll = true
			return page(product("1", "Shirt", 20, 4)), nil
		},
		SearchProductsFunc: func(context.Context, string, adapter.PageOptions) (*adapter.ProductPage, error) {
			t.Fatal("search called for a blank query")
			return nil, nil
		},
	}

	got, err := newTestService(m).Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.True(t, calledAll)
	assert.Len(t, got.Products, 1)
}

func TestBrowseCategoryWinsOverBrand(t *testing.T) {
	var gotCategory string
	m := &adapter.Mock{
		ProductsByCategoryFunc: func(_ context.Context, id string, _ adapter.PageOptions) (*adapter.ProductPage, error) {
			gotCategory = id
			return page(product("1", "Shirt", 20, 4)), nil
		},
		ProductsByBrandFunc: func(context.Context, string, adapter.PageOptions) (*adapter.ProductPage, error) {
			t.Fatal("brand listing used although a category was given")
			return nil, nil
		},
	}

	got, err := newTestService(m).Browse(context.Background(), Query{Category: "c1", Brand: "acme"})
	require.NoError(t, err)
	assert.Equal(t, "c1", gotCategory)
	assert.Len(t, got.Products, 1)
}

func TestBrowseByBrandAndFilter(t *testing.T) {
	minPrice, minRating := 10.0, 4.0
	m := &adapter.Mock{
		ProductsByBrandFunc: func(_ context.Context, brand string, _ adapter.PageOptions) (*adapter.ProductPage, error) {
			assert.Equal(t, "acme", brand)
			return page(
				product("1", "Shirt", 20, 4.5),
				product("2", "Hat", 5, 5),
				product("3", "Coat", 90, 3),
			), nil
		},
	}

	got, err := newTestService(m).Browse(context.Background(), Query{
		Brand:    "acme",
		Criteria: normalize.Criteria{MinPrice: &minPrice, MinRating: &minRating},
	})
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "1", got.Products[0].ID)
}

func TestBrowseFailureMessage(t *testing.T) {
	down := func() (*adapter.ProductPage, error) {
		return nil, model.NewTransportError("shop API", errors.New("connection refused"))
	}
	m := &adapter.Mock{
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			return down()
		},
		ProductsByCategoryFunc: func(context.Context, string, adapter.PageOptions) (*adapter.ProductPage, error) {
			return down()
		},
		ProductsByBrandFunc: func(context.Context, string, adapter.PageOptions) (*adapter.ProductPage, error) {
			return down()
		},
	}
	minRating := 4.0

	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"unfiltered", Query{}, MsgLoadFailed},
		{"category", Query{Category: "c1"}, MsgFilterFailed},
		{"brand", Query{Brand: "acme"}, MsgFilterFailed},
		{"criteria only", Query{Criteria: normalize.Criteria{MinRating: &minRating}}, MsgFilterFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(m).Browse(context.Background(), tt.query)
			var apiErr *model.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		})
	}
}

func TestBrowseNoMatchMessage(t *testing.T) {
	maxPrice := 1.0
	m := &adapter.Mock{
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			return page(product("1", "Shirt", 20, 4)), nil
		},
	}

	got, err := newTestService(m).Browse(context.Background(), Query{Criteria: normalize.Criteria{MaxPrice: &maxPrice}})
	require.NoError(t, err)
	assert.Empty(t, got.Products)
	assert.Equal(t, MsgNoFilterMatch, got.Message)
}

func TestDetail(t *testing.T) {
	m := &adapter.Mock{
		ProductFunc: func(_ context.Context, id string) (model.Product, error) {
			return product(id, "Shirt", 20, 4), nil
		},
	}

	got, err := newTestService(m).Detail(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
}

func TestDetailFallsBackToFirstProduct(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"remote 404", model.NewRemoteError(http.StatusNotFound, "")},
		{"empty body", model.NewNotFoundError("product")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &adapter.Mock{
				ProductFunc: func(context.Context, string) (model.Product, error) {
					return nil, tt.err
				},
				AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
					return page(product("first", "Shirt", 20, 4), product("second", "Hat", 5, 3)), nil
				},
			}

			got, err := newTestService(m).Detail(context.Background(), "missing")
			require.NoError(t, err)
			assert.Equal(t, "first", got.ID)
		})
	}
}

func TestDetailFallbackEmpty(t *testing.T) {
	m := &adapter.Mock{
		ProductFunc: func(context.Context, string) (model.Product, error) {
			return nil, model.NewRemoteError(http.StatusNotFound, "")
		},
	}

	_, err := newTestService(m).Detail(context.Background(), "missing")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestDetailTransportFailureDoesNotFallBack(t *testing.T) {
	m := &adapter.Mock{
		ProductFunc: func(context.Context, string) (model.Product, error) {
			return nil, model.NewTransportError("shop API", errors.New("timeout"))
		},
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			t.Fatal("fell back on a transport failure")
			return nil, nil
		},
	}

	_, err := newTestService(m).Detail(context.Background(), "1")
	assert.True(t, errors.Is(err, model.ErrRemoteRequestFailed))
}

func TestProductIsStrict(t *testing.T) {
	m := &adapter.Mock{
		ProductFunc: func(_ context.Context, id string) (model.Product, error) {
			if id == "1" {
				return product("1", "Shirt", 20, 4), nil
			}
			return nil, model.NewRemoteError(http.StatusNotFound, "")
		},
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			t.Fatal("strict lookup fell back to the listing")
			return nil, nil
		},
	}
	s := newTestService(m)

	got, err := s.Product(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Shirt", got.Title)

	_, err = s.Product(context.Background(), "2")
	assert.True(t, errors.Is(err, model.ErrNotFound))

	_, err = s.Product(context.Background(), " ")
	assert.True(t, errors.Is(err, model.ErrInvalidRequest))
}

func TestCompleteLine(t *testing.T) {
	calls := 0
	m := &adapter.Mock{
		ProductFunc: func(_ context.Context, id string) (model.Product, error) {
			calls++
			if id == "1" {
				p := product("1", "Shirt", 20, 4)
				p["thumbnail"] = "/img/shirt.png"
				return p, nil
			}
			return nil, model.NewTransportError("shop API", errors.New("connection refused"))
		},
	}
	s := newTestService(m)
	ctx := context.Background()

	got := s.CompleteLine(ctx, model.CartLineItem{ProductID: "1"})
	assert.Equal(t, "Shirt", got.Title)
	assert.Equal(t, model.FlexFloat(20), got.UnitPrice)
	assert.Equal(t, "https://api.example.test/img/shirt.png", got.ImageURL)

	// Caller fields win over the catalog.
	got = s.CompleteLine(ctx, model.CartLineItem{ProductID: "1", Title: "Custom"})
	assert.Equal(t, "Custom", got.Title)
	assert.Equal(t, model.FlexFloat(20), got.UnitPrice)

	// A failed lookup keeps the line as given.
	got = s.CompleteLine(ctx, model.CartLineItem{ProductID: "2", Title: "Hat"})
	assert.Equal(t, model.CartLineItem{ProductID: "2", Title: "Hat"}, got)

	calls = 0
	s.CompleteLine(ctx, model.CartLineItem{ProductID: "1", Title: "Shirt", UnitPrice: 5})
	assert.Zero(t, calls, "complete lines need no lookup")
}

func TestRelated(t *testing.T) {
	m := &adapter.Mock{
		ProductsByCategoryFunc: func(context.Context, string, adapter.PageOptions) (*adapter.ProductPage, error) {
			return page(
				product("1", "A", 1, 1), product("2", "B", 1, 1), product("3", "C", 1, 1),
				product("4", "D", 1, 1), product("5", "E", 1, 1),
			), nil
		},
	}

	got, err := newTestService(m).Related(context.Background(), "c1", 0)
	require.NoError(t, err)
	assert.Len(t, got.Products, DefaultRelatedLimit)
	assert.Equal(t, "1", got.Products[0].ID)
}

func TestRelatedFallsBackToAll(t *testing.T) {
	m := &adapter.Mock{
		ProductsByCategoryFunc: func(context.Context, string, adapter.PageOptions) (*adapter.ProductPage, error) {
			return nil, model.NewRemoteError(http.StatusNotFound, "")
		},
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			return page(product("9", "Z", 1, 1)), nil
		},
	}

	got, err := newTestService(m).Related(context.Background(), "gone", 4)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "9", got.Products[0].ID)
}

func TestRelatedEmpty(t *testing.T) {
	got, err := newTestService(&adapter.Mock{}).Related(context.Background(), "c1", 4)
	require.NoError(t, err)
	assert.Equal(t, MsgNoRelated, got.Message)
}

func TestFilters(t *testing.T) {
	m := &adapter.Mock{
		AllProductsFunc: func(context.Context, adapter.PageOptions) (*adapter.ProductPage, error) {
			return page(
				model.Product{"category": map[string]any{"id": "c2", "name": "shoes"}, "brand": "Zed"},
				model.Product{"category": "Apparel", "brand": "acme"},
				model.Product{"brand": "Zed"},
			), nil
		},
	}

	got, err := newTestService(m).Filters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryOption{{ID: "Apparel", Name: "Apparel"}, {ID: "c2", Name: "shoes"}}, got.Categories)
	assert.Equal(t, []string{"Zed", "acme"}, got.Brands)
}

func TestValidationErrorsPassThrough(t *testing.T) {
	_, err := newTestService(&adapter.Mock{}).ByCategory(context.Background(), " ")

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "category", apiErr.Field)
}
