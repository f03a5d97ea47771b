package reconcile

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
	"storefront/internal/localstore"
	"storefront/internal/model"
)

type fixture struct {
	svc      *Service
	local    *localstore.CartStore
	sessions *localstore.SessionStore
	remote   *adapter.Mock
}

func newFixture(t *testing.T, slots localstore.Slots) *fixture {
	t.Helper()
	if slots == nil {
		slots = localstore.NewMemorySlots()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		local:    localstore.NewCartStore(slots, "test", logger),
		sessions: localstore.NewSessionStore(slots, "test", logger),
		remote:   &adapter.Mock{},
	}
	f.svc = New(f.local, f.remote, f.sessions, logger)
	return f
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	require.NoError(t, f.sessions.Save(context.Background(), model.Session{Token: "tok", Name: "Ann"}))
}

// failingSlots reads fine but refuses every write.
type failingSlots struct {
	*localstore.MemorySlots
}

func (failingSlots) Set(context.Context, string, string) error { return errors.New("disk full") }

func shirt() model.CartLineItem {
	return model.CartLineItem{ProductID: "p1", Title: "Shirt", UnitPrice: 20, ImageURL: "img.png"}
}

func TestAddAnonymousIsLocal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.AddToCartFunc = func(context.Context, string, string, int) error {
		t.Fatal("remote called without a session")
		return nil
	}

	res, err := f.svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocal, res.Outcome)

	assert.Equal(t, model.Cart{{ProductID: "p1", Title: "Shirt", UnitPrice: 20, Quantity: 1, ImageURL: "img.png"}}, f.local.Read(ctx))
}

func TestAddTwiceMergesQuantities(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, shirt(), 2)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, shirt(), 3)
	require.NoError(t, err)

	cart := f.local.Read(ctx)
	require.Len(t, cart, 1)
	assert.Equal(t, 5, cart[0].Quantity)
}

func TestAddSyncedMirrorsLocally(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn(t)
	ctx := context.Background()

	var gotToken, gotID string
	var gotQty int
	f.remote.AddToCartFunc = func(_ context.Context, token, productID string, qty int) error {
		gotToken, gotID, gotQty = token, productID, qty
		return nil
	}

	res, err := f.svc.Add(ctx, shirt(), 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Nil(t, res.Cause)
	assert.Equal(t, "tok", gotToken)
	assert.Equal(t, "p1", gotID)
	assert.Equal(t, 1, gotQty)

	cart := f.local.Read(ctx)
	require.Len(t, cart, 1)
	assert.Equal(t, 1, cart[0].Quantity)
}

func TestAddDegradesOnRemoteFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.signIn(t)
	ctx := context.Background()

	f.remote.AddToCartFunc = func(context.Context, string, string, int) error {
		return model.NewRemoteError(http.StatusUnauthorized, "token expired")
	}

	res, err := f.svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDegraded, res.Outcome)
	assert.True(t, errors.Is(res.Cause, model.ErrRemoteRequestFailed))
	assert.Len(t, f.local.Read(ctx), 1)
}

func TestAddFailsWhenLocalWriteFails(t *testing.T) {
	f := newFixture(t, failingSlots{localstore.NewMemorySlots()})

	res, err := f.svc.Add(context.Background(), shirt(), 1)
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestAddRequiresProductID(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Add(context.Background(), model.CartLineItem{Title: "x"}, 1)

	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "productId", apiErr.Field)
}

func TestUpdateClampsQuantity(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 4)
	require.NoError(t, err)

	res, err := f.svc.Update(ctx, "p1", 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocal, res.Outcome)
	assert.Equal(t, 1, f.local.Read(ctx)[0].Quantity)
}

func TestUpdateSyncedDoesNotTouchLocal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 2)
	require.NoError(t, err)
	f.signIn(t)

	var gotQty int
	f.remote.UpdateCartItemFunc = func(_ context.Context, _, _ string, qty int) error {
		gotQty = qty
		return nil
	}

	res, err := f.svc.Update(ctx, "p1", -3)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, res.Outcome)
	assert.Equal(t, 1, gotQty)
	assert.Equal(t, 2, f.local.Read(ctx)[0].Quantity)
}

func TestUpdateDegrades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 2)
	require.NoError(t, err)
	f.signIn(t)
	f.remote.UpdateCartItemFunc = func(context.Context, string, string, int) error {
		return model.NewTransportError("shop API", errors.New("connection refused"))
	}

	res, err := f.svc.Update(ctx, "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDegraded, res.Outcome)
	assert.Equal(t, 7, f.local.Read(ctx)[0].Quantity)
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)
	before := f.local.Read(ctx)

	res, err := f.svc.Remove(ctx, "nope")
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocal, res.Outcome)
	assert.Equal(t, before, f.local.Read(ctx))
}

func TestRemoveDegrades(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)
	f.signIn(t)
	f.remote.RemoveFromCartFunc = func(context.Context, string, string) error {
		return model.NewRemoteError(http.StatusInternalServerError, "")
	}

	res, err := f.svc.Remove(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDegraded, res.Outcome)
	assert.Empty(t, f.local.Read(ctx))
}

func TestEffectiveCartPrefersRemote(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)
	f.signIn(t)

	remote := model.Cart{{ProductID: "r1", Title: "Hat", UnitPrice: 5, Quantity: 3}}
	f.remote.FetchCartFunc = func(_ context.Context, token string) (model.Cart, error) {
		assert.Equal(t, "tok", token)
		return remote, nil
	}

	eff := f.svc.EffectiveCart(ctx)
	assert.Equal(t, model.CartSourceRemote, eff.Source)
	assert.Equal(t, remote, eff.Items)
}

func TestEffectiveCartFallsBackToLocal(t *testing.T) {
	tests := []struct {
		name  string
		fetch func(context.Context, string) (model.Cart, error)
	}{
		{"unreachable", func(context.Context, string) (model.Cart, error) {
			return nil, model.NewTransportError("shop API", errors.New("dial tcp: connection refused"))
		}},
		{"empty remote", func(context.Context, string) (model.Cart, error) {
			return model.Cart{}, nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			_, err := f.svc.Add(ctx, shirt(), 2)
			require.NoError(t, err)
			f.signIn(t)
			f.remote.FetchCartFunc = tt.fetch

			eff := f.svc.EffectiveCart(ctx)
			assert.Equal(t, model.CartSourceLocal, eff.Source)
			require.Len(t, eff.Items, 1)
			assert.Equal(t, "p1", eff.Items[0].ProductID)
		})
	}
}

func TestEffectiveCartAnonymousSkipsRemote(t *testing.T) {
	f := newFixture(t, nil)
	f.remote.FetchCartFunc = func(context.Context, string) (model.Cart, error) {
		t.Fatal("remote called without a session")
		return nil, nil
	}

	eff := f.svc.EffectiveCart(context.Background())
	assert.Equal(t, model.CartSourceLocal, eff.Source)
	assert.Empty(t, eff.Items)
}

func TestBadge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.Equal(t, model.Badge{Count: 0, Visible: false}, f.svc.Badge(ctx))

	_, err := f.svc.Add(ctx, shirt(), 2)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, model.CartLineItem{ProductID: "p2", Title: "Hat", UnitPrice: 5}, 1)
	require.NoError(t, err)

	assert.Equal(t, model.Badge{Count: 3, Visible: true}, f.svc.Badge(ctx))
}

func TestBadgeCountsMissingQuantityAsOne(t *testing.T) {
	badge := BadgeFor(model.Cart{{ProductID: "a", Quantity: 0}, {ProductID: "b", Quantity: 2}})
	assert.Equal(t, 3, badge.Count)
}

func TestSummaryAndCheckout(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx)
	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)

	_, err = f.svc.Add(ctx, model.CartLineItem{ProductID: "p1", Title: "Shirt", UnitPrice: 19.99}, 2)
	require.NoError(t, err)

	eff, summary := f.svc.Summary(ctx)
	assert.Equal(t, model.CartSourceLocal, eff.Source)
	assert.Equal(t, 2, summary.Items)
	assert.InDelta(t, 39.98, summary.Subtotal, 1e-9)
	assert.InDelta(t, 4.00, summary.Tax, 1e-9)
	assert.InDelta(t, 43.98, summary.Total, 1e-9)
	assert.True(t, summary.FreeShipping())

	got, err := f.svc.Checkout(ctx)
	assert.True(t, errors.Is(err, model.ErrCheckoutUnavailable))
	assert.Equal(t, summary, got)
}

func TestWithTaxRate(t *testing.T) {
	f := newFixture(t, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(f.local, f.remote, f.sessions, logger, WithTaxRate(0))
	ctx := context.Background()
	_, err := svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)

	_, summary := svc.Summary(ctx)
	assert.Zero(t, summary.Tax)
	assert.InDelta(t, 20.0, summary.Total, 1e-9)
}

func TestClearLocal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearLocal(ctx))
	assert.Empty(t, f.local.Read(ctx))
}

func TestDivergence(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Add(ctx, shirt(), 1)
	require.NoError(t, err)

	d, err := f.svc.Divergence(ctx)
	require.NoError(t, err)
	require.Len(t, d.OnlyLocal, 1)
	assert.Empty(t, d.OnlyRemote)

	f.signIn(t)
	f.remote.FetchCartFunc = func(context.Context, string) (model.Cart, error) {
		return nil, model.NewRemoteError(http.StatusBadGateway, "")
	}
	_, err = f.svc.Divergence(ctx)
	assert.True(t, errors.Is(err, model.ErrRemoteRequestFailed))
}
