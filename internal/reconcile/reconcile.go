// Package reconcile decides which cart is authoritative. It routes cart
// mutations to the remote cart when a session exists, degrades to the local
// mirror when the remote fails, and picks one cart per read. Local and remote
// carts are never merged.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/internal/adapter"
	"storefront/internal/localstore"
	"storefront/internal/model"
)

// DefaultTaxRate is applied by Summary when no rate is configured.
const DefaultTaxRate = 0.10

// Confirmation messages for cart mutations. A degraded mutation is still
// confirmed; MsgSavedLocally says where the change was kept.
const (
	MsgAdded        = "Product added to cart!"
	MsgUpdated      = "Cart updated successfully"
	MsgRemoved      = "Item removed from cart"
	MsgCleared      = "Cart cleared"
	MsgSavedLocally = "The shop could not be reached. The change was saved on this device."
)

// AddedMessage confirms adding qty units.
func AddedMessage(qty int) string {
	if qty > 1 {
		return fmt.Sprintf("%d item(s) added to your cart", qty)
	}
	return MsgAdded
}

// Outcome tags how a cart mutation was applied.
type Outcome string

const (
	// OutcomeLocal means no session existed; only the local cart changed.
	OutcomeLocal Outcome = "local"
	// OutcomeSynced means the remote cart accepted the change.
	OutcomeSynced Outcome = "synced"
	// OutcomeDegraded means the remote call failed and the local cart
	// absorbed the change instead.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFailed means the local write itself failed.
	OutcomeFailed Outcome = "failed"
)

// Result is the outcome of one cart mutation.
type Result struct {
	Outcome Outcome `json:"outcome"`

	// Cause is the remote error behind a degraded outcome.
	Cause error `json:"-"`
}

// SessionSource yields the current session. localstore.SessionStore
// satisfies it.
type SessionSource interface {
	Load(ctx context.Context) model.Session
}

// Service orchestrates the local and remote carts.
type Service struct {
	local    *localstore.CartStore
	remote   adapter.RemoteCart
	sessions SessionSource
	taxRate  float64
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTaxRate sets the rate Summary applies to the subtotal.
func WithTaxRate(rate float64) Option {
	return func(s *Service) {
		s.taxRate = rate
	}
}

// New creates a reconciliation service.
func New(local *localstore.CartStore, remote adapter.RemoteCart, sessions SessionSource, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		local:    local,
		remote:   remote,
		sessions: sessions,
		taxRate:  DefaultTaxRate,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add puts qty units of item in the cart. With a session the remote cart is
// tried first and, on success, the line is mirrored locally so the badge
// stays consistent when a later read falls back to the local cart.
func (s *Service) Add(ctx context.Context, item model.CartLineItem, qty int) (Result, error) {
	if item.ProductID == "" {
		return Result{Outcome: OutcomeFailed}, model.NewRequiredFieldError("productId")
	}
	qty = localstore.ClampQuantity(qty)

	local := func() error {
		_, err := s.local.AddOrIncrement(ctx, item, qty)
		return err
	}

	sess := s.sessions.Load(ctx)
	if sess.Token == "" {
		return s.applyLocal(OutcomeLocal, nil, "add", item.ProductID, local)
	}

	if err := s.remote.AddToCart(ctx, sess.Token, item.ProductID, qty); err != nil {
		return s.degrade(ctx, "add", item.ProductID, err, local)
	}

	if err := local(); err != nil {
		s.logger.WarnContext(ctx, "mirroring remote add to local cart failed",
			slog.String("product_id", item.ProductID),
			slog.String("error", err.Error()),
		)
	}
	return Result{Outcome: OutcomeSynced}, nil
}

// Update sets the quantity of productID, clamped to at least 1.
func (s *Service) Update(ctx context.Context, productID string, qty int) (Result, error) {
	if productID == "" {
		return Result{Outcome: OutcomeFailed}, model.NewRequiredFieldError("productId")
	}
	qty = localstore.ClampQuantity(qty)

	local := func() error {
		_, err := s.local.SetQuantity(ctx, productID, qty)
		return err
	}

	sess := s.sessions.Load(ctx)
	if sess.Token == "" {
		return s.applyLocal(OutcomeLocal, nil, "update", productID, local)
	}

	if err := s.remote.UpdateCartItem(ctx, sess.Token, productID, qty); err != nil {
		return s.degrade(ctx, "update", productID, err, local)
	}
	return Result{Outcome: OutcomeSynced}, nil
}

// Remove drops productID from the cart. Removing an absent line is not an
// error.
func (s *Service) Remove(ctx context.Context, productID string) (Result, error) {
	if productID == "" {
		return Result{Outcome: OutcomeFailed}, model.NewRequiredFieldError("productId")
	}

	local := func() error {
		_, err := s.local.Remove(ctx, productID)
		return err
	}

	sess := s.sessions.Load(ctx)
	if sess.Token == "" {
		return s.applyLocal(OutcomeLocal, nil, "remove", productID, local)
	}

	if err := s.remote.RemoveFromCart(ctx, sess.Token, productID); err != nil {
		return s.degrade(ctx, "remove", productID, err, local)
	}
	return Result{Outcome: OutcomeSynced}, nil
}

// ClearLocal empties the local cart. The remote cart is left alone.
func (s *Service) ClearLocal(ctx context.Context) error {
	if err := s.local.Clear(ctx); err != nil {
		return model.NewInternalError(err)
	}
	return nil
}

func (s *Service) degrade(ctx context.Context, op, productID string, cause error, local func() error) (Result, error) {
	s.logger.WarnContext(ctx, "remote cart "+op+" failed, falling back to local cart",
		slog.String("product_id", productID),
		slog.Int("remote_status", model.RemoteStatus(cause)),
		slog.String("error", cause.Error()),
	)
	return s.applyLocal(OutcomeDegraded, cause, op, productID, local)
}

func (s *Service) applyLocal(outcome Outcome, cause error, op, productID string, local func() error) (Result, error) {
	if err := local(); err != nil {
		s.logger.Error("local cart "+op+" failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		return Result{Outcome: OutcomeFailed, Cause: cause}, model.NewInternalError(fmt.Errorf("local cart %s: %w", op, err))
	}
	return Result{Outcome: outcome, Cause: cause}, nil
}

// EffectiveCart returns the authoritative cart. With a session the remote
// cart wins unless the call fails or the remote cart is empty; then the
// local cart is read instead.
func (s *Service) EffectiveCart(ctx context.Context) model.EffectiveCart {
	localCart := func() model.EffectiveCart {
		return model.EffectiveCart{Source: model.CartSourceLocal, Items: s.local.Read(ctx)}
	}

	sess := s.sessions.Load(ctx)
	if sess.Token == "" {
		return localCart()
	}

	items, err := s.remote.FetchCart(ctx, sess.Token)
	if err != nil {
		s.logger.WarnContext(ctx, "fetching remote cart failed, using local cart",
			slog.Int("remote_status", model.RemoteStatus(err)),
			slog.String("error", err.Error()),
		)
		return localCart()
	}
	if len(items) == 0 {
		return localCart()
	}
	return model.EffectiveCart{Source: model.CartSourceRemote, Items: items}
}

// Badge returns the cart badge for the effective cart. An empty cart hides
// the badge instead of showing zero.
func (s *Service) Badge(ctx context.Context) model.Badge {
	return BadgeFor(s.EffectiveCart(ctx).Items)
}

// BadgeFor derives the badge for cart.
func BadgeFor(cart model.Cart) model.Badge {
	n := cart.Count()
	return model.Badge{Count: n, Visible: n > 0}
}

// Summary returns the effective cart with its totals.
func (s *Service) Summary(ctx context.Context) (model.EffectiveCart, model.CartSummary) {
	eff := s.EffectiveCart(ctx)
	return eff, eff.Items.Summarize(s.taxRate)
}

// Checkout is not offered yet. It returns the summary the order would have
// been placed with and a Checkout-Unavailable error. An empty cart fails
// validation first.
func (s *Service) Checkout(ctx context.Context) (model.CartSummary, error) {
	eff, summary := s.Summary(ctx)
	if len(eff.Items) == 0 {
		return summary, model.NewValidationError("cart", "cart is empty")
	}
	return summary, model.NewCheckoutUnavailableError()
}

// Divergence compares the local mirror with the remote cart. Without a
// session the remote cart is treated as empty.
func (s *Service) Divergence(ctx context.Context) (*Divergence, error) {
	local := s.local.Read(ctx)

	sess := s.sessions.Load(ctx)
	if sess.Token == "" {
		return DiffCarts(local, nil), nil
	}

	remote, err := s.remote.FetchCart(ctx, sess.Token)
	if err != nil {
		return nil, err
	}
	return DiffCarts(local, remote), nil
}
