package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"storefront/internal/model"
)

// MinQuantity is the smallest quantity a cart line can hold.
const MinQuantity = 1

// ClampQuantity raises qty to MinQuantity.
func ClampQuantity(qty int) int {
	if qty < MinQuantity {
		return MinQuantity
	}
	return qty
}

// CartStore is the local cart mirror. It owns the cart slot; nothing else
// reads or writes it.
//
// Each mutation is a read-modify-write under a process-wide mutex. Two
// processes sharing one backend are not coordinated: the last writer wins.
type CartStore struct {
	mu     sync.Mutex
	slots  Slots
	key    string
	logger *slog.Logger
}

// NewCartStore creates a cart store on slots under namespace.
func NewCartStore(slots Slots, namespace string, logger *slog.Logger) *CartStore {
	return &CartStore{
		slots:  slots,
		key:    Key(namespace, SlotCart),
		logger: logger,
	}
}

// Read returns the stored cart. Missing, unreadable, or malformed data
// yields an empty cart; the problem is logged, never returned.
func (s *CartStore) Read(ctx context.Context) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Write replaces the stored cart.
func (s *CartStore) Write(ctx context.Context, cart model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, cart)
}

// AddOrIncrement adds qty of item.ProductID, merging into an existing line
// if there is one. Quantities below 1 add a single unit.
func (s *CartStore) AddOrIncrement(ctx context.Context, item model.CartLineItem, qty int) (model.Cart, error) {
	qty = ClampQuantity(qty)

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.read(ctx)
	if i := cart.Index(item.ProductID); i >= 0 {
		cart[i].Quantity += qty
	} else {
		item.Quantity = qty
		cart = append(cart, item)
	}

	if err := s.write(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SetQuantity sets the quantity of productID, clamped to at least 1.
// Unknown products leave the cart unchanged.
func (s *CartStore) SetQuantity(ctx context.Context, productID string, qty int) (model.Cart, error) {
	qty = ClampQuantity(qty)

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.read(ctx)
	i := cart.Index(productID)
	if i < 0 {
		return cart, nil
	}
	cart[i].Quantity = qty

	if err := s.write(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove drops productID from the cart. Removing an absent product is a no-op.
func (s *CartStore) Remove(ctx context.Context, productID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.read(ctx)
	if cart.Index(productID) < 0 {
		return cart, nil
	}

	kept := make(model.Cart, 0, len(cart))
	for _, li := range cart {
		if li.ProductID != productID {
			kept = append(kept, li)
		}
	}

	if err := s.write(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Clear removes every line item.
func (s *CartStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, model.Cart{})
}

func (s *CartStore) read(ctx context.Context) model.Cart {
	raw, ok, err := s.slots.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("reading local cart failed, using empty cart",
			slog.String("key", s.key),
			slog.String("error", err.Error()),
		)
		return model.Cart{}
	}
	if !ok || raw == "" {
		return model.Cart{}
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		s.logger.Warn("local cart is malformed, resetting to empty",
			slog.String("key", s.key),
			slog.String("error", model.NewMalformedStateError(SlotCart, err).Error()),
		)
		return model.Cart{}
	}
	if cart == nil {
		return model.Cart{}
	}
	return cart
}

func (s *CartStore) write(ctx context.Context, cart model.Cart) error {
	if cart == nil {
		cart = model.Cart{}
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encoding local cart: %w", err)
	}
	if err := s.slots.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("writing local cart: %w", err)
	}
	return nil
}
