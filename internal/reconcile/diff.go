package reconcile

import "storefront/internal/model"

// Divergence describes how the local mirror differs from the remote cart.
// It is informational only: carts are never merged.
type Divergence struct {
	OnlyLocal  []model.CartLineItem `json:"onlyLocal,omitempty"`  // lines the remote cart lacks
	OnlyRemote []model.CartLineItem `json:"onlyRemote,omitempty"` // lines the local mirror lacks
	Quantity   []QuantityMismatch   `json:"quantity,omitempty"`   // lines present in both with different quantities
}

// QuantityMismatch is a line held by both carts with different quantities.
type QuantityMismatch struct {
	ProductID string `json:"productId"`
	Local     int    `json:"local"`
	Remote    int    `json:"remote"`
}

// IsEmpty reports whether the two carts hold the same lines.
func (d *Divergence) IsEmpty() bool {
	return len(d.OnlyLocal) == 0 && len(d.OnlyRemote) == 0 && len(d.Quantity) == 0
}

// DiffCarts compares local against remote by product id. Results keep the
// order of the cart they were found in.
func DiffCarts(local, remote model.Cart) *Divergence {
	d := &Divergence{}

	remoteByID := make(map[string]model.CartLineItem, len(remote))
	for _, li := range remote {
		remoteByID[li.ProductID] = li
	}
	localByID := make(map[string]model.CartLineItem, len(local))
	for _, li := range local {
		localByID[li.ProductID] = li
	}

	for _, li := range local {
		r, ok := remoteByID[li.ProductID]
		if !ok {
			d.OnlyLocal = append(d.OnlyLocal, li)
			continue
		}
		if li.EffectiveQuantity() != r.EffectiveQuantity() {
			d.Quantity = append(d.Quantity, QuantityMismatch{
				ProductID: li.ProductID,
				Local:     li.EffectiveQuantity(),
				Remote:    r.EffectiveQuantity(),
			})
		}
	}

	for _, li := range remote {
		if _, ok := localByID[li.ProductID]; !ok {
			d.OnlyRemote = append(d.OnlyRemote, li)
		}
	}

	return d
}
