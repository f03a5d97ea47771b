package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat is a number that also decodes from a numeric JSON string.
// Carts written by older clients stored prices as strings.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// CartLineItem is one product-quantity pairing. Title, price and image are
// snapshots taken when the item was added.
type CartLineItem struct {
	ProductID string    `json:"id"`
	Title     string    `json:"title"`
	UnitPrice FlexFloat `json:"price"`
	Quantity  int       `json:"quantity"`
	ImageURL  string    `json:"image"`
}

// EffectiveQuantity is the quantity used for counting; zero or missing counts as one.
func (li CartLineItem) EffectiveQuantity() int {
	if li.Quantity <= 0 {
		return 1
	}
	return li.Quantity
}

// LineTotalCents returns unit price times quantity in cents.
func (li CartLineItem) LineTotalCents() int64 {
	return ToCents(float64(li.UnitPrice)) * int64(li.EffectiveQuantity())
}

// Cart is an ordered list of line items, at most one per ProductID.
// Order is insertion order.
type Cart []CartLineItem

// Index returns the position of productID, or -1.
func (c Cart) Index(productID string) int {
	for i, li := range c {
		if li.ProductID == productID {
			return i
		}
	}
	return -1
}

// Count is the badge count: the sum of effective quantities.
func (c Cart) Count() int {
	n := 0
	for _, li := range c {
		n += li.EffectiveQuantity()
	}
	return n
}

// CartSummary holds the order totals shown beside the cart.
type CartSummary struct {
	Items    int     `json:"items"`
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// FreeShipping reports whether the summary carries no shipping charge.
func (s CartSummary) FreeShipping() bool {
	return s.Shipping == 0
}

// Summarize computes totals in cents. Shipping is always free.
func (c Cart) Summarize(taxRate float64) CartSummary {
	var subtotal int64
	for _, li := range c {
		subtotal += li.LineTotalCents()
	}
	tax := ToCents(FromCents(subtotal) * taxRate)
	return CartSummary{
		Items:    c.Count(),
		Subtotal: FromCents(subtotal),
		Shipping: 0,
		Tax:      FromCents(tax),
		Total:    FromCents(subtotal + tax),
	}
}

// CartSource names which cart a read was served from.
type CartSource string

const (
	CartSourceRemote CartSource = "remote"
	CartSourceLocal  CartSource = "local"
)

// EffectiveCart is the authoritative cart for one read.
type EffectiveCart struct {
	Source CartSource `json:"source"`
	Items  Cart       `json:"items"`
}

// Badge is the cart badge state.
type Badge struct {
	Count   int  `json:"count"`
	Visible bool `json:"visible"`
}
