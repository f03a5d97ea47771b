package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductID(t *testing.T) {
	tests := []struct {
		name string
		p    Product
		want string
	}{
		{"mongo id", Product{"_id": "abc", "id": "ignored"}, "abc"},
		{"plain id", Product{"id": "42"}, "42"},
		{"numeric id", Product{"id": float64(42)}, "42"},
		{"missing", Product{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.ID())
		})
	}
}

func TestAsNumber(t *testing.T) {
	v, ok := AsNumber("12.5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = AsNumber("twelve")
	assert.False(t, ok)

	_, ok = AsNumber(nil)
	assert.False(t, ok)
}

func TestPriceString(t *testing.T) {
	assert.Equal(t, "N/A", PriceNotAvailable.String())
	assert.Equal(t, "19.90", NewPrice(19.9).String())
}

func TestNormalizedProductOnSale(t *testing.T) {
	p := NormalizedProduct{Price: NewPrice(80), BeforeDiscount: 100}
	assert.True(t, p.OnSale())

	p.BeforeDiscount = 0
	assert.False(t, p.OnSale())
}
