package main

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalog"
	"storefront/internal/model"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	disableColors()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() {
		out = prev
		quiet, jsonOut, verbose = false, false, false
	})
	return &buf
}

func TestSearchLoopRunsLatestQueryOnce(t *testing.T) {
	var got []string
	err := searchLoop(strings.NewReader("s\nsh\n shoe \n"), time.Hour, func(q string) {
		got = append(got, q)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"shoe"}, got)
}

// pausingReader yields data and then holds EOF back for pause.
type pausingReader struct {
	data  *strings.Reader
	pause time.Duration
}

func (r *pausingReader) Read(p []byte) (int, error) {
	if r.data.Len() > 0 {
		return r.data.Read(p)
	}
	time.Sleep(r.pause)
	return 0, io.EOF
}

func TestSearchLoopWaitsForRunningSearch(t *testing.T) {
	var mu sync.Mutex
	var got []string
	r := &pausingReader{data: strings.NewReader("shoe\n"), pause: 50 * time.Millisecond}

	err := searchLoop(r, 10*time.Millisecond, func(q string) {
		time.Sleep(200 * time.Millisecond)
		mu.Lock()
		got = append(got, q)
		mu.Unlock()
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"shoe"}, got)
}

func TestSearchLoopEmptyInput(t *testing.T) {
	called := false
	err := searchLoop(strings.NewReader(""), time.Hour, func(string) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
}

func TestStars(t *testing.T) {
	tests := []struct {
		in   model.StarRating
		want string
	}{
		{model.StarRating{Full: 5}, "★★★★★"},
		{model.StarRating{Full: 3, Half: true, Empty: 1}, "★★★⯪☆"},
		{model.StarRating{Empty: 5}, "☆☆☆☆☆"},
		{model.StarRating{Full: 7, Half: true, Empty: -3}, "★★★★★"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stars(tt.in), "%+v", tt.in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "N/A", formatPrice(model.PriceNotAvailable))
	assert.Equal(t, "$12.50", formatPrice(model.NewPrice(12.5)))
	assert.Equal(t, "$0.10", formatPrice(model.NewPrice(0.1)))
}

func TestOptionalFloat(t *testing.T) {
	var f optionalFloat
	assert.Equal(t, "", f.String())

	require.NoError(t, f.Set(" 9.5 "))
	require.NotNil(t, f.v)
	assert.Equal(t, 9.5, *f.v)
	assert.Equal(t, "9.5", f.String())

	for _, bad := range []string{"cheap", "NaN", "Inf"} {
		var g optionalFloat
		assert.Error(t, g.Set(bad), bad)
		assert.Nil(t, g.v)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Très lon…", truncate("Très longue", 9))
}

func TestPrintListing(t *testing.T) {
	buf := captureOutput(t)

	printListing(&catalog.Listing{
		Products: []model.NormalizedProduct{{
			ID:    "p1",
			Title: "Shirt",
			Price: model.NewPrice(20),
			Brand: "Acme",
			Stars: model.StarRating{Full: 4, Empty: 1},
		}},
		Total: 1,
	})
	assert.Contains(t, buf.String(), "Shirt")
	assert.Contains(t, buf.String(), "$20.00")
	assert.Contains(t, buf.String(), "★★★★☆")

	buf.Reset()
	printListing(&catalog.Listing{Message: catalog.MsgNoProducts})
	assert.Contains(t, buf.String(), catalog.MsgNoProducts)

	buf.Reset()
	quiet = true
	printListing(&catalog.Listing{Products: []model.NormalizedProduct{{ID: "a"}, {ID: "b"}}})
	assert.Equal(t, "a\nb\n", buf.String())
}

func TestPrintCartQuiet(t *testing.T) {
	buf := captureOutput(t)
	quiet = true

	printCart(model.EffectiveCart{
		Source: model.CartSourceLocal,
		Items:  model.Cart{{ProductID: "p1", Quantity: 2}, {ProductID: "p2"}},
	})
	assert.Equal(t, "p1\t2\np2\t1\n", buf.String())
}

func TestUserMessage(t *testing.T) {
	captureOutput(t)

	err := model.NewNotFoundError("product")
	assert.Equal(t, "product not found", userMessage(err))

	verbose = true
	assert.Equal(t, err.Error(), userMessage(err))

	assert.Equal(t, "boom", userMessage(errors.New("boom")))
}
