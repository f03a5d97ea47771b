package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"storefront/internal/app"
	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// =============================================================================
// CART COMMANDS
// =============================================================================

func runCart(args []string) {
	fs := newFlagSet("cart", "cart")
	ctx, a, done := start(fs, args)
	defer done()

	eff := a.Cart.EffectiveCart(ctx)
	if jsonOut {
		printJSON(eff)
		return
	}
	printCart(eff)
}

func runCount(args []string) {
	fs := newFlagSet("count", "count")
	ctx, a, done := start(fs, args)
	defer done()

	badge := a.Cart.Badge(ctx)
	switch {
	case jsonOut:
		printJSON(badge)
	case quiet:
		fmt.Fprintln(out, badge.Count)
	case badge.Visible:
		fmt.Fprintf(out, "🛒 %s%d%s\n", colorBold, badge.Count, colorReset)
	default:
		printInfo("Your cart is empty")
	}
}

func runSummary(args []string) {
	fs := newFlagSet("summary", "summary")
	ctx, a, done := start(fs, args)
	defer done()

	eff, summary := a.Cart.Summary(ctx)
	if jsonOut {
		printJSON(struct {
			model.EffectiveCart
			Summary model.CartSummary `json:"summary"`
		}{eff, summary})
		return
	}
	if quiet {
		fmt.Fprintln(out, formatMoney(summary.Total))
		return
	}
	printCart(eff)
	if len(eff.Items) > 0 {
		printSummary(summary)
	}
}

func runDiff(args []string) {
	fs := newFlagSet("diff", "diff")
	ctx, a, done := start(fs, args)
	defer done()

	d, err := a.Cart.Divergence(ctx)
	if err != nil {
		fatalErr(err)
	}
	if jsonOut {
		printJSON(d)
		return
	}
	if d.IsEmpty() {
		printSuccess("This device and the shop hold the same cart")
		return
	}
	for _, li := range d.OnlyLocal {
		fmt.Fprintf(out, "%s- %s%s (this device only, qty %d)\n", colorRed, li.Title, colorReset, li.EffectiveQuantity())
	}
	for _, li := range d.OnlyRemote {
		fmt.Fprintf(out, "%s+ %s%s (shop only, qty %d)\n", colorGreen, li.Title, colorReset, li.EffectiveQuantity())
	}
	for _, q := range d.Quantity {
		fmt.Fprintf(out, "%s~ %s%s quantity %d here, %d on the shop\n", colorYellow, q.ProductID, colorReset, q.Local, q.Remote)
	}
}

func runAdd(args []string) {
	fs := newFlagSet("add", "add -id ID")
	var id, title string
	var qty int
	var price optionalFloat
	fs.StringVar(&id, "id", "", "Product id (required)")
	fs.IntVar(&qty, "qty", 1, "Quantity")
	fs.StringVar(&title, "title", "", "Title snapshot (looked up when empty)")
	fs.Var(&price, "price", "Unit price snapshot (looked up when empty)")
	ctx, a, done := start(fs, args)
	defer done()

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	item := model.CartLineItem{ProductID: id, Title: title}
	if price.v != nil {
		item.UnitPrice = model.FlexFloat(*price.v)
	}
	item = a.Catalog.CompleteLine(ctx, item)

	res, err := a.Cart.Add(ctx, item, qty)
	reportMutation(ctx, a, res, err, reconcile.AddedMessage(qty))
}

func runUpdate(args []string) {
	fs := newFlagSet("update", "update -id ID -qty N")
	var id string
	var qty int
	fs.StringVar(&id, "id", "", "Product id (required)")
	fs.IntVar(&qty, "qty", 0, "New quantity; values below 1 become 1")
	ctx, a, done := start(fs, args)
	defer done()

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	res, err := a.Cart.Update(ctx, id, qty)
	reportMutation(ctx, a, res, err, reconcile.MsgUpdated)
}

func runRemove(args []string) {
	fs := newFlagSet("remove", "remove -id ID")
	var id string
	fs.StringVar(&id, "id", "", "Product id (required)")
	ctx, a, done := start(fs, args)
	defer done()

	if id == "" {
		fs.Usage()
		os.Exit(1)
	}

	res, err := a.Cart.Remove(ctx, id)
	reportMutation(ctx, a, res, err, reconcile.MsgRemoved)
}

func runClear(args []string) {
	fs := newFlagSet("clear", "clear")
	ctx, a, done := start(fs, args)
	defer done()

	if err := a.Cart.ClearLocal(ctx); err != nil {
		fatalErr(err)
	}
	printSuccess("%s", reconcile.MsgCleared)
}

func runCheckout(args []string) {
	fs := newFlagSet("checkout", "checkout")
	ctx, a, done := start(fs, args)
	defer done()

	summary, err := a.Cart.Checkout(ctx)
	if err == nil {
		printSummary(summary)
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) && errors.Is(err, model.ErrCheckoutUnavailable) {
		printSummary(summary)
		printWarning("%s", apiErr.Message)
		os.Exit(1)
	}
	fatalErr(err)
}

// reportMutation prints the confirmation for a cart mutation and the new
// badge. A degraded mutation is confirmed with a warning.
func reportMutation(ctx context.Context, a *app.App, res reconcile.Result, err error, msg string) {
	if err != nil {
		fatalErr(err)
	}

	badge := a.Cart.Badge(ctx)
	if jsonOut {
		printJSON(struct {
			Outcome reconcile.Outcome `json:"outcome"`
			Badge   model.Badge       `json:"badge"`
			Message string            `json:"message"`
		}{res.Outcome, badge, msg})
		return
	}
	if quiet {
		fmt.Fprintln(out, badge.Count)
		return
	}

	printSuccess("%s", msg)
	if res.Outcome == reconcile.OutcomeDegraded {
		printWarning("%s", reconcile.MsgSavedLocally)
		if verbose && res.Cause != nil {
			printInfo("%v", res.Cause)
		}
	}
	printInfo("Cart: %d item(s)", badge.Count)
}

// =============================================================================
// RENDERING
// =============================================================================

func printCart(eff model.EffectiveCart) {
	if quiet {
		for _, li := range eff.Items {
			fmt.Fprintf(out, "%s\t%d\n", li.ProductID, li.EffectiveQuantity())
		}
		return
	}
	if len(eff.Items) == 0 {
		printInfo("Your cart is empty")
		return
	}

	source := "this device"
	if eff.Source == model.CartSourceRemote {
		source = "the shop"
	}
	printInfo("Cart from %s", source)
	for _, li := range eff.Items {
		fmt.Fprintf(out, "  %s%-24s%s %-36s %3d x %9s = %10s\n",
			colorGray, li.ProductID, colorReset,
			truncate(li.Title, 36),
			li.EffectiveQuantity(),
			formatMoney(float64(li.UnitPrice)),
			model.FormatCents(li.LineTotalCents()),
		)
	}
}

func printSummary(s model.CartSummary) {
	if jsonOut {
		printJSON(s)
		return
	}
	shipping := formatMoney(s.Shipping)
	if s.FreeShipping() {
		shipping = colorGreen + "FREE" + colorReset
	}
	fmt.Fprintf(out, "  %-10s %10d\n", "Items", s.Items)
	fmt.Fprintf(out, "  %-10s %10s\n", "Subtotal", formatMoney(s.Subtotal))
	fmt.Fprintf(out, "  %-10s %10s\n", "Shipping", shipping)
	fmt.Fprintf(out, "  %-10s %10s\n", "Tax", formatMoney(s.Tax))
	fmt.Fprintf(out, "  %s%-10s %10s%s\n", colorBold, "Total", formatMoney(s.Total), colorReset)
}
