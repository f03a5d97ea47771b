// storefront is a terminal front end for the shop. Each command is one
// storefront action run in-process against the configured shop API and
// slot store, so the cart and session persist between invocations.
//
// Commands:
//
//	storefront products [-category ID] [-brand NAME] [-min-price N] [-max-price N] [-min-rating N]
//	storefront search [-i] [QUERY...]
//	storefront product -id ID
//	storefront related -id ID [-category ID] [-limit N]
//	storefront filters
//	storefront cart | count | summary | diff
//	storefront add -id ID [-qty N] [-title T] [-price N]
//	storefront update -id ID -qty N
//	storefront remove -id ID
//	storefront clear
//	storefront checkout
//	storefront export -what products|cart -o FILE
//	storefront login -email E -password P
//	storefront register -email E -password P -first F -last L
//	storefront logout
//	storefront whoami [-verify]
//
// Examples:
//
//	storefront search red shoes
//	ID=$(storefront products -category shoes -q | head -1)
//	storefront add -id "$ID" -qty 2
//	storefront summary
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/model"
)

// Global flags (apply to all commands)
var (
	quiet   bool
	noColor bool
	jsonOut bool
	verbose bool
)

// out receives command output.
var out io.Writer = os.Stdout

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorBlue, colorCyan, colorGray, colorBold = "", "", "", ""
}

var commands = map[string]func(args []string){
	"products": runProducts,
	"search":   runSearch,
	"product":  runProduct,
	"related":  runRelated,
	"filters":  runFilters,
	"export":   runExport,
	"cart":     runCart,
	"count":    runCount,
	"summary":  runSummary,
	"diff":     runDiff,
	"add":      runAdd,
	"update":   runUpdate,
	"remove":   runRemove,
	"clear":    runClear,
	"checkout": runCheckout,
	"login":    runLogin,
	"register": runRegister,
	"logout":   runLogout,
	"whoami":   runWhoami,
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	}

	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	run(args)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `storefront - shop from the terminal

Usage:
  storefront <command> [options]

Catalog:
  products  List products, optionally by category or brand
  search    Search products; -i reads queries from stdin as you type
  product   Show one product
  related   List products from the same category
  filters   List category and brand filters
  export    Write products or the cart to an .xlsx workbook

Cart:
  cart      Show the cart
  count     Show the cart badge
  summary   Show the cart with totals
  diff      Compare the device cart with the shop cart
  add       Add a product
  update    Change a line's quantity
  remove    Remove a line
  clear     Empty the cart on this device
  checkout  Place the order

Account:
  login     Sign in
  register  Create an account
  logout    Sign out
  whoami    Show the signed-in user

Configuration is read from the environment (API_URL, STORAGE_BACKEND,
STATE_FILE, ...) and an optional .env file.

Run 'storefront <command> -h' for command-specific options.
`)
}

// newFlagSet returns a flag set carrying the global flags.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output ids or values")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&jsonOut, "json", false, "Print JSON instead of text")
	fs.BoolVar(&verbose, "v", false, "Verbose - log shop API calls to stderr")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: storefront %s [options]\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// start parses args and builds the application. The returned function
// releases it.
func start(fs *flag.FlagSet, args []string) (context.Context, *app.App, func()) {
	fs.Parse(args)
	if noColor {
		disableColors()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(ctx)
	if err != nil {
		stop()
		fatal("Failed to load config: %v", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		stop()
		fatal("Failed to start: %v", err)
	}

	return ctx, a, func() {
		a.Close()
		stop()
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(out, "%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(out, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(out, "%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(out, "%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

// printJSON writes v as indented JSON.
func printJSON(v any) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("Failed to encode output: %v", err)
	}
}

// userMessage is the text shown for err. APIErrors show their message,
// and the full chain under -v.
func userMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && !verbose {
		return apiErr.Message
	}
	return err.Error()
}

func fatalErr(err error) {
	fatal("%s", userMessage(err))
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
