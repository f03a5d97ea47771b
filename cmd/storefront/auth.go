package main

import (
	"fmt"
	"os"
	"time"

	"storefront/internal/adapter"
	"storefront/internal/session"
)

// =============================================================================
// ACCOUNT COMMANDS
// =============================================================================

func runLogin(args []string) {
	fs := newFlagSet("login", "login -email E -password P")
	var email, password string
	fs.StringVar(&email, "email", "", "Account email (required)")
	fs.StringVar(&password, "password", "", "Account password (required)")
	ctx, a, done := start(fs, args)
	defer done()

	if _, err := a.Sessions.SignIn(ctx, email, password); err != nil {
		fatalErr(err)
	}
	printStatus(a.Sessions.Status(ctx), session.MsgSignedIn)
}

func runRegister(args []string) {
	fs := newFlagSet("register", "register -email E -password P -first F -last L")
	var req adapter.SignUpRequest
	fs.StringVar(&req.Email, "email", "", "Email (required)")
	fs.StringVar(&req.Password, "password", "", "Password (required)")
	fs.StringVar(&req.FirstName, "first", "", "First name (required)")
	fs.StringVar(&req.LastName, "last", "", "Last name (required)")
	fs.StringVar(&req.Phone, "phone", "", "Phone")
	fs.StringVar(&req.Address, "address", "", "Street address")
	fs.StringVar(&req.City, "city", "", "City")
	fs.StringVar(&req.ZipCode, "zip", "", "ZIP code")
	fs.StringVar(&req.Country, "country", "", "Country")
	ctx, a, done := start(fs, args)
	defer done()

	if _, err := a.Sessions.SignUp(ctx, req); err != nil {
		fatalErr(err)
	}
	printStatus(a.Sessions.Status(ctx), session.MsgSignedUp)
}

func runLogout(args []string) {
	fs := newFlagSet("logout", "logout")
	ctx, a, done := start(fs, args)
	defer done()

	if err := a.Sessions.SignOut(ctx); err != nil {
		fatalErr(err)
	}
	printSuccess("%s", session.MsgSignedOut)
}

func runWhoami(args []string) {
	fs := newFlagSet("whoami", "whoami [-verify]")
	var verify bool
	fs.BoolVar(&verify, "verify", false, "Check the session with the shop first")
	ctx, a, done := start(fs, args)
	defer done()

	st := a.Sessions.Status(ctx)
	if verify {
		var err error
		if st, err = a.Sessions.Verify(ctx); err != nil {
			fatalErr(err)
		}
	}
	printStatus(st, "")
	if !st.Authenticated {
		os.Exit(1)
	}
}

func printStatus(st session.Status, msg string) {
	if jsonOut {
		printJSON(st)
		return
	}
	if quiet {
		fmt.Fprintln(out, st.Name)
		return
	}

	if msg != "" {
		printSuccess("%s", msg)
	}
	if !st.Authenticated {
		printInfo("Not signed in")
		return
	}
	fmt.Fprintf(out, "  Signed in as %s%s%s\n", colorCyan, st.Name, colorReset)
	if st.ExpiresAt != nil {
		if st.Expired {
			printWarning("Session expired %s", st.ExpiresAt.Local().Format(time.RFC1123))
		} else {
			printInfo("Session expires %s", st.ExpiresAt.Local().Format(time.RFC1123))
		}
	}
}
