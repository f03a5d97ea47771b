// Package session signs users in and out and keeps the session slots in
// step with the shop API.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"storefront/internal/adapter"
	"storefront/internal/localstore"
	"storefront/internal/model"
)

// Messages shown inline when authentication fails.
const (
	MsgSignInFailed = "Invalid email or password. Please try again."
	MsgSignUpFailed = "Registration failed. Email may already be in use."
)

// Confirmation messages for session changes.
const (
	MsgSignedIn  = "Login successful! Welcome back."
	MsgSignedUp  = "Registration successful! Welcome to PinkShop."
	MsgSignedOut = "You have been logged out successfully."
)

// Status describes the stored session.
type Status struct {
	Authenticated bool       `json:"authenticated"`
	Name          string     `json:"name,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"` // from the token's exp claim, when it is a JWT
	Expired       bool       `json:"expired,omitempty"`
}

// Manager owns the session slots.
type Manager struct {
	auth   adapter.Auth
	store  *localstore.SessionStore
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates a session manager.
func NewManager(auth adapter.Auth, store *localstore.SessionStore, logger *slog.Logger) *Manager {
	return &Manager{
		auth:   auth,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Current returns the stored session.
func (m *Manager) Current(ctx context.Context) model.Session {
	return m.store.Load(ctx)
}

// SignIn exchanges credentials for a token and stores the session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.Session{}, model.NewRequiredFieldError("email")
	}
	if password == "" {
		return model.Session{}, model.NewRequiredFieldError("password")
	}

	resp, err := m.auth.SignIn(ctx, adapter.SignInRequest{Email: email, Password: password})
	if err != nil {
		return model.Session{}, m.authFailed(ctx, "sign in", MsgSignInFailed, err)
	}
	if resp.Token == "" {
		return model.Session{}, m.authFailed(ctx, "sign in", MsgSignInFailed, errors.New("response carried no token"))
	}

	sess := model.Session{Token: resp.Token, Name: withDefault(resp.User.DisplayName(), email)}
	if err := m.store.Save(ctx, sess); err != nil {
		return model.Session{}, model.NewInternalError(err)
	}

	m.logger.InfoContext(ctx, "signed in", slog.String("name", sess.Name))
	return sess, nil
}

// SignUp creates an account. Required fields are checked before any request
// is sent. The session is stored when the API signs the new user in.
func (m *Manager) SignUp(ctx context.Context, req adapter.SignUpRequest) (model.Session, error) {
	if err := req.Validate(); err != nil {
		return model.Session{}, err
	}

	resp, err := m.auth.SignUp(ctx, req)
	if err != nil {
		return model.Session{}, m.authFailed(ctx, "sign up", MsgSignUpFailed, err)
	}
	if resp.Token == "" {
		m.logger.InfoContext(ctx, "account created without a session", slog.String("email", req.Email))
		return model.Session{}, nil
	}

	name := resp.User.DisplayName()
	if name == "" {
		name = withDefault(strings.TrimSpace(req.FirstName+" "+req.LastName), req.Email)
	}
	sess := model.Session{Token: resp.Token, Name: name}
	if err := m.store.Save(ctx, sess); err != nil {
		return model.Session{}, model.NewInternalError(err)
	}

	m.logger.InfoContext(ctx, "signed up", slog.String("name", sess.Name))
	return sess, nil
}

// SignOut clears the token and display name.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return model.NewInternalError(err)
	}
	return nil
}

// Status reports the stored session. The token's exp claim is read without
// verifying the signature.
func (m *Manager) Status(ctx context.Context) Status {
	sess := m.store.Load(ctx)
	if !sess.IsAuthenticated() {
		return Status{}
	}

	st := Status{Authenticated: true, Name: sess.Name}
	if exp, ok := tokenExpiry(sess.Token); ok {
		st.ExpiresAt = &exp
		st.Expired = !m.now().Before(exp)
	}
	return st
}

// Verify asks the shop API whether the stored token is still accepted and
// signs out when it is rejected. Transport failures keep the session.
func (m *Manager) Verify(ctx context.Context) (Status, error) {
	sess := m.store.Load(ctx)
	if !sess.IsAuthenticated() {
		return Status{}, nil
	}

	if _, err := m.auth.CurrentUser(ctx, sess.Token); err != nil {
		status := model.RemoteStatus(err)
		if status != http.StatusUnauthorized && status != http.StatusForbidden {
			return m.Status(ctx), err
		}
		m.logger.WarnContext(ctx, "stored token rejected, signing out", slog.Int("remote_status", status))
		if err := m.SignOut(ctx); err != nil {
			return Status{}, err
		}
		return Status{}, nil
	}
	return m.Status(ctx), nil
}

func (m *Manager) authFailed(ctx context.Context, op, message string, err error) error {
	if errors.Is(err, model.ErrInvalidRequest) {
		return err
	}

	m.logger.WarnContext(ctx, op+" failed",
		slog.Int("remote_status", model.RemoteStatus(err)),
		slog.String("error", err.Error()),
	)

	status := http.StatusUnauthorized
	if rs := model.RemoteStatus(err); rs == 0 || rs >= 500 {
		status = http.StatusBadGateway
	}
	return &model.APIError{
		Code:         "AUTH_FAILED",
		Message:      message,
		StatusCode:   status,
		RemoteStatus: model.RemoteStatus(err),
		Err:          err,
	}
}

// tokenExpiry reads the exp claim of a JWT without verifying it.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

func withDefault(val, defaultVal string) string {
	if val == "" {
		return defaultVal
	}
	return val
}
