package localstore

import (
	"context"
	"fmt"
	"log/slog"

	"storefront/internal/model"
)

// SessionStore persists the bearer token and display name.
type SessionStore struct {
	slots    Slots
	tokenKey string
	nameKey  string
	logger   *slog.Logger
}

// NewSessionStore creates a session store on slots under namespace.
func NewSessionStore(slots Slots, namespace string, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		slots:    slots,
		tokenKey: Key(namespace, SlotToken),
		nameKey:  Key(namespace, SlotUserName),
		logger:   logger,
	}
}

// Load returns the stored session. A half-present session (token without
// name or the reverse) or an unreadable store is treated as anonymous.
func (s *SessionStore) Load(ctx context.Context) model.Session {
	token, okToken, err := s.slots.Get(ctx, s.tokenKey)
	if err != nil {
		s.logger.Warn("reading session token failed", slog.String("error", err.Error()))
		return model.Session{}
	}
	name, okName, err := s.slots.Get(ctx, s.nameKey)
	if err != nil {
		s.logger.Warn("reading session name failed", slog.String("error", err.Error()))
		return model.Session{}
	}

	sess := model.Session{Token: token, Name: name}
	if !okToken || !okName || !sess.IsAuthenticated() {
		return model.Session{}
	}
	return sess
}

// Save stores both slots. Token and name are required together.
func (s *SessionStore) Save(ctx context.Context, sess model.Session) error {
	if sess.Token == "" {
		return model.NewRequiredFieldError("token")
	}
	if sess.Name == "" {
		return model.NewRequiredFieldError("name")
	}
	if err := s.slots.Set(ctx, s.tokenKey, sess.Token); err != nil {
		return fmt.Errorf("saving session token: %w", err)
	}
	if err := s.slots.Set(ctx, s.nameKey, sess.Name); err != nil {
		return fmt.Errorf("saving session name: %w", err)
	}
	return nil
}

// Clear removes both slots.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.slots.Delete(ctx, s.tokenKey); err != nil {
		return fmt.Errorf("clearing session token: %w", err)
	}
	if err := s.slots.Delete(ctx, s.nameKey); err != nil {
		return fmt.Errorf("clearing session name: %w", err)
	}
	return nil
}
