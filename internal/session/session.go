// Package session reads the shopper's auth state out of local storage.
// The backend remains the authority on tokens; this only answers
// "is logged in" and "is admin" for gating views.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/localstore"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const roleAdmin = "admin"

// AdminProfile is what the admin login stores under the admin key.
type AdminProfile struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

type State struct {
	store  localstore.Store
	logger *zap.Logger
	now    func() time.Time
}

func New(store localstore.Store, logger *zap.Logger) *State {
	return &State{store: store, logger: logger, now: time.Now}
}

// Token returns the stored bearer token, or "" when there is none.
func (s *State) Token(ctx context.Context) string {
	token, err := s.store.Get(ctx, localstore.KeyToken)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			s.logger.Warn("failed to read token", zap.Error(err))
		}
		return ""
	}
	return token
}

func (s *State) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, localstore.KeyToken, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// LoggedIn is true when a token is stored and, if it is a JWT carrying an
// exp claim, that claim lies in the future. Opaque tokens count as valid.
func (s *State) LoggedIn(ctx context.Context) bool {
	token := s.Token(ctx)
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return s.now().Before(exp.Time)
}

func (s *State) SetAdmin(ctx context.Context, profile AdminProfile) error {
	return localstore.SaveJSON(ctx, s.store, localstore.KeyAdmin, profile)
}

func (s *State) IsAdmin(ctx context.Context) bool {
	var profile AdminProfile
	if !localstore.LoadJSON(ctx, s.store, localstore.KeyAdmin, &profile, s.logger) {
		return false
	}
	return profile.Role == roleAdmin
}

// Logout forgets the token and any admin profile.
func (s *State) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, localstore.KeyToken); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	if err := s.store.Remove(ctx, localstore.KeyAdmin); err != nil {
		return fmt.Errorf("remove admin profile: %w", err)
	}
	return nil
}
