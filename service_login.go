package keyline

import (
	"context"
	"errors"
	"fmt"

	"github.com/keyline-auth/keyline/store"
)

// LoginWithPassword authenticates an email account and returns a freshly
// minted token pair. Existence and credential failures are distinct errors.
func (s *Service) LoginWithPassword(ctx context.Context, email, pass string) (*TokenPair, error) {
	user, err := s.db.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(ctx, pass, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, err
	}
	if _, err := s.getOrCreateSession(ctx, user.ID, ProviderEmail, pair.AccessToken, pair.RefreshToken); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("password login")
	return pair, nil
}

// mintPair issues a new access and refresh token for user.
func (s *Service) mintPair(ctx context.Context, user *store.User) (*TokenPair, error) {
	roles, err := s.db.RolesOfUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}

	access, err := s.tokens.CreateAccess(user.ID, user.Name, names, nil)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := s.tokens.CreateRefresh(user.ID)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, Provider: ProviderEmail}, nil
}
