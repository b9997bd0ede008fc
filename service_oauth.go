package keyline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/keyline-auth/keyline/google"
	"github.com/keyline-auth/keyline/store"
)

// GoogleAuthURL returns the provider consent URL for state.
func (s *Service) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrInvalidProvider
	}
	return s.google.AuthCodeURL(state), nil
}

// LoginWithGoogle exchanges an authorization code, provisions a local
// account when the email is new and reconciles the session. The provider's
// id_token serves as the bearer access token for these users; no local
// access token is minted.
func (s *Service) LoginWithGoogle(ctx context.Context, code string) (*TokenPair, error) {
	if s.google == nil {
		return nil, ErrInvalidProvider
	}

	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	info, err := s.google.UserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	user, err := s.db.UserByEmail(ctx, info.Email)
	switch {
	case err == nil:
		// Known email, skip provisioning entirely.

	case errors.Is(err, store.ErrNotFound):
		user = &store.User{
			ID:      uuid.NewString(),
			Email:   info.Email,
			Name:    info.Name,
			Picture: info.Picture,
		}
		if err := s.db.Transaction(ctx, func(tx Database) error {
			return s.createUserWithRole(ctx, tx, user, ProviderGoogle, info.Sub, "")
		}); err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "provider": ProviderGoogle}).
			Info("user provisioned from oauth callback")

	default:
		return nil, err
	}

	if _, err := s.getOrCreateSession(ctx, user.ID, ProviderGoogle, token.AccessToken, token.RefreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  token.IDToken,
		RefreshToken: token.RefreshToken,
		Provider:     ProviderGoogle,
	}, nil
}

// classifyProviderError maps provider failures onto the domain taxonomy:
// an invalid_grant answer is an authorization failure, other provider codes
// stay provider errors, transport failures become unreachable.
func classifyProviderError(err error) error {
	var pe *google.ProviderError
	if errors.As(err, &pe) {
		if pe.Code == "invalid_grant" {
			return ErrUnauthorized
		}
		return pe
	}
	if errors.Is(err, google.ErrUnreachable) {
		return fmt.Errorf("%w: %v", ErrProviderUnreachable, err)
	}
	return err
}
