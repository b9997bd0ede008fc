package keyline

import (
	"context"
	"errors"

	"github.com/keyline-auth/keyline/store"
)

// RefreshToken renews a token pair for the given provider branch. Expiry is
// checked against the session row before any network call.
func (s *Service) RefreshToken(ctx context.Context, provider, refreshToken string) (*TokenPair, error) {
	switch provider {
	case ProviderGoogle:
		return s.refreshGoogle(ctx, refreshToken)
	case ProviderEmail:
		return s.refreshEmail(ctx, refreshToken)
	default:
		return nil, ErrInvalidProvider
	}
}

func (s *Service) refreshGoogle(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if s.google == nil {
		return nil, ErrInvalidProvider
	}

	sess, err := s.db.SessionByRefreshToken(ctx, refreshToken)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt.Before(s.now()) {
		return nil, ErrRefreshTokenExpired
	}

	token, err := s.google.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, classifyProviderError(err)
	}

	sess.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		sess.RefreshToken = token.RefreshToken
	}
	sess.ExpiresAt = s.now().Add(s.sessionTTL)
	if err := s.db.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  token.IDToken,
		RefreshToken: sess.RefreshToken,
		Provider:     ProviderGoogle,
	}, nil
}

func (s *Service) refreshEmail(ctx context.Context, refreshToken string) (*TokenPair, error) {
	// Verification failure and expiry are deliberately indistinguishable.
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, ErrRefreshTokenExpired
	}

	sess, err := s.db.SessionByUser(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if sess.ExpiresAt.Before(s.now()) {
		return nil, ErrRefreshTokenExpired
	}

	user, err := s.db.UserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	pair, err := s.mintPair(ctx, user)
	if err != nil {
		return nil, err
	}

	sess.AccessToken = pair.AccessToken
	sess.RefreshToken = pair.RefreshToken
	sess.ExpiresAt = s.now().Add(s.sessionTTL)
	if err := s.db.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}
	return pair, nil
}
