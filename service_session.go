package keyline

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/keyline-auth/keyline/store"
)

// getOrCreateSession reconciles the user's single session row against a new
// token pair. A matching stored refresh token means idempotent re-login and
// the row is returned untouched; a differing one is replaced in place; no
// row creates one.
func (s *Service) getOrCreateSession(ctx context.Context, userID, provider, access, refresh string) (*store.Session, error) {
	existing, err := s.db.SessionByUser(ctx, userID)
	switch {
	case err == nil:
		if existing.RefreshToken == refresh {
			return existing, nil
		}
		existing.Provider = provider
		existing.AccessToken = access
		existing.RefreshToken = refresh
		existing.ExpiresAt = s.now().Add(s.sessionTTL)
		if err := s.db.UpdateSession(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil

	case errors.Is(err, store.ErrNotFound):
		sess := &store.Session{
			ID:           uuid.NewString(),
			UserID:       userID,
			Provider:     provider,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    s.now().Add(s.sessionTTL),
		}
		if err := s.db.CreateSession(ctx, sess); err != nil {
			return nil, err
		}
		return sess, nil

	default:
		return nil, err
	}
}
