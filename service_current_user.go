package keyline

import (
	"context"
	"errors"

	"github.com/keyline-auth/keyline/cache"
	"github.com/keyline-auth/keyline/store"
)

const currentUserKeyPrefix = "current_user:"

// CurrentUser resolves the bearer token for provider into the full user
// projection through a read-through cache. Role edits do not reach cached
// projections until the entry expires or the user logs out.
func (s *Service) CurrentUser(ctx context.Context, provider, bearer string) (*CurrentUser, error) {
	subject, err := s.resolveSubject(ctx, provider, bearer)
	if err != nil {
		return nil, err
	}

	key := currentUserKeyPrefix + subject
	if s.cache != nil {
		var cached CurrentUser
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.WithError(err).Warn("current-user cache read failed")
		}
	}

	projection, err := s.buildProjection(ctx, provider, subject)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, projection); err != nil {
			s.log.WithError(err).Warn("current-user cache write failed")
		}
	}
	return projection, nil
}

// resolveSubject verifies bearer for provider and returns the provider-side
// subject identifier.
func (s *Service) resolveSubject(ctx context.Context, provider, bearer string) (string, error) {
	switch provider {
	case ProviderGoogle:
		if s.verifier == nil {
			return "", ErrInvalidProvider
		}
		claims, err := s.verifier.Verify(ctx, bearer)
		if err != nil {
			return "", ErrUnauthorized
		}
		return claims.Subject, nil

	case ProviderEmail:
		claims, err := s.tokens.ParseAccess(bearer)
		if err != nil {
			return "", ErrUnauthorized
		}
		return claims.Subject, nil

	default:
		return "", ErrInvalidProvider
	}
}

// buildProjection loads user, identity and role names from the stores. For
// email accounts the subject is the user id itself.
func (s *Service) buildProjection(ctx context.Context, provider, subject string) (*CurrentUser, error) {
	identity, err := s.db.IdentityBySubject(ctx, provider, subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user, err := s.db.UserByID(ctx, identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	roles, err := s.db.RolesOfUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	projection := &CurrentUser{User: *user, Identity: *identity}
	projection.User.PasswordHash = ""
	for _, r := range roles {
		projection.Roles = append(projection.Roles, r.Name)
		projection.RoleIDs = append(projection.RoleIDs, r.ID)
	}
	return projection, nil
}

// Authorize checks the user's first role against object and action. A user
// with no roles is always denied.
func (s *Service) Authorize(user *CurrentUser, object, action string) error {
	if user == nil || len(user.RoleIDs) == 0 {
		return ErrForbidden
	}
	if !s.enforcer.Check(user.RoleIDs[0], object, action) {
		return ErrForbidden
	}
	return nil
}

// Logout evicts the cached projection and, for google sessions, revokes the
// provider access token. The session row is left in place.
func (s *Service) Logout(ctx context.Context, provider, bearer string) error {
	subject, err := s.resolveSubject(ctx, provider, bearer)
	if err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, currentUserKeyPrefix+subject); err != nil {
			s.log.WithError(err).Warn("current-user cache eviction failed")
		}
	}

	if provider != ProviderGoogle || s.google == nil {
		return nil
	}

	identity, err := s.db.IdentityBySubject(ctx, provider, subject)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sess, err := s.db.SessionByUser(ctx, identity.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.google.Revoke(ctx, sess.AccessToken); err != nil {
		s.log.WithError(err).Warn("provider token revocation failed")
	}
	return nil
}
