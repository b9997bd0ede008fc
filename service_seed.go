package keyline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/keyline-auth/keyline/rbac"
	"github.com/keyline-auth/keyline/store"
)

// SeedSuperAdmin registers a privileged account holding the super-admin
// role. When the role does not exist yet, its wildcard policy is written to
// the policy engine before the relational rows; a failed transaction then
// compensates by removing the policy again, since the two backends share no
// transactional boundary.
func (s *Service) SeedSuperAdmin(ctx context.Context, email, pass string) (*store.User, error) {
	if err := validateCredentials(email, pass); err != nil {
		return nil, err
	}

	if _, err := s.db.UserByEmail(ctx, email); err == nil {
		return nil, ErrResourceExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, pass)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role, err := s.db.RoleByName(ctx, SuperAdminRole)
	createRole := errors.Is(err, store.ErrNotFound)
	if err != nil && !createRole {
		return nil, err
	}

	var wildcard rbac.Policy
	if createRole {
		role = &store.Role{
			ID:          uuid.NewString(),
			Name:        SuperAdminRole,
			Description: "unrestricted access",
		}
		wildcard = rbac.Policy{Subject: role.ID, Object: rbac.Wildcard, Action: rbac.Wildcard}
		if err := s.enforcer.AddPolicy(ctx, wildcard); err != nil {
			return nil, policyErr(err)
		}
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	err = s.db.Transaction(ctx, func(tx Database) error {
		if createRole {
			if err := tx.CreateRole(ctx, role); err != nil {
				return err
			}
		}
		return s.createUserWithRole(ctx, tx, user, ProviderEmail, user.ID, SuperAdminRole)
	})
	if err != nil {
		if createRole {
			if cerr := s.enforcer.RemovePolicy(ctx, wildcard); cerr != nil {
				s.log.WithError(cerr).
					WithField("role_id", role.ID).
					Error("orphaned wildcard policy: compensation failed")
			}
		}
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("super admin seeded")
	return user, nil
}
