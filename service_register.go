package keyline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/keyline-auth/keyline/store"
)

// RegisterWithPassword creates an account from email and password: the user
// row, a self-referential email identity link and the default role, all in
// one transaction.
func (s *Service) RegisterWithPassword(ctx context.Context, email, pass string) (*store.User, error) {
	if err := validateCredentials(email, pass); err != nil {
		return nil, err
	}

	if _, err := s.db.UserByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, pass)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &store.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.db.Transaction(ctx, func(tx Database) error {
		return s.createUserWithRole(ctx, tx, user, ProviderEmail, user.ID, "")
	}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "provider": ProviderEmail}).
		Info("user registered")
	return user, nil
}

// createUserWithRole inserts the user, its identity link for provider and
// the role assignment inside tx. An empty roleName means the default role.
func (s *Service) createUserWithRole(ctx context.Context, tx Database, user *store.User, provider, subject, roleName string) error {
	if err := tx.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrUserExists
		}
		return err
	}

	identity := &store.Identity{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Provider: provider,
		Subject:  subject,
	}
	if err := tx.CreateIdentity(ctx, identity); err != nil {
		return err
	}

	var role *store.Role
	var err error
	if roleName == "" {
		role, err = tx.DefaultRole(ctx)
		if errors.Is(err, store.ErrNotFound) {
			return ErrDefaultRoleMissing
		}
	} else {
		role, err = tx.RoleByName(ctx, roleName)
	}
	if err != nil {
		return err
	}
	return tx.AssignRole(ctx, user.ID, role.ID)
}
