package store

import "context"

// CreateUser inserts u. Returns ErrDuplicate when the email is taken.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// UserByID loads a user by primary key.
func (s *Store) UserByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UserByEmail loads a user by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UpdateUser saves every field of u.
func (s *Store) UpdateUser(ctx context.Context, u *User) error {
	return translate(s.db.WithContext(ctx).Save(u).Error)
}

// CreateIdentity links a provider account to a user. Returns ErrDuplicate
// when the provider subject is already linked.
func (s *Store) CreateIdentity(ctx context.Context, id *Identity) error {
	return translate(s.db.WithContext(ctx).Create(id).Error)
}

// IdentityBySubject finds the link for a provider's subject identifier.
func (s *Store) IdentityBySubject(ctx context.Context, provider, subject string) (*Identity, error) {
	var id Identity
	err := s.db.WithContext(ctx).
		First(&id, "provider = ? AND subject = ?", provider, subject).Error
	if err != nil {
		return nil, translate(err)
	}
	return &id, nil
}

// IdentityByUser finds the user's link for provider, if any.
func (s *Store) IdentityByUser(ctx context.Context, userID, provider string) (*Identity, error) {
	var id Identity
	err := s.db.WithContext(ctx).
		First(&id, "user_id = ? AND provider = ?", userID, provider).Error
	if err != nil {
		return nil, translate(err)
	}
	return &id, nil
}
