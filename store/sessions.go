package store

import "context"

// CreateSession inserts sess. Returns ErrDuplicate when the user already
// has a session row.
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	return translate(s.db.WithContext(ctx).Create(sess).Error)
}

// SessionByUser loads the user's session row.
func (s *Store) SessionByUser(ctx context.Context, userID string) (*Session, error) {
	var sess Session
	if err := s.db.WithContext(ctx).First(&sess, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}

// SessionByRefreshToken finds the session holding refreshToken.
func (s *Store) SessionByRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	var sess Session
	if err := s.db.WithContext(ctx).First(&sess, "refresh_token = ?", refreshToken).Error; err != nil {
		return nil, translate(err)
	}
	return &sess, nil
}

// UpdateSession saves every field of sess.
func (s *Store) UpdateSession(ctx context.Context, sess *Session) error {
	return translate(s.db.WithContext(ctx).Save(sess).Error)
}

// DeleteSession removes the user's session row if present.
func (s *Store) DeleteSession(ctx context.Context, userID string) error {
	return translate(s.db.WithContext(ctx).Delete(&Session{}, "user_id = ?", userID).Error)
}
