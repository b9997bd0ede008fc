package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors mapped from the underlying database.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store is the persistence layer. All methods take a context and return
// sentinel errors above instead of driver errors where they are meaningful.
type Store struct {
	db *gorm.DB
}

// New wraps db. The connection must be opened with error translation
// enabled so duplicate keys surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every table the store uses.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&User{},
		&Identity{},
		&Role{},
		&UserRole{},
		&Session{},
		&PolicyRule{},
	)
}

// Transaction runs fn inside a database transaction, passing a Store bound
// to it. Returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return fmt.Errorf("store: %w", err)
	}
}
