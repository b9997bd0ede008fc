package store

import (
	"time"

	"gorm.io/gorm"
)

// User is an account holder. PasswordHash is empty for accounts created
// through an OAuth provider that never set a password.
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	Name         string `gorm:"size:255"`
	Picture      string `gorm:"size:512"`
	PasswordHash string `gorm:"size:512"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// Identity links a user to an external provider account. Subject is the
// provider's stable identifier for the account.
type Identity struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"index;size:36;not null"`
	Provider  string `gorm:"size:32;not null;uniqueIndex:idx_provider_subject"`
	Subject   string `gorm:"size:255;not null;uniqueIndex:idx_provider_subject"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role is a named permission bundle. At most one role carries IsDefault,
// which is granted to every new registration.
type Role struct {
	ID          string `gorm:"primaryKey;size:36"`
	Name        string `gorm:"uniqueIndex;size:128;not null"`
	Description string `gorm:"size:512"`
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID    string `gorm:"primaryKey;size:36"`
	RoleID    string `gorm:"primaryKey;size:36"`
	CreatedAt time.Time
}

// Session holds a user's provider tokens. One row per user; a fresh login
// replaces the row's tokens through reconciliation rather than adding rows.
type Session struct {
	ID           string `gorm:"primaryKey;size:36"`
	UserID       string `gorm:"uniqueIndex;size:36;not null"`
	Provider     string `gorm:"size:32;not null"`
	AccessToken  string `gorm:"size:2048"`
	RefreshToken string `gorm:"size:2048"`
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PolicyRule persists enforcer state in casbin's table shape: Ptype "p"
// rows are policies (V0 subject, V1 object, V2 action), Ptype "g" rows are
// role edges (V0 child, V1 parent).
type PolicyRule struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	Ptype string `gorm:"size:4;not null;uniqueIndex:idx_policy_rule"`
	V0    string `gorm:"size:128;uniqueIndex:idx_policy_rule"`
	V1    string `gorm:"size:128;uniqueIndex:idx_policy_rule"`
	V2    string `gorm:"size:128;uniqueIndex:idx_policy_rule"`
}
