// Package store is the gorm-backed persistence layer: users, provider
// identities, roles, sessions and policy rules.
package store
