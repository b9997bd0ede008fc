// Package rbac implements role-based access control with wildcard policies
// and a transitive role hierarchy, backed by an optional persistence adapter.
package rbac
