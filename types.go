package keyline

import "github.com/keyline-auth/keyline/store"

// Provider tags accepted by login, refresh and current-user dispatch.
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

// SuperAdminRole is the reserved role name carrying the wildcard policy.
// It cannot be deleted through the role operations.
const SuperAdminRole = "super_admin"

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Provider     string `json:"provider"`
}

// CurrentUser is the resolved user projection: account, provider identity
// and role names. It is what the read-through cache stores.
type CurrentUser struct {
	User     store.User     `json:"user"`
	Identity store.Identity `json:"identity"`
	Roles    []string       `json:"roles"`
	RoleIDs  []string       `json:"role_ids"`
}

// RoleView is a role together with its permissions in "object:action" form.
type RoleView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsDefault   bool     `json:"is_default"`
	Permissions []string `json:"permissions,omitempty"`
}

// RolePage is one page of roles with pagination metadata.
type RolePage struct {
	Items        []RoleView `json:"items"`
	TotalItems   int64      `json:"total_items"`
	TotalPages   int64      `json:"total_pages"`
	CurrentPage  int        `json:"current_page"`
	ItemsPerPage int        `json:"items_per_page"`
}
