package keyline

import "errors"

var (
	// ErrUnauthorized is returned when a credential or token is rejected.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is returned on a password mismatch for an
	// existing account.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when an email resolves to no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering an email that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrResourceExists is returned on uniqueness conflicts outside
	// registration: duplicate role names, second default role, seeding an
	// existing email.
	ErrResourceExists = errors.New("resource already exists")
	// ErrDefaultRoleMissing means no role is flagged as default. This is an
	// operator misconfiguration, not a client error.
	ErrDefaultRoleMissing = errors.New("no default role configured")
	// ErrSessionInvalid is returned when no session matches the presented
	// refresh token.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrRefreshTokenExpired is returned when a refresh token is expired or
	// fails verification.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrInvalidProvider is returned for an unrecognized provider tag.
	ErrInvalidProvider = errors.New("invalid oauth provider")
	// ErrProviderUnreachable is returned when the provider cannot be
	// reached at the transport level.
	ErrProviderUnreachable = errors.New("oauth provider unreachable")
	// ErrForbidden is returned when an authenticated user lacks a policy
	// granting the requested object and action.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned when request input fails validation before
	// any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrRoleNotFound is returned when a role id resolves to nothing.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleProtected is returned when deleting a role that must not be
	// removed.
	ErrRoleProtected = errors.New("role is protected")
	// ErrPolicyBackend is returned when the policy persistence backend
	// rejects a write. The failure is propagated, never retried.
	ErrPolicyBackend = errors.New("policy backend error")
)
