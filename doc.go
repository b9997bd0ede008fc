// Package keyline is an authentication and authorization backend: email
// and Google OAuth2 login, single-session refresh-token management and
// role-based access control with hierarchical policies.
//
// The Service type orchestrates the concern subpackages (jwt, password,
// rbac, google, store, cache); httpapi exposes it over HTTP and
// cmd/keylined runs the server.
package keyline
