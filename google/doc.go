// Package google is the Google OAuth2 provider integration: auth-code flow,
// token refresh, userinfo, revocation and ID-token verification over JWKS.
package google
