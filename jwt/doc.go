// Package jwt issues and verifies the HS256 access and refresh tokens
// used by the auth engine.
package jwt
