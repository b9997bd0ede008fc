// Package httpapi exposes the auth service over HTTP: JSON envelopes,
// cookie-based auth, and the role administration surface.
package httpapi
