package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/keyline-auth/keyline"
)

type contextKey string

const currentUserKey contextKey = "current_user"

// authenticate resolves the user from the auth cookies and stores the
// projection on the request context.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer, provider, ok := authCookies(r)
		if !ok {
			s.respondErr(w, keyline.ErrUnauthorized)
			return
		}

		user, err := s.svc.CurrentUser(r.Context(), provider, bearer)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authCookies(r *http.Request) (bearer, provider string, ok bool) {
	access, err := r.Cookie(cookieAccessToken)
	if err != nil || access.Value == "" {
		return "", "", false
	}
	prov, err := r.Cookie(cookieProvider)
	if err != nil || prov.Value == "" {
		return "", "", false
	}
	return access.Value, prov.Value, true
}

// userFrom returns the projection stored by the authenticate middleware.
func userFrom(ctx context.Context) *keyline.CurrentUser {
	user, _ := ctx.Value(currentUserKey).(*keyline.CurrentUser)
	return user
}

// requireSuperKey gates privileged endpoints on a shared secret carried in
// the super_key header, base64 encoded.
func (s *Server) requireSuperKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		encoded := r.Header.Get("super_key")
		if encoded == "" || s.cfg.SuperKey == "" {
			s.respondErr(w, keyline.ErrUnauthorized)
			return
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			s.respondErr(w, keyline.ErrUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare(decoded, []byte(s.cfg.SuperKey)) != 1 {
			s.respondErr(w, keyline.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorizeRoles checks the caller against the roles object before any role
// mutation or read.
func (s *Server) authorizeRoles(w http.ResponseWriter, r *http.Request, action string) bool {
	if err := s.svc.Authorize(userFrom(r.Context()), "roles", action); err != nil {
		s.respondErr(w, err)
		return false
	}
	return true
}
