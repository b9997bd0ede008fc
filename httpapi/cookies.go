package httpapi

import (
	"net/http"
	"time"

	"github.com/keyline-auth/keyline"
)

const (
	cookieAccessToken  = "access_token"
	cookieRefreshToken = "refresh_token"
	cookieProvider     = "provider"
)

// setAuthCookies writes the token pair and provider tag. Secure is dropped
// only in local environments.
func (s *Server) setAuthCookies(w http.ResponseWriter, pair *keyline.TokenPair) {
	for _, c := range []struct{ name, value string }{
		{cookieAccessToken, pair.AccessToken},
		{cookieRefreshToken, pair.RefreshToken},
		{cookieProvider, pair.Provider},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    c.value,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   !s.cfg.Local,
		})
	}
}

// clearAuthCookies expires every auth cookie immediately.
func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{cookieAccessToken, cookieRefreshToken, cookieProvider} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   !s.cfg.Local,
		})
	}
}
