package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/keyline-auth/keyline"
)

// providerFrom rejects unknown provider path segments up front.
func providerFrom(r *http.Request) (string, error) {
	provider := chi.URLParam(r, "provider")
	if provider != keyline.ProviderGoogle {
		return "", keyline.ErrInvalidProvider
	}
	return provider, nil
}

func (s *Server) handleOAuthURL(w http.ResponseWriter, r *http.Request) {
	if _, err := providerFrom(r); err != nil {
		s.respondErr(w, err)
		return
	}

	url, err := s.svc.GoogleAuthURL(uuid.NewString())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]string{"url": url})
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if _, err := providerFrom(r); err != nil {
		s.respondErr(w, err)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		s.respondErr(w, keyline.ErrValidation)
		return
	}

	pair, err := s.svc.LoginWithGoogle(r.Context(), code)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	s.respond(w, http.StatusOK, "logged in", pair)
}

// handleOAuthIntercept echoes the authorization code back. Debug aid for
// wiring up provider consoles without a frontend.
func (s *Server) handleOAuthIntercept(w http.ResponseWriter, r *http.Request) {
	if _, err := providerFrom(r); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, "", map[string]string{
		"code":  r.URL.Query().Get("code"),
		"state": r.URL.Query().Get("state"),
	})
}
