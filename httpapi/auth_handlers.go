package httpapi

import (
	"net/http"

	"github.com/keyline-auth/keyline"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	user, err := s.svc.RegisterWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusCreated, "registered", map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	pair, err := s.svc.LoginWithPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	s.respond(w, http.StatusOK, "logged in", pair)
}

type refreshRequest struct {
	Provider     string `json:"provider"`
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	// Cookies win over the body so browser clients need not echo tokens.
	if c, err := r.Cookie(cookieRefreshToken); err == nil && c.Value != "" {
		req.RefreshToken = c.Value
	}
	if c, err := r.Cookie(cookieProvider); err == nil && c.Value != "" {
		req.Provider = c.Value
	}

	pair, err := s.svc.RefreshToken(r.Context(), req.Provider, req.RefreshToken)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.setAuthCookies(w, pair)
	s.respond(w, http.StatusOK, "refreshed", pair)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, "", userFrom(r.Context()))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	bearer, provider, ok := authCookies(r)
	if !ok {
		s.respondErr(w, keyline.ErrUnauthorized)
		return
	}
	if err := s.svc.Logout(r.Context(), provider, bearer); err != nil {
		s.respondErr(w, err)
		return
	}
	s.clearAuthCookies(w)
	s.respond(w, http.StatusOK, "logged out", nil)
}
