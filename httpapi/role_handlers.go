package httpapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/keyline-auth/keyline"
)

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRoles(w, r, "read") {
		return
	}
	roles, err := s.svc.ListRoles(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, "", roles)
}

func (s *Server) handlePaginateRoles(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRoles(w, r, "read") {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := s.svc.PaginateRoles(r.Context(), page, limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, "", result)
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRoles(w, r, "read") {
		return
	}
	role, err := s.svc.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, "", role)
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRoles(w, r, "create") {
		return
	}
	var in keyline.RoleInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondErr(w, err)
		return
	}
	role, err := s.svc.CreateRole(r.Context(), in)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusCreated, "role created", role)
}

func (s *Server) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRoles(w, r, "update") {
		return
	}
	var in keyline.RoleInput
	if err := decodeJSON(r, &in); err != nil {
		s.respondErr(w, err)
		return
	}
	role, err := s.svc.UpdateRole(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, "role updated", role)
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeRoles(w, r, "delete") {
		return
	}
	if err := s.svc.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusOK, "role deleted", nil)
}

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Object  string   `json:"object"`
		Actions []string `json:"actions"`
	}
	catalog := make([]entry, 0, len(s.cfg.Permissions))
	for object, actions := range s.cfg.Permissions {
		catalog = append(catalog, entry{Object: object, Actions: actions})
	}
	sort.Slice(catalog, func(i, j int) bool { return catalog[i].Object < catalog[j].Object })
	s.respond(w, http.StatusOK, "", catalog)
}

func (s *Server) handleSeedSuperUser(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	user, err := s.svc.SeedSuperAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respond(w, http.StatusCreated, "super user seeded", map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}
