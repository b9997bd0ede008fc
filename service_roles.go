package keyline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/keyline-auth/keyline/rbac"
	"github.com/keyline-auth/keyline/store"
)

// RoleInput is the mutable surface of a role. Permissions use the
// "object:action" wire form; malformed entries are skipped, not rejected.
type RoleInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsDefault   bool     `json:"is_default"`
	Permissions []string `json:"permissions"`
}

// ListRoles returns every role without permissions.
func (s *Service) ListRoles(ctx context.Context) ([]RoleView, error) {
	roles, err := s.db.AllRoles(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]RoleView, len(roles))
	for i, r := range roles {
		views[i] = roleView(&r, nil)
	}
	return views, nil
}

// PaginateRoles returns one page of roles with totals.
func (s *Service) PaginateRoles(ctx context.Context, page, limit int) (*RolePage, error) {
	p := store.Page{Number: page, PerPage: limit}
	roles, total, err := s.db.Roles(ctx, p)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	views := make([]RoleView, len(roles))
	for i, r := range roles {
		views[i] = roleView(&r, nil)
	}
	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return &RolePage{
		Items:        views,
		TotalItems:   total,
		TotalPages:   totalPages,
		CurrentPage:  page,
		ItemsPerPage: limit,
	}, nil
}

// GetRole returns a role with its permissions from the policy engine.
func (s *Service) GetRole(ctx context.Context, id string) (*RoleView, error) {
	role, err := s.db.RoleByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}
	v := roleView(role, s.rolePermissions(role.ID))
	return &v, nil
}

// CreateRole inserts a role and grants its permission list as policies.
func (s *Service) CreateRole(ctx context.Context, in RoleInput) (*RoleView, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: role name required", ErrValidation)
	}
	if in.IsDefault {
		if err := s.ensureNoOtherDefault(ctx, ""); err != nil {
			return nil, err
		}
	}

	role := &store.Role{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		IsDefault:   in.IsDefault,
	}
	if err := s.db.CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrResourceExists
		}
		return nil, err
	}

	for _, p := range parsePermissions(role.ID, in.Permissions) {
		if err := s.enforcer.AddPolicy(ctx, p); err != nil {
			return nil, policyErr(err)
		}
	}

	v := roleView(role, s.rolePermissions(role.ID))
	return &v, nil
}

// UpdateRole rewrites a role's fields and reconciles its policies against
// the desired permission list with a set-diff. A nil or empty list removes
// every policy the role holds.
func (s *Service) UpdateRole(ctx context.Context, id string, in RoleInput) (*RoleView, error) {
	role, err := s.db.RoleByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}

	if in.IsDefault && !role.IsDefault {
		if err := s.ensureNoOtherDefault(ctx, role.ID); err != nil {
			return nil, err
		}
	}

	if in.Name != "" {
		role.Name = in.Name
	}
	if in.Description != "" {
		role.Description = in.Description
	}
	role.IsDefault = in.IsDefault
	if err := s.db.UpdateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrResourceExists
		}
		return nil, err
	}

	current := s.enforcer.FilteredPolicies(role.ID)
	desired := parsePermissions(role.ID, in.Permissions)
	toAdd, toRemove := rbac.Diff(current, desired)
	for _, p := range toAdd {
		if err := s.enforcer.AddPolicy(ctx, p); err != nil {
			return nil, policyErr(err)
		}
	}
	for _, p := range toRemove {
		if err := s.enforcer.RemovePolicy(ctx, p); err != nil {
			return nil, policyErr(err)
		}
	}

	v := roleView(role, s.rolePermissions(role.ID))
	return &v, nil
}

// DeleteRole soft-deletes a role and drops its policies. The super-admin
// role is protected.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	role, err := s.db.RoleByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRoleNotFound
	}
	if err != nil {
		return err
	}
	if role.Name == SuperAdminRole {
		return ErrRoleProtected
	}

	if err := s.db.DeleteRole(ctx, id); err != nil {
		return err
	}
	if err := s.enforcer.RemoveSubjectPolicies(ctx, id); err != nil {
		return policyErr(err)
	}
	return nil
}

// ensureNoOtherDefault rejects a second default role. exceptID exempts the
// role being updated.
func (s *Service) ensureNoOtherDefault(ctx context.Context, exceptID string) error {
	existing, err := s.db.DefaultRole(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != exceptID {
		return ErrResourceExists
	}
	return nil
}

func (s *Service) rolePermissions(roleID string) []string {
	var perms []string
	for _, p := range s.enforcer.FilteredPolicies(roleID) {
		perms = append(perms, rbac.JoinPermission(p.Object, p.Action))
	}
	return perms
}

// parsePermissions converts wire-form entries into policies for subject,
// skipping anything that is not exactly one "object:action" pair.
func parsePermissions(subject string, entries []string) []rbac.Policy {
	var out []rbac.Policy
	for _, entry := range entries {
		if strings.Count(entry, ":") != 1 {
			continue
		}
		object, action := rbac.SplitPermission(entry)
		if object == "" || action == "" {
			continue
		}
		out = append(out, rbac.Policy{Subject: subject, Object: object, Action: action})
	}
	return out
}

func policyErr(err error) error {
	if errors.Is(err, rbac.ErrBackend) {
		return fmt.Errorf("%w: %v", ErrPolicyBackend, err)
	}
	return err
}

func roleView(r *store.Role, perms []string) RoleView {
	return RoleView{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		IsDefault:   r.IsDefault,
		Permissions: perms,
	}
}
