package store

import (
	"context"

	"github.com/keyline-auth/keyline/rbac"
)

const (
	ptypePolicy   = "p"
	ptypeRoleEdge = "g"
)

// PolicyAdapter persists enforcer mutations to the policy_rules table. It
// satisfies rbac.Adapter.
type PolicyAdapter struct {
	store *Store
}

// NewPolicyAdapter returns an adapter writing through s.
func NewPolicyAdapter(s *Store) *PolicyAdapter {
	return &PolicyAdapter{store: s}
}

func (a *PolicyAdapter) SavePolicy(ctx context.Context, p rbac.Policy) error {
	row := PolicyRule{Ptype: ptypePolicy, V0: p.Subject, V1: p.Object, V2: p.Action}
	err := translate(a.store.db.WithContext(ctx).Create(&row).Error)
	if err == ErrDuplicate {
		return nil
	}
	return err
}

func (a *PolicyAdapter) DeletePolicy(ctx context.Context, p rbac.Policy) error {
	return translate(a.store.db.WithContext(ctx).
		Delete(&PolicyRule{}, "ptype = ? AND v0 = ? AND v1 = ? AND v2 = ?",
			ptypePolicy, p.Subject, p.Object, p.Action).Error)
}

func (a *PolicyAdapter) SaveRoleEdge(ctx context.Context, child, parent string) error {
	row := PolicyRule{Ptype: ptypeRoleEdge, V0: child, V1: parent}
	err := translate(a.store.db.WithContext(ctx).Create(&row).Error)
	if err == ErrDuplicate {
		return nil
	}
	return err
}

func (a *PolicyAdapter) DeleteRoleEdge(ctx context.Context, child, parent string) error {
	return translate(a.store.db.WithContext(ctx).
		Delete(&PolicyRule{}, "ptype = ? AND v0 = ? AND v1 = ?",
			ptypeRoleEdge, child, parent).Error)
}

// LoadPolicies reads every persisted rule, split into policies and role
// edges for hydrating an enforcer at startup.
func (a *PolicyAdapter) LoadPolicies(ctx context.Context) ([]rbac.Policy, map[string][]string, error) {
	var rows []PolicyRule
	if err := a.store.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, nil, translate(err)
	}

	var policies []rbac.Policy
	edges := make(map[string][]string)
	for _, row := range rows {
		switch row.Ptype {
		case ptypePolicy:
			policies = append(policies, rbac.Policy{Subject: row.V0, Object: row.V1, Action: row.V2})
		case ptypeRoleEdge:
			edges[row.V0] = append(edges[row.V0], row.V1)
		}
	}
	return policies, edges, nil
}
