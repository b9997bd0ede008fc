package rbac

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrBackend wraps failures from the persistence adapter. The in-memory
// state is left unchanged when the adapter rejects a write.
var ErrBackend = errors.New("policy backend error")

// Adapter persists policy mutations behind the enforcer. Implementations
// must be safe for concurrent use.
type Adapter interface {
	SavePolicy(ctx context.Context, p Policy) error
	DeletePolicy(ctx context.Context, p Policy) error
	SaveRoleEdge(ctx context.Context, child, parent string) error
	DeleteRoleEdge(ctx context.Context, child, parent string) error
}

// Enforcer answers access-control checks against an in-memory policy set
// with an optional role hierarchy. All reads take the read lock, so checks
// from request handlers never block each other.
type Enforcer struct {
	adapter Adapter

	mu       sync.RWMutex
	policies map[Policy]struct{}
	parents  map[string]map[string]struct{}
}

// NewEnforcer returns an empty enforcer. adapter may be nil, in which case
// mutations are memory-only.
func NewEnforcer(adapter Adapter) *Enforcer {
	return &Enforcer{
		adapter:  adapter,
		policies: make(map[Policy]struct{}),
		parents:  make(map[string]map[string]struct{}),
	}
}

// Check reports whether subject (or any role it inherits from) holds a
// policy matching object and action, honouring wildcards.
func (e *Enforcer) Check(subject, object, action string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, sub := range e.lineage(subject) {
		for p := range e.policies {
			if p.Subject != sub {
				continue
			}
			if matches(p.Object, object) && matches(p.Action, action) {
				return true
			}
		}
	}
	return false
}

func matches(pattern, value string) bool {
	return pattern == Wildcard || pattern == value
}

// lineage returns subject plus every ancestor reachable through role edges.
// Callers must hold at least the read lock.
func (e *Enforcer) lineage(subject string) []string {
	seen := map[string]struct{}{subject: {}}
	queue := []string{subject}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for parent := range e.parents[cur] {
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// AddPolicy inserts p, writing through to the adapter first. Adding an
// existing policy is a no-op and skips the adapter.
func (e *Enforcer) AddPolicy(ctx context.Context, p Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.policies[p]; ok {
		return nil
	}
	if e.adapter != nil {
		if err := e.adapter.SavePolicy(ctx, p); err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	e.policies[p] = struct{}{}
	return nil
}

// RemovePolicy deletes p, writing through to the adapter first. Removing an
// absent policy is a no-op and skips the adapter.
func (e *Enforcer) RemovePolicy(ctx context.Context, p Policy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.policies[p]; !ok {
		return nil
	}
	if e.adapter != nil {
		if err := e.adapter.DeletePolicy(ctx, p); err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	delete(e.policies, p)
	return nil
}

// RemoveSubjectPolicies drops every policy held directly by subject.
func (e *Enforcer) RemoveSubjectPolicies(ctx context.Context, subject string) error {
	for _, p := range e.FilteredPolicies(subject) {
		if err := e.RemovePolicy(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// FilteredPolicies returns the policies held directly by subject, in a
// stable order. Inherited policies are not included.
func (e *Enforcer) FilteredPolicies(subject string) []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Policy
	for p := range e.policies {
		if p.Subject == subject {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Object != out[j].Object {
			return out[i].Object < out[j].Object
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// Policies returns a snapshot of every policy, in a stable order.
func (e *Enforcer) Policies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Policy, 0, len(e.policies))
	for p := range e.policies {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Object != out[j].Object {
			return out[i].Object < out[j].Object
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// AddRoleEdge records that child inherits every policy of parent.
func (e *Enforcer) AddRoleEdge(ctx context.Context, child, parent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.parents[child][parent]; ok {
		return nil
	}
	if e.adapter != nil {
		if err := e.adapter.SaveRoleEdge(ctx, child, parent); err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	if e.parents[child] == nil {
		e.parents[child] = make(map[string]struct{})
	}
	e.parents[child][parent] = struct{}{}
	return nil
}

// RemoveRoleEdge deletes the inheritance edge from child to parent.
func (e *Enforcer) RemoveRoleEdge(ctx context.Context, child, parent string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.parents[child][parent]; !ok {
		return nil
	}
	if e.adapter != nil {
		if err := e.adapter.DeleteRoleEdge(ctx, child, parent); err != nil {
			return fmt.Errorf("%w: %v", ErrBackend, err)
		}
	}
	delete(e.parents[child], parent)
	if len(e.parents[child]) == 0 {
		delete(e.parents, child)
	}
	return nil
}

// RolesFor returns the ancestors subject inherits from, excluding subject
// itself.
func (e *Enforcer) RolesFor(subject string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []string
	for _, s := range e.lineage(subject) {
		if s != subject {
			out = append(out, s)
		}
	}
	return out
}

// Load replaces the in-memory state wholesale without touching the adapter.
// Used at startup to hydrate from persisted rows.
func (e *Enforcer) Load(policies []Policy, edges map[string][]string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.policies = make(map[Policy]struct{}, len(policies))
	for _, p := range policies {
		e.policies[p] = struct{}{}
	}
	e.parents = make(map[string]map[string]struct{}, len(edges))
	for child, parents := range edges {
		set := make(map[string]struct{}, len(parents))
		for _, p := range parents {
			set[p] = struct{}{}
		}
		e.parents[child] = set
	}
}
