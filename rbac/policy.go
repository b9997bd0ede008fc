package rbac

import "strings"

// Policy is a single permission triple: subject may perform action on object.
// Object and Action may be "*" to match anything.
type Policy struct {
	Subject string
	Object  string
	Action  string
}

// Wildcard matches any object or action in a policy.
const Wildcard = "*"

// SplitPermission parses the "object:action" wire form. Input without a
// separator yields the whole string as object and an empty action; extra
// separators are kept in the action part.
func SplitPermission(s string) (object, action string) {
	object, action, _ = strings.Cut(s, ":")
	return object, action
}

// JoinPermission renders a policy's object and action in wire form.
func JoinPermission(object, action string) string {
	return object + ":" + action
}

// Diff computes the set difference between a subject's current policies and
// a desired set. toAdd holds desired policies not currently present, toRemove
// holds current policies absent from the desired set.
func Diff(current, desired []Policy) (toAdd, toRemove []Policy) {
	currentSet := make(map[Policy]struct{}, len(current))
	for _, p := range current {
		currentSet[p] = struct{}{}
	}
	desiredSet := make(map[Policy]struct{}, len(desired))
	for _, p := range desired {
		desiredSet[p] = struct{}{}
	}

	for _, p := range desired {
		if _, ok := currentSet[p]; !ok {
			toAdd = append(toAdd, p)
		}
	}
	for _, p := range current {
		if _, ok := desiredSet[p]; !ok {
			toRemove = append(toRemove, p)
		}
	}
	return toAdd, toRemove
}
