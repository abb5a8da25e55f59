package gate

import "strings"

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Permission is an allowed action on a resource type, written "resource:action"
// (e.g. "article:create").
type Permission string

// Wildcards for super permissions
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// NewPermission builds a permission from a resource type and an action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// ParsePermission reads a "resource:action" code. ok is false when the code
// has no separator or an empty side.
func ParsePermission(code string) (Permission, bool) {
	res, act, found := strings.Cut(strings.TrimSpace(code), ":")
	if !found || res == "" || act == "" {
		return "", false
	}
	return NewPermission(res, Action(act)), true
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	res, act, found := strings.Cut(string(p), ":")
	if !found {
		return "", ""
	}
	return res, Action(act)
}

// Matches reports whether p grants requested.
// "*:*" grants everything and "article:*" grants every article action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == WildcardAll
}
