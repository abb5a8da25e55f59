package gate

import "context"

// Profile is a named set of permissions assigned to a user.
type Profile interface {
	ID() uint
	Name() string
	HasPermission(permission Permission) bool
	Permissions() []Permission
}

// ProfileResolver resolves a user to their profile.
// A nil profile with a nil error means the user has no profile assigned.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// AnyMatches reports whether one of granted covers requested.
func AnyMatches(granted []Permission, requested Permission) bool {
	for _, perm := range granted {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}
