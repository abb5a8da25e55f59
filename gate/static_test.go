package gate

import "context"

// ResolverFunc adapts a plain function to ProfileResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (Profile, error)

func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (Profile, error) {
	return f(ctx, user)
}

// StaticProfile is an in-memory profile for tests.
type StaticProfile struct {
	id          uint
	name        string
	permissions map[Permission]bool
}

// NewStaticProfile creates a profile with the given permissions.
func NewStaticProfile(id uint, name string, permissions ...Permission) *StaticProfile {
	p := &StaticProfile{
		id:          id,
		name:        name,
		permissions: make(map[Permission]bool, len(permissions)),
	}
	for _, perm := range permissions {
		p.permissions[perm] = true
	}
	return p
}

func (p *StaticProfile) ID() uint     { return p.id }
func (p *StaticProfile) Name() string { return p.name }

func (p *StaticProfile) Permissions() []Permission {
	perms := make([]Permission, 0, len(p.permissions))
	for perm := range p.permissions {
		perms = append(perms, perm)
	}
	return perms
}

// HasPermission supports wildcard matching.
func (p *StaticProfile) HasPermission(requested Permission) bool {
	return AnyMatches(p.Permissions(), requested)
}

// StaticResolver maps users to fixed profiles.
type StaticResolver[U comparable] struct {
	profiles map[U]Profile
}

func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns a profile to a user.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.profiles[user] = profile
}

func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	return r.profiles[user], nil
}
