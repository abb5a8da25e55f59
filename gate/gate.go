// Package gate is a small profile based authorization library.
//
// A user is resolved to a Profile (a named set of "resource:action"
// permissions with wildcard support) and a ProfileGate answers whether that
// profile grants a given action on a resource type. The package has no
// dependency on the application's models; U is the user key type
// (a uint user id in this application).
package gate

import (
	"context"
	"errors"
)

// Sentinel errors returned by ProfileGate.Authorize.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ProfileGate checks profile permissions for users of type U.
type ProfileGate[U comparable] struct {
	resolver ProfileResolver[U]
}

func NewProfileGate[U comparable](resolver ProfileResolver[U]) *ProfileGate[U] {
	return &ProfileGate[U]{resolver: resolver}
}

// Authorize returns ErrUnauthorized for the zero user and ErrForbidden when
// the user has no profile or the profile lacks resourceType:action.
func (g *ProfileGate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string) error {
	return g.AuthorizePermission(ctx, user, NewPermission(resourceType, action))
}

// AuthorizePermission is Authorize for an already built permission.
func (g *ProfileGate[U]) AuthorizePermission(ctx context.Context, user U, perm Permission) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return ErrForbidden
	}
	if !profile.HasPermission(perm) {
		return ErrForbidden
	}
	return nil
}

// Can is Authorize returning a bool.
func (g *ProfileGate[U]) Can(ctx context.Context, user U, action Action, resourceType string) bool {
	return g.Authorize(ctx, user, action, resourceType) == nil
}
