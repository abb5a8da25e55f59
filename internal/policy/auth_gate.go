// Package policy wires the gate library to the application's users and
// profiles and exposes it as HTTP middleware.
package policy

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/auth"
	"github.com/diewo77/go-blog/gate"
	"github.com/diewo77/go-blog/httpx"
)

// AuthGate is the central authorization point: a ProfileGate over a cached
// profile resolver.
type AuthGate struct {
	Gate          *gate.ProfileGate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate resolves profiles from db and caches them for cacheTTL.
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	return NewAuthGateWithResolver(NewDBProfileResolver(db), cacheTTL)
}

// NewAuthGateWithResolver builds an AuthGate over any resolver.
func NewAuthGateWithResolver(resolver gate.ProfileResolver[uint], cacheTTL time.Duration) *AuthGate {
	cached := gate.NewCachedResolver[uint](resolver, cacheTTL)
	return &AuthGate{
		Gate:          gate.NewProfileGate[uint](cached),
		CacheResolver: cached,
	}
}

// Authorize checks the current user's profile for resourceType:action.
// Returns gate.ErrUnauthorized without a session, gate.ErrForbidden otherwise.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string) error {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return gate.ErrUnauthorized
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	return ag.Authorize(ctx, action, resourceType) == nil
}

// CanResource adapts Can to the template resolver signature (resource, action).
func (ag *AuthGate) CanResource(r *http.Request, resourceType, action string) bool {
	return ag.Can(r.Context(), gate.Action(action), resourceType)
}

// IsAdmin reports whether the current user holds "*:*".
func (ag *AuthGate) IsAdmin(r *http.Request) bool {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return false
	}
	return ag.Gate.AuthorizePermission(r.Context(), userID, gate.PermissionSuperAdmin) == nil
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's profile is changed.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// InvalidateAll clears the entire profile cache.
func (ag *AuthGate) InvalidateAll() {
	ag.CacheResolver.InvalidateAll()
}

// RequirePermission returns middleware refusing users whose profile lacks
// resourceType:action.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return ag.require(gate.NewPermission(resourceType, action))
}

// RequireAdmin returns middleware that only allows the "*:*" permission.
func (ag *AuthGate) RequireAdmin() func(http.Handler) http.Handler {
	return ag.require(gate.PermissionSuperAdmin)
}

func (ag *AuthGate) require(perm gate.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, _ := auth.UserIDFromContext(r.Context())
			err := ag.Gate.AuthorizePermission(r.Context(), userID, perm)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			Refuse(w, r, err)
			if errors.Is(err, gate.ErrForbidden) {
				klog.V(2).Infof("user %d denied %s on %s %s", userID, perm, r.Method, r.URL.Path)
			}
		})
	}
}

// Refuse answers an authorization error: login redirect (or 401 JSON)
// without a session, 403 otherwise.
func Refuse(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gate.ErrUnauthorized) {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}
