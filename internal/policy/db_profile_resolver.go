package policy

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/diewo77/go-blog/gate"
	"github.com/diewo77/go-blog/internal/models"
)

// DBProfileResolver fetches user profiles from the database.
type DBProfileResolver struct {
	DB *gorm.DB
}

// NewDBProfileResolver creates a new database-backed profile resolver.
func NewDBProfileResolver(db *gorm.DB) *DBProfileResolver {
	return &DBProfileResolver{DB: db}
}

// Resolve loads the user's profile with its permissions. Unknown users and
// users without a profile resolve to nil.
func (r *DBProfileResolver) Resolve(ctx context.Context, userID uint) (gate.Profile, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Preload("Profile.Permissions").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Profile == nil {
		return nil, nil
	}
	return newProfileAdapter(user.Profile), nil
}

// profileAdapter exposes a models.Profile as gate.Profile.
type profileAdapter struct {
	id    uint
	name  string
	perms []gate.Permission
}

func newProfileAdapter(p *models.Profile) *profileAdapter {
	perms := make([]gate.Permission, len(p.Permissions))
	for i, perm := range p.Permissions {
		perms[i] = gate.NewPermission(perm.ResourceType, gate.Action(perm.Action))
	}
	return &profileAdapter{id: p.ID, name: p.Name, perms: perms}
}

func (a *profileAdapter) ID() uint     { return a.id }
func (a *profileAdapter) Name() string { return a.name }

// HasPermission supports the "*:*" and "resource:*" wildcards.
func (a *profileAdapter) HasPermission(perm gate.Permission) bool {
	return gate.AnyMatches(a.perms, perm)
}

func (a *profileAdapter) Permissions() []gate.Permission {
	return append([]gate.Permission(nil), a.perms...)
}
