package db

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/internal/models"
)

// Permission and profile definitions seeded on every start.
var (
	seedPermissions = []struct {
		ResourceType string
		Action       string
		Description  string
	}{
		{"*", "*", "Full system access"},
		{"article", "*", "All article actions"},
		{"article", "list", "List articles"},
		{"article", "view", "View articles"},
		{"article", "create", "Create articles"},
		{"article", "update", "Edit articles"},
		{"article", "delete", "Delete articles"},
		{"user", "*", "All user management"},
		{"user", "list", "List users"},
		{"user", "update", "Assign user profiles"},
	}

	seedProfiles = []struct {
		Name        string
		Description string
		Permissions []string
	}{
		{models.ProfileAdmin, "Full system administrator", []string{"*:*"}},
		{models.ProfileUser, "Writes and manages articles", []string{"article:*"}},
	}
)

// Seed creates the permissions, the system profiles and, when both are
// given, an admin account. It is idempotent.
func Seed(conn *gorm.DB, adminEmail, adminPassword string) error {
	if err := SeedPermissions(conn); err != nil {
		return err
	}
	if err := SeedProfiles(conn); err != nil {
		return err
	}
	if adminEmail != "" && adminPassword != "" {
		return SeedAdmin(conn, adminEmail, adminPassword)
	}
	return nil
}

// SeedPermissions creates the resource:action pairs used by the routes.
func SeedPermissions(conn *gorm.DB) error {
	for _, p := range seedPermissions {
		perm := models.Permission{
			ResourceType: p.ResourceType,
			Action:       p.Action,
			Description:  p.Description,
		}
		err := conn.Where("resource_type = ? AND action = ?", p.ResourceType, p.Action).
			FirstOrCreate(&perm).Error
		if err != nil {
			return fmt.Errorf("seed permission %s: %w", perm.Code(), err)
		}
	}
	return nil
}

// SeedProfiles creates the admin and user profiles and (re)binds their permissions.
func SeedProfiles(conn *gorm.DB) error {
	for _, p := range seedProfiles {
		var profile models.Profile
		err := conn.Where("name = ?", p.Name).First(&profile).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile = models.Profile{Name: p.Name, Description: p.Description, IsSystem: true}
			if err := conn.Create(&profile).Error; err != nil {
				return fmt.Errorf("create profile %s: %w", p.Name, err)
			}
		case err != nil:
			return err
		}

		var perms []models.Permission
		for _, code := range p.Permissions {
			resource, action, ok := strings.Cut(code, ":")
			if !ok {
				continue
			}
			var perm models.Permission
			if err := conn.Where("resource_type = ? AND action = ?", resource, action).First(&perm).Error; err == nil {
				perms = append(perms, perm)
			}
		}
		if err := conn.Model(&profile).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("bind permissions of %s: %w", p.Name, err)
		}
	}
	klog.V(2).Infof("seeded %d permissions and %d profiles", len(seedPermissions), len(seedProfiles))
	return nil
}

// SeedAdmin creates an account holding the admin profile unless the email exists.
func SeedAdmin(conn *gorm.DB, email, password string) error {
	var count int64
	if err := conn.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	profileID, err := ProfileID(conn, models.ProfileAdmin)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	user := models.User{Email: email, Name: "Admin", Password: string(hash), ProfileID: &profileID}
	if err := conn.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	klog.Infof("created admin account %s", email)
	return nil
}

// ProfileID looks up a profile by name.
func ProfileID(conn *gorm.DB, name string) (uint, error) {
	var profile models.Profile
	if err := conn.Select("id").Where("name = ?", name).First(&profile).Error; err != nil {
		return 0, fmt.Errorf("profile %s: %w", name, err)
	}
	return profile.ID, nil
}
