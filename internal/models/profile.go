package models

import (
	"time"

	"gorm.io/gorm"
)

// Well-known profile names created by the seeder.
const (
	ProfileAdmin = "admin"
	ProfileUser  = "user"
)

// Profile groups permissions. A user has at most one profile.
type Profile struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool           `gorm:"default:false" json:"is_system"`
	Permissions []Permission   `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
	Users       []User         `gorm:"foreignKey:ProfileID" json:"-"`
}

// Codes lists the profile's permissions as "resource:action".
func (p *Profile) Codes() []string {
	codes := make([]string, 0, len(p.Permissions))
	for _, perm := range p.Permissions {
		codes = append(codes, perm.Code())
	}
	return codes
}

// Permission is one action on a resource type, "*" matching any.
type Permission struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	ResourceType string         `gorm:"size:50;not null;index:idx_perm_resource_action" json:"resource_type"`
	Action       string         `gorm:"size:50;not null;index:idx_perm_resource_action" json:"action"`
	Description  string         `gorm:"size:200" json:"description,omitempty"`
}

// Code returns the permission in "resource:action" format for matching.
func (p Permission) Code() string {
	return p.ResourceType + ":" + p.Action
}
