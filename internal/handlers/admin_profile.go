package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/httpx"
	"github.com/diewo77/go-blog/internal/models"
	"github.com/diewo77/go-blog/validation"
)

const tplAdminProfiles = "admin/profiles/index.html"

// ProfileFlusher drops every cached profile; a profile change can affect
// any number of users.
type ProfileFlusher interface {
	InvalidateAll()
}

// AdminProfileHandler lets administrators create profiles, choose their
// permissions and delete unused ones.
type AdminProfileHandler struct {
	DB    *gorm.DB
	Cache ProfileFlusher
}

// NewAdminProfileHandler creates a new admin profile handler.
func NewAdminProfileHandler(db *gorm.DB, cache ProfileFlusher) *AdminProfileHandler {
	return &AdminProfileHandler{DB: db, Cache: cache}
}

// List displays all profiles with their permissions and the permission catalogue.
func (h *AdminProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, nil, "")
}

func (h *AdminProfileHandler) renderList(w http.ResponseWriter, r *http.Request, status int, errs validation.Violations, name string) {
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Preload("Permissions").Order("name").Find(&profiles).Error; err != nil {
		klog.Errorf("admin profiles: %v", err)
		serverError(w, r)
		return
	}
	var permissions []models.Permission
	if err := h.DB.WithContext(r.Context()).Order("resource_type, action").Find(&permissions).Error; err != nil {
		klog.Errorf("admin profiles: permissions: %v", err)
		serverError(w, r)
		return
	}

	if httpx.WantsJSON(r) {
		if len(errs) > 0 {
			httpx.JSONError(w, status, "validation_error", errs)
			return
		}
		httpx.JSON(w, status, map[string]any{
			"profiles":    profiles,
			"permissions": permissions,
		})
		return
	}

	// Checked boxes per profile, keyed by permission ID.
	granted := make(map[uint]map[uint]bool, len(profiles))
	for _, p := range profiles {
		set := make(map[uint]bool, len(p.Permissions))
		for _, perm := range p.Permissions {
			set[perm.ID] = true
		}
		granted[p.ID] = set
	}
	render(w, r, status, tplAdminProfiles, map[string]any{
		"Profiles":    profiles,
		"Permissions": permissions,
		"Granted":     granted,
		"Errors":      errs,
		"Name":        name,
	})
}

// Create handles POST /admin/profiles. The name is required and unique.
func (h *AdminProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	profile := models.Profile{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	errs := validation.Violations{}
	validation.Required("name", profile.Name, errs)
	if len(errs) > 0 {
		h.renderList(w, r, http.StatusUnprocessableEntity, errs, profile.Name)
		return
	}

	var count int64
	if err := h.DB.WithContext(r.Context()).Model(&models.Profile{}).Where("name = ?", profile.Name).Count(&count).Error; err != nil {
		klog.Errorf("create profile: %v", err)
		serverError(w, r)
		return
	}
	if count > 0 {
		errs.Add("name", "profile_taken")
		h.renderList(w, r, http.StatusConflict, errs, profile.Name)
		return
	}
	if err := h.DB.WithContext(r.Context()).Create(&profile).Error; err != nil {
		klog.Errorf("create profile %q: %v", profile.Name, err)
		serverError(w, r)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, profile)
		return
	}
	http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
}

// SavePermissions handles POST /admin/profiles/{id}/permissions. The checked
// "permissions" values replace the profile's permission set.
func (h *AdminProfileHandler) SavePermissions(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profile(w, r, false)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}

	var ids []uint
	for _, s := range r.Form["permissions"] {
		if pid, err := strconv.ParseUint(s, 10, 64); err == nil && pid > 0 {
			ids = append(ids, uint(pid))
		}
	}
	var permissions []models.Permission
	if len(ids) > 0 {
		if err := h.DB.WithContext(r.Context()).Where("id IN ?", ids).Find(&permissions).Error; err != nil {
			klog.Errorf("save permissions: %v", err)
			serverError(w, r)
			return
		}
	}
	if err := h.DB.WithContext(r.Context()).Model(&profile).Association("Permissions").Replace(permissions); err != nil {
		klog.Errorf("save permissions of profile %d: %v", profile.ID, err)
		serverError(w, r)
		return
	}
	if h.Cache != nil {
		h.Cache.InvalidateAll()
	}
	klog.V(2).Infof("profile %s now holds %d permissions", profile.Name, len(permissions))

	if httpx.WantsJSON(r) {
		profile.Permissions = permissions
		httpx.JSON(w, http.StatusOK, map[string]any{
			"profile":     profile,
			"permissions": profile.Codes(),
		})
		return
	}
	http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
}

// Delete handles POST /admin/profiles/{id}/delete. Seeded profiles and
// profiles still assigned to users are kept.
func (h *AdminProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profile(w, r, true)
	if !ok {
		return
	}
	if profile.IsSystem {
		httpx.JSONError(w, http.StatusForbidden, "cannot_delete_system_profile", nil)
		return
	}
	if len(profile.Users) > 0 {
		httpx.JSONError(w, http.StatusConflict, "profile_has_users", nil)
		return
	}
	if err := h.DB.WithContext(r.Context()).Unscoped().Select("Permissions").Delete(&profile).Error; err != nil {
		klog.Errorf("delete profile %d: %v", profile.ID, err)
		serverError(w, r)
		return
	}
	if h.Cache != nil {
		h.Cache.InvalidateAll()
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"deleted": profile.ID})
		return
	}
	http.Redirect(w, r, "/admin/profiles", http.StatusSeeOther)
}

// profile loads the {id} profile, writing 400/404 itself on failure.
func (h *AdminProfileHandler) profile(w http.ResponseWriter, r *http.Request, withUsers bool) (models.Profile, bool) {
	var profile models.Profile
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_profile_id", nil)
		return profile, false
	}
	q := h.DB.WithContext(r.Context())
	if withUsers {
		q = q.Preload("Users")
	}
	if err := q.First(&profile, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return profile, false
		}
		klog.Errorf("load profile %d: %v", id, err)
		serverError(w, r)
		return profile, false
	}
	return profile, true
}
