package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/httpx"
	"github.com/diewo77/go-blog/internal/models"
)

// ProfileInvalidator drops cached profiles after an assignment.
type ProfileInvalidator interface {
	InvalidateUser(userID uint)
}

// AdminUserHandler lets administrators assign profiles to users.
type AdminUserHandler struct {
	DB    *gorm.DB
	Cache ProfileInvalidator
}

// NewAdminUserHandler creates a new admin user handler.
func NewAdminUserHandler(db *gorm.DB, cache ProfileInvalidator) *AdminUserHandler {
	return &AdminUserHandler{DB: db, Cache: cache}
}

// List displays all users with their profile assignments.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.DB.WithContext(r.Context()).Preload("Profile").Order("id").Find(&users).Error; err != nil {
		klog.Errorf("admin users: %v", err)
		serverError(w, r)
		return
	}
	var profiles []models.Profile
	if err := h.DB.WithContext(r.Context()).Order("name").Find(&profiles).Error; err != nil {
		klog.Errorf("admin users: profiles: %v", err)
		serverError(w, r)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"users":    users,
			"profiles": profiles,
		})
		return
	}
	render(w, r, http.StatusOK, "admin/users/index.html", map[string]any{
		"Users":    users,
		"Profiles": profiles,
	})
}

// AssignProfile handles POST /admin/users/{id}/profile. An empty or "0"
// profile_id removes the profile.
func (h *AdminUserHandler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || userID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_user_id", nil)
		return
	}

	var profileID *uint
	if raw := r.FormValue("profile_id"); raw != "" && raw != "0" {
		pid, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || pid == 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_profile_id", nil)
			return
		}
		var profile models.Profile
		if err := h.DB.WithContext(r.Context()).First(&profile, pid).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
				return
			}
			klog.Errorf("assign profile: %v", err)
			serverError(w, r)
			return
		}
		id := profile.ID
		profileID = &id
	}

	res := h.DB.WithContext(r.Context()).Model(&models.User{}).Where("id = ?", userID).Update("profile_id", profileID)
	if res.Error != nil {
		klog.Errorf("assign profile to %d: %v", userID, res.Error)
		serverError(w, r)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "user_not_found", nil)
		return
	}
	if h.Cache != nil {
		h.Cache.InvalidateUser(uint(userID))
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"user_id":    userID,
			"profile_id": profileID,
		})
		return
	}
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
