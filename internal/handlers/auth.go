package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/auth"
	"github.com/diewo77/go-blog/internal/models"
	"github.com/diewo77/go-blog/validation"
)

// AuthHandler serves login, signup and logout.
type AuthHandler struct {
	db *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{db: db}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		render(w, r, http.StatusOK, "login.html", nil)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	var user models.User
	if err := h.db.WithContext(r.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		render(w, r, http.StatusUnauthorized, "login.html", map[string]any{"Error": "invalid_credentials", "Email": email})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		render(w, r, http.StatusUnauthorized, "login.html", map[string]any{"Error": "invalid_credentials", "Email": email})
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/article/liste", http.StatusSeeOther)
}

// Signup creates an account with the "user" profile, which grants the article permissions.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		render(w, r, http.StatusOK, "signup.html", nil)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	name := strings.TrimSpace(r.FormValue("name"))
	data := map[string]any{"Email": email, "Name": name}

	v := make(validation.Violations)
	validation.Required("email", email, v)
	validation.Required("password", password, v)
	if !v.Empty() {
		data["Errors"] = v
		render(w, r, http.StatusUnprocessableEntity, "signup.html", data)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		klog.Errorf("signup: hash password: %v", err)
		serverError(w, r)
		return
	}

	user := models.User{Email: email, Password: string(hashedPassword), Name: name}
	var profile models.Profile
	err = h.db.WithContext(r.Context()).Where("name = ?", models.ProfileUser).First(&profile).Error
	switch {
	case err == nil:
		user.ProfileID = &profile.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		klog.Warningf("signup: profile %q missing, %s gets no permissions", models.ProfileUser, email)
	default:
		klog.Errorf("signup: load profile: %v", err)
		serverError(w, r)
		return
	}

	if err := h.db.WithContext(r.Context()).Create(&user).Error; err != nil {
		data["Error"] = "email_taken"
		render(w, r, http.StatusConflict, "signup.html", data)
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/article/liste", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/article/liste", http.StatusSeeOther)
}
