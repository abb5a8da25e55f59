package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-blog/internal/models"
)

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func hasSession(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == "session" && c.Value != "" {
			return true
		}
	}
	return false
}

func TestSignupAssignsUserProfile(t *testing.T) {
	conn := setupTestDB(t)
	h := NewAuthHandler(conn)

	w := httptest.NewRecorder()
	h.Signup(w, formRequest("/signup", url.Values{"email": {"alice@example.com"}, "password": {"pw"}, "name": {"Alice"}}))
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.True(t, hasSession(w))

	var user models.User
	require.NoError(t, conn.Preload("Profile").Where("email = ?", "alice@example.com").First(&user).Error)
	require.NotNil(t, user.Profile)
	assert.Equal(t, models.ProfileUser, user.Profile.Name)
	assert.NotEqual(t, "pw", user.Password)

	// duplicate email
	w = httptest.NewRecorder()
	h.Signup(w, formRequest("/signup", url.Values{"email": {"alice@example.com"}, "password": {"pw"}}))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignupRequiresFields(t *testing.T) {
	h := NewAuthHandler(setupTestDB(t))
	w := httptest.NewRecorder()
	h.Signup(w, formRequest("/signup", url.Values{"email": {"bob@example.com"}}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, hasSession(w))
}

func TestLogin(t *testing.T) {
	conn := setupTestDB(t)
	h := NewAuthHandler(conn)
	signup := httptest.NewRecorder()
	h.Signup(signup, formRequest("/signup", url.Values{"email": {"carol@example.com"}, "password": {"secret"}}))
	require.Equal(t, http.StatusSeeOther, signup.Code)

	w := httptest.NewRecorder()
	h.Login(w, formRequest("/login", url.Values{"email": {"carol@example.com"}, "password": {"wrong"}}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, hasSession(w))

	w = httptest.NewRecorder()
	h.Login(w, formRequest("/login", url.Values{"email": {"carol@example.com"}, "password": {"secret"}}))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/article/liste", w.Header().Get("Location"))
	assert.True(t, hasSession(w))

	w = httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogout(t *testing.T) {
	h := NewAuthHandler(setupTestDB(t))
	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
