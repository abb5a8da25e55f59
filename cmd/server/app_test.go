package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-blog/auth"
	"github.com/diewo77/go-blog/internal/config"
	"github.com/diewo77/go-blog/internal/db"
	"github.com/diewo77/go-blog/internal/forms"
	"github.com/diewo77/go-blog/internal/models"
	"github.com/diewo77/go-blog/internal/policy"
	"github.com/diewo77/go-blog/internal/uploads"
	"github.com/diewo77/go-blog/view"
)

func newTestApp(t *testing.T) (*App, *gorm.DB, *uploads.ImageStore) {
	t.Helper()
	auth.SetSecret("app-test")
	t.Cleanup(func() { auth.SetSecret("") })
	view.ResetForTests()

	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(conn, "admin@example.com", "s3cret-pass"))

	images, err := uploads.NewImageStore(t.TempDir(), forms.MaxImageBytes)
	require.NoError(t, err)
	cfg := policy.NewRouterConfig(conn, images, forms.DefaultImageRules())
	return NewApp(conn, cfg, images, "/uploads/"), conn, images
}

func loginCookie(t *testing.T, conn *gorm.DB, email string) *http.Cookie {
	t.Helper()
	var u models.User
	require.NoError(t, conn.Where("email = ?", email).First(&u).Error)
	rec := httptest.NewRecorder()
	auth.CreateSession(rec, u.ID)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestHealthz(t *testing.T) {
	app, _, _ := newTestApp(t)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRootRedirectsToList(t *testing.T) {
	app, _, _ := newTestApp(t)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/article/liste", rec.Header().Get("Location"))
}

func TestArticleRoutes_Access(t *testing.T) {
	app, conn, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/article/liste", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, path := range []string{"/article/creer", "/article/modifier/1", "/article/supprimer/1"} {
		rec = httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	req := httptest.NewRequest(http.MethodGet, "/article/creer", nil)
	req.AddCookie(loginCookie(t, conn, "admin@example.com"))
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/article/modifier/999", nil)
	req.AddCookie(loginCookie(t, conn, "admin@example.com"))
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	app, conn, _ := newTestApp(t)
	require.NoError(t, conn.Create(&models.User{Email: "reader@example.com", Password: "x"}).Error)

	req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(loginCookie(t, conn, "reader@example.com"))
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/users", nil)
	req.AddCookie(loginCookie(t, conn, "admin@example.com"))
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadsAreServed(t *testing.T) {
	app, _, images := newTestApp(t)
	require.NoError(t, os.WriteFile(filepath.Join(images.Dir, "photo-1.png"), []byte("\x89PNG\r\n\x1a\n"), 0o644))

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/uploads/photo-1.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}
