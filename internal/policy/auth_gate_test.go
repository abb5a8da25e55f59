package policy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/diewo77/go-blog/auth"
	"github.com/diewo77/go-blog/gate"
	"github.com/diewo77/go-blog/internal/config"
	"github.com/diewo77/go-blog/internal/db"
	"github.com/diewo77/go-blog/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(config.DatabaseConfig{Driver: "sqlite", Path: "file:" + t.Name() + "?mode=memory&cache=shared"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	require.NoError(t, db.Seed(conn, "", ""))
	return conn
}

func createUser(t *testing.T, conn *gorm.DB, email, profile string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "x"}
	if profile != "" {
		id, err := db.ProfileID(conn, profile)
		require.NoError(t, err)
		u.ProfileID = &id
	}
	require.NoError(t, conn.Create(&u).Error)
	return u
}

func asUser(r *http.Request, id uint) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), id))
}

func TestDBProfileResolver(t *testing.T) {
	conn := setupDB(t)
	writer := createUser(t, conn, "writer@example.com", models.ProfileUser)
	bare := createUser(t, conn, "bare@example.com", "")
	resolver := NewDBProfileResolver(conn)
	ctx := context.Background()

	p, err := resolver.Resolve(ctx, writer.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.ProfileUser, p.Name())
	assert.True(t, p.HasPermission("article:create"))
	assert.True(t, p.HasPermission("article:delete"))
	assert.False(t, p.HasPermission("user:list"))
	assert.Equal(t, []gate.Permission{"article:*"}, p.Permissions())

	p, err = resolver.Resolve(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = resolver.Resolve(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestRequirePermission(t *testing.T) {
	conn := setupDB(t)
	writer := createUser(t, conn, "writer@example.com", models.ProfileUser)
	bare := createUser(t, conn, "bare@example.com", "")
	ag := NewAuthGate(conn, time.Minute)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := ag.RequirePermission("article", gate.ActionCreate)(ok)

	tests := []struct {
		name   string
		userID uint
		accept string
		want   int
	}{
		{"anonymous browser", 0, "", http.StatusSeeOther},
		{"anonymous api", 0, "application/json", http.StatusUnauthorized},
		{"no profile", bare.ID, "", http.StatusForbidden},
		{"writer", writer.ID, "", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/article/creer", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.userID != 0 {
				req = asUser(req, tt.userID)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	conn := setupDB(t)
	admin := createUser(t, conn, "admin@example.com", models.ProfileAdmin)
	writer := createUser(t, conn, "writer@example.com", models.ProfileUser)
	ag := NewAuthGate(conn, time.Minute)
	h := ag.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, asUser(httptest.NewRequest(http.MethodGet, "/admin/users", nil), writer.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, asUser(httptest.NewRequest(http.MethodGet, "/admin/users", nil), admin.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	req := asUser(httptest.NewRequest(http.MethodGet, "/", nil), admin.ID)
	assert.True(t, ag.IsAdmin(req))
	assert.True(t, ag.CanResource(req, "article", "delete"), "*:* covers everything")
}

func TestInvalidateUser(t *testing.T) {
	conn := setupDB(t)
	u := createUser(t, conn, "late@example.com", "")
	ag := NewAuthGate(conn, time.Hour)
	ctx := auth.WithUserID(context.Background(), u.ID)

	assert.False(t, ag.Can(ctx, gate.ActionCreate, "article"))

	id, err := db.ProfileID(conn, models.ProfileUser)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&u).Update("profile_id", id).Error)
	assert.False(t, ag.Can(ctx, gate.ActionCreate, "article"), "cached until invalidated")

	ag.InvalidateUser(u.ID)
	assert.True(t, ag.Can(ctx, gate.ActionCreate, "article"))
}
