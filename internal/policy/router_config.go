package policy

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/go-blog/internal/forms"
	"github.com/diewo77/go-blog/internal/handlers"
	"github.com/diewo77/go-blog/internal/uploads"
)

// ProfileCacheTTL is how long resolved profiles are kept.
const ProfileCacheTTL = 5 * time.Minute

// RouterConfig holds the configured handlers and the authorization gate.
type RouterConfig struct {
	AuthGate *AuthGate

	AdminUserHandler    *handlers.AdminUserHandler
	AdminProfileHandler *handlers.AdminProfileHandler
	AuthHandler         *handlers.AuthHandler
	ArticleHandler      *handlers.ArticleHandler
}

// NewRouterConfig wires handlers to db, the image store and the gate.
//
//	cfg := policy.NewRouterConfig(db, images, forms.DefaultImageRules())
//	mux.Handle("POST /article/creer", auth.RequireAuth(
//		cfg.AuthGate.RequirePermission("article", gate.ActionCreate)(
//			http.HandlerFunc(cfg.ArticleHandler.Create))))
func NewRouterConfig(db *gorm.DB, images *uploads.ImageStore, rules forms.ImageRules) *RouterConfig {
	authGate := NewAuthGate(db, ProfileCacheTTL)
	return &RouterConfig{
		AuthGate:            authGate,
		AdminUserHandler:    handlers.NewAdminUserHandler(db, authGate),
		AdminProfileHandler: handlers.NewAdminProfileHandler(db, authGate),
		AuthHandler:         handlers.NewAuthHandler(db),
		ArticleHandler:      handlers.NewArticleHandler(db, images, rules),
	}
}
