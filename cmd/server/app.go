package main

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/go-blog/auth"
	"github.com/diewo77/go-blog/gate"
	"github.com/diewo77/go-blog/httpx"
	"github.com/diewo77/go-blog/internal/db"
	"github.com/diewo77/go-blog/internal/middleware"
	"github.com/diewo77/go-blog/internal/policy"
	"github.com/diewo77/go-blog/internal/uploads"
	"github.com/diewo77/go-blog/view"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux       *http.ServeMux
	db        *gorm.DB
	routerCfg *policy.RouterConfig
	images    *uploads.ImageStore
	staticDir string
}

// NewApp creates a new application with all routes configured. Uploaded
// images are served from images.Dir under uploadsURL.
func NewApp(db *gorm.DB, routerCfg *policy.RouterConfig, images *uploads.ImageStore, uploadsURL string) *App {
	app := &App{
		mux:       http.NewServeMux(),
		db:        db,
		routerCfg: routerCfg,
		images:    images,
		staticDir: "static",
	}
	// Templates hide links the user cannot follow.
	view.SetCanResolver(routerCfg.AuthGate.CanResource)
	view.SetIsAdminResolver(routerCfg.AuthGate.IsAdmin)
	view.SetFlashResolver(middleware.PopFlash)
	view.SetUploadsURL(uploadsURL)
	app.setupRoutes(uploadsURL)
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := middleware.Recover(middleware.Logging(auth.Middleware(middleware.Prefs(a.mux))))
	handler.ServeHTTP(w, r)
}

// setupRoutes configures all application routes.
func (a *App) setupRoutes(uploadsURL string) {
	// Public routes
	ah := a.routerCfg.AuthHandler
	arh := a.routerCfg.ArticleHandler

	a.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/article/liste", http.StatusSeeOther)
	})
	a.mux.HandleFunc("GET /healthz", a.health)
	a.mux.HandleFunc("GET /login", ah.Login)
	a.mux.HandleFunc("POST /login", ah.Login)
	a.mux.HandleFunc("GET /signup", ah.Signup)
	a.mux.HandleFunc("POST /signup", ah.Signup)
	a.mux.HandleFunc("GET /logout", ah.Logout)
	a.mux.HandleFunc("POST /logout", ah.Logout)

	a.mux.HandleFunc("GET /article/liste", arh.List)

	// Article writes: logged in + article permission
	create := a.protect("article", gate.ActionCreate, arh.Create)
	a.mux.Handle("GET /article/creer", create)
	a.mux.Handle("POST /article/creer", create)

	update := a.protect("article", gate.ActionUpdate, arh.Edit)
	a.mux.Handle("GET /article/modifier/{id}", update)
	a.mux.Handle("POST /article/modifier/{id}", update)

	remove := a.protect("article", gate.ActionDelete, arh.Delete)
	a.mux.Handle("GET /article/supprimer/{id}", remove)
	a.mux.Handle("POST /article/supprimer/{id}", remove)

	// Admin routes
	auh := a.routerCfg.AdminUserHandler
	a.mux.Handle("GET /admin/users",
		a.requireAdmin(http.HandlerFunc(auh.List)))
	a.mux.Handle("POST /admin/users/{id}/profile",
		a.requireAdmin(http.HandlerFunc(auh.AssignProfile)))

	aph := a.routerCfg.AdminProfileHandler
	a.mux.Handle("GET /admin/profiles",
		a.requireAdmin(http.HandlerFunc(aph.List)))
	a.mux.Handle("POST /admin/profiles",
		a.requireAdmin(http.HandlerFunc(aph.Create)))
	a.mux.Handle("POST /admin/profiles/{id}/permissions",
		a.requireAdmin(http.HandlerFunc(aph.SavePermissions)))
	a.mux.Handle("POST /admin/profiles/{id}/delete",
		a.requireAdmin(http.HandlerFunc(aph.Delete)))

	// Files
	a.mux.Handle("GET "+uploadsURL, http.StripPrefix(uploadsURL, http.FileServer(http.Dir(a.images.Dir))))
	a.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(a.staticDir))))
}

// protect wraps h with authentication and the resource permission check.
func (a *App) protect(resourceType string, action gate.Action, h http.HandlerFunc) http.Handler {
	return auth.RequireAuth(a.routerCfg.AuthGate.RequirePermission(resourceType, action)(h))
}

// requireAdmin wraps a handler to require the *:* permission.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return auth.RequireAuth(a.routerCfg.AuthGate.RequireAdmin()(next))
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(a.db); err != nil {
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
