package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"strings"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/auth"
	"github.com/diewo77/go-blog/internal/config"
	"github.com/diewo77/go-blog/internal/db"
	"github.com/diewo77/go-blog/internal/forms"
	"github.com/diewo77/go-blog/internal/models"
	"github.com/diewo77/go-blog/internal/policy"
	"github.com/diewo77/go-blog/internal/uploads"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		klog.Fatalf("Invalid configuration: %v", err)
	}
	auth.SetSecret(cfg.App.SessionSecret)
	if cfg.App.SessionSecret == "" {
		klog.Warning("SESSION_SECRET is not set, using the public development key")
	}

	dbConn, err := db.Open(cfg.Database)
	if err != nil {
		klog.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateOnlyFlag {
		if err := migrate(cfg, dbConn, true); err != nil {
			klog.Fatalf("Migration failed: %v", err)
		}
		klog.Info("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
			klog.Fatalf("Seeding failed: %v", err)
		}
		klog.Info("Seeding completed successfully")
		return
	}

	if err := migrate(cfg, dbConn, cfg.App.Migrations); err != nil {
		klog.Fatalf("Migration failed: %v", err)
	}
	if err := db.Seed(dbConn, cfg.App.AdminEmail, cfg.App.AdminPassword); err != nil {
		klog.Fatalf("Seeding failed: %v", err)
	}

	// Sessions of deleted users are rejected.
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		dbConn.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count)
		return count > 0
	})

	images, err := uploads.NewImageStore(cfg.Upload.Dir, cfg.Upload.MaxBytes)
	if err != nil {
		klog.Fatalf("Upload directory: %v", err)
	}
	rules := forms.DefaultImageRules()
	rules.MaxBytes = cfg.Upload.MaxBytes

	routerCfg := policy.NewRouterConfig(dbConn, images, rules)
	uploadsURL := cfg.Upload.URL
	if !strings.HasSuffix(uploadsURL, "/") {
		uploadsURL += "/"
	}
	appHandler := NewApp(dbConn, routerCfg, images, uploadsURL)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout),
		IdleTimeout:  config.Duration(cfg.Server.IdleTimeout),
	}

	go func() {
		klog.Infof("Server starting on port %s (dev=%v, driver=%s)", cfg.Server.Port, cfg.App.Dev, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("Server error: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		config.Duration(cfg.Server.ShutdownTimeout),
		map[string]gfshutdown.Operation{
			// The pool closes only after in-flight requests are drained.
			"http-server": func(ctx context.Context) error {
				klog.Info("Shutdown signal received")
				if err := srv.Shutdown(ctx); err != nil {
					return err
				}
				sqlDB, err := dbConn.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		},
	)

	exitCode := <-wait
	klog.Infof("Server stopped with code %d", exitCode)
	klog.Flush()
	os.Exit(exitCode)
}

// migrate applies the embedded SQL migrations when enabled, otherwise the
// GORM auto-migration when run is set.
func migrate(cfg *config.Config, conn *gorm.DB, run bool) error {
	if cfg.App.SQLMigrations {
		return db.RunSQLMigrations(cfg.Database.URL())
	}
	if !run {
		return nil
	}
	return db.Migrate(conn)
}
