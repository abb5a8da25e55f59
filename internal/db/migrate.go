package db

import (
	"embed"
	"errors"
	"fmt"

	migrate "github.com/golang-migrate/migrate/v4"
	// registers the postgres database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/internal/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Models lists every table managed by AutoMigrate.
func Models() []any {
	return []any{
		&models.Permission{},
		&models.Profile{},
		&models.User{},
		&models.Article{},
	}
}

// Migrate applies the schema with GORM AutoMigrate.
func Migrate(conn *gorm.DB) error {
	for _, m := range Models() {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	for _, table := range []string{"articles", "users", "profiles"} {
		if !conn.Migrator().HasTable(table) {
			return errors.New("missing table after migration: " + table)
		}
	}
	return nil
}

// RunSQLMigrations applies the embedded SQL migrations to a postgres URL.
func RunSQLMigrations(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, dirty, verr := m.Version()
	if verr == nil {
		klog.Infof("sql migrations at version %d (dirty=%v)", version, dirty)
	}
	return nil
}
