// Package db opens the database for the configured driver, migrates the
// schema and seeds the privilege profiles.
package db

import (
	"fmt"
	"regexp"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"k8s.io/klog/v2"

	"github.com/diewo77/go-blog/internal/config"
)

const connectAttempts = 5

var (
	kvPasswordRe   = regexp.MustCompile(`(password=)\S+`)
	userPasswordRe = regexp.MustCompile(`^([^:@/]+):([^@]+)@`)
)

// Dialector returns the GORM dialector for cfg.Driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "mysql":
		return mysql.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects with a few retries so the server can start alongside its database.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}
	klog.V(2).Infof("connecting to %s: %s", cfg.Driver, maskDSN(cfg.DSN()))

	var conn *gorm.DB
	for i := 1; i <= connectAttempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = Ping(conn)
		}
		if err == nil {
			return conn, nil
		}
		if i < connectAttempts {
			klog.Warningf("database connection attempt %d/%d failed: %v", i, connectAttempts, err)
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect %s after %d attempts: %w", cfg.Driver, connectAttempts, err)
}

// Ping runs SELECT 1.
func Ping(conn *gorm.DB) error {
	if err := conn.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}

func maskDSN(dsn string) string {
	dsn = kvPasswordRe.ReplaceAllString(dsn, "${1}***")
	return userPasswordRe.ReplaceAllString(dsn, "${1}:***@")
}
