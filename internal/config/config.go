// Package config provides application configuration loaded from an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upload   UploadConfig   `yaml:"upload"`
	App      AppConfig      `yaml:"app"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string `yaml:"port"`
	ReadTimeout     int    `yaml:"read_timeout"`     // seconds
	WriteTimeout    int    `yaml:"write_timeout"`    // seconds
	IdleTimeout     int    `yaml:"idle_timeout"`     // seconds
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
}

// DatabaseConfig selects the driver and its connection settings.
// Driver is one of "postgres", "mysql" or "sqlite".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // sqlite file or DSN
	Debug    bool   `yaml:"debug"`
}

// UploadConfig configures where article images go.
type UploadConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int64  `yaml:"max_bytes"`
	URL      string `yaml:"url"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev           bool   `yaml:"dev"`
	Migrations    bool   `yaml:"migrations"`
	SQLMigrations bool   `yaml:"sql_migrations"`
	SessionSecret string `yaml:"session_secret"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	case "sqlite":
		return d.Path
	default:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	}
}

// URL returns the PostgreSQL connection string in URL format, as used by golang-migrate.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Duration converts a seconds field into a time.Duration.
func Duration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Default returns the settings used for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "blog",
			DBName:  "blog",
			SSLMode: "disable",
			Path:    "blog.db",
		},
		Upload: UploadConfig{
			Dir:      "public/uploads",
			MaxBytes: 1024 * 1000, // "1024k", 1000-byte kilobytes
			URL:      "/uploads/",
		},
		App: AppConfig{
			Dev:        true,
			Migrations: true,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (or ./config.yaml when present), then environment variables.
func Load() (*Config, error) {
	cfg := Default()
	path := os.Getenv("CONFIG_FILE")
	required := path != ""
	if path == "" {
		path = "config.yaml"
	}
	if err := cfg.loadFile(path); err != nil {
		if required || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvInt("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvInt("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvInt("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvInt("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Database.Debug = getEnvBool("DB_DEBUG", c.Database.Debug)

	c.Upload.Dir = getEnv("UPLOAD_DIR", c.Upload.Dir)
	c.Upload.MaxBytes = int64(getEnvInt("UPLOAD_MAX_BYTES", int(c.Upload.MaxBytes)))
	c.Upload.URL = getEnv("UPLOAD_URL", c.Upload.URL)

	c.App.Dev = getEnvBool("DEV", c.App.Dev)
	c.App.Migrations = getEnvBool("MIGRATIONS", c.App.Migrations)
	c.App.SQLMigrations = getEnvBool("SQL_MIGRATIONS", c.App.SQLMigrations)
	c.App.SessionSecret = getEnv("SESSION_SECRET", c.App.SessionSecret)
	c.App.AdminEmail = getEnv("ADMIN_EMAIL", c.App.AdminEmail)
	c.App.AdminPassword = getEnv("ADMIN_PASSWORD", c.App.AdminPassword)
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Upload.Dir == "" {
		return errors.New("upload dir must be set")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive, got %d", c.Upload.MaxBytes)
	}
	// The built-in development key is public; anyone could forge a session.
	if !c.App.Dev && c.App.SessionSecret == "" {
		return errors.New("session secret must be set outside dev mode")
	}
	if c.App.SQLMigrations && c.Database.Driver != "postgres" {
		return errors.New("sql migrations are only available for postgres")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}
