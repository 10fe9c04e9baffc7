// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gurkanbulca/tasklist/internal/database"
	"github.com/gurkanbulca/tasklist/internal/service"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CSRF     CSRFConfig
	Tasks    TasksConfig
}

type ServerConfig struct {
	GRPCPort         string
	HTTPPort         string
	Environment      string
	AutoMigrate      bool
	EnableReflection bool
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite3
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Path     string // sqlite3 only
}

type JWTConfig struct {
	AccessSecret        string
	AccessTokenDuration time.Duration
}

type CSRFConfig struct {
	Enabled bool
	Secret  string
}

// TasksConfig controls list pagination.
type TasksConfig struct {
	PageSize    int
	MaxPageSize int
}

const (
	defaultAccessSecret = "dev-access-secret-change-in-production"
	defaultCSRFSecret   = "dev-csrf-secret-change-in-production"
)

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			GRPCPort:         getEnv("GRPC_PORT", "50051"),
			HTTPPort:         getEnv("HTTP_PORT", "8080"),
			Environment:      getEnv("ENVIRONMENT", "development"),
			AutoMigrate:      getEnvAsBool("AUTO_MIGRATE", true),
			EnableReflection: getEnvAsBool("ENABLE_REFLECTION", false),
			ReadTimeout:      getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:     getEnvAsDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "tasklist"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			Path:     getEnv("DB_PATH", "tasklist.db"),
		},
		JWT: JWTConfig{
			AccessSecret:        getEnv("JWT_ACCESS_SECRET", getEnv("JWT_SECRET", defaultAccessSecret)),
			AccessTokenDuration: getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", 24*time.Hour),
		},
		CSRF: CSRFConfig{
			Enabled: getEnvAsBool("CSRF_ENABLED", true),
			Secret:  getEnv("CSRF_SECRET", defaultCSRFSecret),
		},
		Tasks: TasksConfig{
			PageSize:    getEnvAsInt("TASKS_PAGE_SIZE", 100),
			MaxPageSize: getEnvAsInt("TASKS_MAX_PAGE_SIZE", 100),
		},
	}, nil
}

// ValidateConfig reports settings the server cannot start with.
func (c *Config) ValidateConfig() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Tasks.PageSize <= 0 {
		return fmt.Errorf("TASKS_PAGE_SIZE must be positive, got %d", c.Tasks.PageSize)
	}
	if c.Tasks.MaxPageSize < c.Tasks.PageSize {
		return fmt.Errorf("TASKS_MAX_PAGE_SIZE (%d) is smaller than TASKS_PAGE_SIZE (%d)", c.Tasks.MaxPageSize, c.Tasks.PageSize)
	}

	if c.IsProduction() {
		if c.JWT.AccessSecret == defaultAccessSecret || len(c.JWT.AccessSecret) < 32 {
			return fmt.Errorf("JWT_ACCESS_SECRET must be set to at least 32 characters in production")
		}
		if c.CSRF.Enabled && (c.CSRF.Secret == defaultCSRFSecret || len(c.CSRF.Secret) < 32) {
			return fmt.Errorf("CSRF_SECRET must be set to at least 32 characters in production")
		}
	}

	return nil
}

// ToDatabaseConfig converts to the database connection settings.
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Driver:   c.Database.Driver,
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.DBName,
		SSLMode:  c.Database.SSLMode,
		Path:     c.Database.Path,
		Debug:    c.IsDevelopment(),
	}
}

// ToTaskOptions converts to task service options.
func (c *Config) ToTaskOptions() service.Options {
	return service.Options{
		PageSize:    c.Tasks.PageSize,
		MaxPageSize: c.Tasks.MaxPageSize,
		Validation:  service.DefaultValidationConfig(),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Try parsing as duration string (e.g., "15m", "24h")
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}

	return defaultValue
}
