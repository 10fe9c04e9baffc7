package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "DB_DRIVER", "TASKS_PAGE_SIZE", "JWT_ACCESS_TOKEN_DURATION", "CSRF_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 100, cfg.Tasks.PageSize)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenDuration)
	assert.True(t, cfg.CSRF.Enabled)
	assert.NoError(t, cfg.ValidateConfig())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "/tmp/tasks.db")
	t.Setenv("TASKS_PAGE_SIZE", "25")
	t.Setenv("CSRF_ENABLED", "false")
	t.Setenv("JWT_ACCESS_TOKEN_DURATION", "90m")
	t.Setenv("AUTO_MIGRATE", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "/tmp/tasks.db", cfg.Database.Path)
	assert.Equal(t, 25, cfg.Tasks.PageSize)
	assert.False(t, cfg.CSRF.Enabled)
	assert.Equal(t, 90*time.Minute, cfg.JWT.AccessTokenDuration)
	assert.True(t, cfg.Server.AutoMigrate, "unparsable bool falls back to default")
}

func TestValidateConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:   ServerConfig{Environment: "production"},
			Database: DatabaseConfig{Driver: "postgres"},
			JWT:      JWTConfig{AccessSecret: "0123456789abcdef0123456789abcdef"},
			CSRF:     CSRFConfig{Enabled: true, Secret: "fedcba9876543210fedcba9876543210"},
			Tasks:    TasksConfig{PageSize: 100, MaxPageSize: 100},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid production config"},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "oracle" },
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "default jwt secret in production",
			mutate:  func(c *Config) { c.JWT.AccessSecret = defaultAccessSecret },
			wantErr: "JWT_ACCESS_SECRET",
		},
		{
			name:    "short csrf secret in production",
			mutate:  func(c *Config) { c.CSRF.Secret = "short" },
			wantErr: "CSRF_SECRET",
		},
		{
			name: "csrf disabled ignores secret",
			mutate: func(c *Config) {
				c.CSRF.Enabled = false
				c.CSRF.Secret = ""
			},
		},
		{
			name:    "max page size below page size",
			mutate:  func(c *Config) { c.Tasks.MaxPageSize = 10 },
			wantErr: "TASKS_MAX_PAGE_SIZE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.ValidateConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConversions(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "data/tasks.db")
	t.Setenv("TASKS_PAGE_SIZE", "25")
	t.Setenv("TASKS_MAX_PAGE_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	db := cfg.ToDatabaseConfig()
	assert.Equal(t, "sqlite3", db.Driver)
	assert.Equal(t, "data/tasks.db", db.Path)
	assert.True(t, db.Debug)

	opts := cfg.ToTaskOptions()
	assert.Equal(t, 25, opts.PageSize)
	assert.Equal(t, 50, opts.MaxPageSize)
	require.NotNil(t, opts.Validation)
	assert.Equal(t, 255, opts.Validation.MaxNameLength)
}
