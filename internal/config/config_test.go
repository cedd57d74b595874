package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "casaway", cfg.Database.Name)

	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginDecayWindow)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 3, cfg.Auth.MaxRegisterAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Auth.RegisterWindow)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.LoginTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RegisterTokenTTL)
}

func TestLoad_RequiresDBPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("MAX_LOGIN_ATTEMPTS", "10")
	t.Setenv("LOGIN_DECAY_WINDOW", "5m")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Auth.LoginDecayWindow)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}

func TestLoad_EmailRequiresFromAddress(t *testing.T) {
	t.Setenv("DB_PASSWORD", "testpass")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("EMAIL_FROM_ADDRESS", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5433, User: "app", Password: "pw", Name: "casaway", SSLMode: "require",
	}
	assert.Equal(t, "host=db port=5433 user=app password=pw dbname=casaway sslmode=require", cfg.DSN())
}
