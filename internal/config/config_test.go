package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Create temporary config file
	content := `
server:
  port: 9090
  host: "127.0.0.1"

database:
  host: "testdb"
  port: 5432
  user: "testuser"
  password: "testpass"
  dbname: "testdb"

auth:
  accessTokenSecret: "access"
  refreshTokenSecret: "refresh"
  accessTokenExpiry: "15m"
`

	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Load config
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify loaded values
	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected host 127.0.0.1, got %s", cfg.Server.Host)
	}

	if cfg.Database.Host != "testdb" {
		t.Errorf("Expected database host testdb, got %s", cfg.Database.Host)
	}

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenExpiry)
	assert.Equal(t, 240*time.Hour, cfg.Auth.RefreshTokenExpiry)
	assert.Equal(t, time.Hour, cfg.Auth.AdminTokenExpiry)
}

func TestLoadNonExistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "vidtube", cfg.Database.DBName)
	assert.Equal(t, "vidtube", cfg.Storage.BucketName)
	assert.True(t, cfg.Auth.SecureCookies)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
}

func TestLoadReadsServiceEnvironment(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("ACCESS_TOKEN_SECRET", "env-access")
	t.Setenv("REFRESH_TOKEN_SECRET", "env-refresh")
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/vidtube")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "env-access", cfg.Auth.AccessTokenSecret)
	assert.Equal(t, "env-refresh", cfg.Auth.RefreshTokenSecret)
	assert.Equal(t, "hunter2", cfg.Auth.AdminPassword)
	assert.Equal(t, "postgres://u:p@db:5432/vidtube", cfg.Database.URL)
	assert.Equal(t, "cache", cfg.Redis.Host)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accessTokenSecret")

	cfg.Auth.AccessTokenSecret = "a"
	cfg.Auth.RefreshTokenSecret = "a"
	cfg.Auth.AdminTokenSecret = "admin"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")

	cfg.Auth.RefreshTokenSecret = "b"
	assert.NoError(t, cfg.Validate())
}
