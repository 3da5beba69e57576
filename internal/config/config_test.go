package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithDevAuth(t *testing.T) {
	t.Setenv("DEV_AUTH", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, DriverMemory, cfg.Database.Driver)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	require.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app: walks-test
server:
  port: 9000
database:
  driver: SQLite
  dsn: ":memory:"
auth:
  jwt_secret: yaml-secret-0123456789
  token_ttl: 2h
log:
  level: debug
  format: json
`), 0o600))

	t.Setenv("PORT", "9100")
	t.Setenv("SEED_DEMO_DATA", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "walks-test", cfg.App)
	require.Equal(t, 9100, cfg.Server.Port, "env overrides yaml")
	require.Equal(t, DriverSQLite, cfg.Database.Driver)
	require.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	require.True(t, cfg.Seed.DemoData)
	require.Equal(t, "json", cfg.Log.Format)
	// sin tocar en yaml ni env
	require.Equal(t, 5, cfg.Auth.LoginBurst)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = DriverPostgres }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"burst zero", func(c *Config) { c.Auth.LoginBurst = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Auth.JWTSecret = "valid-secret-0123456789"
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	ok := Default()
	ok.Auth.DevAuth = true
	require.NoError(t, ok.Validate())
}
