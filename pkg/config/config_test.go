package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("YJ_CONFIG", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Setenv("YJ_CONFIG", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
log_level: debug
database:
  host: db.internal
  port: 5433
  max_conns: 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	// Untouched keys keep their defaults.
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestLoadEnvOverridesPath(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "env.yaml")
	require.NoError(t, os.WriteFile(envPath, []byte("port: 7777"), 0o644))
	t.Setenv("YJ_CONFIG", envPath)

	cfg, err := Load(filepath.Join(dir, "flag.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Port)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	t.Setenv("YJ_CONFIG", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a port"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	d := DatabaseConfig{
		Host: "localhost", Port: 5432,
		User: "u", Password: "p", DBName: "yj", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/yj?sslmode=disable", d.DSN())

	d.MaxConns = 8
	d.MaxConnLifetime = "1h"
	assert.Equal(t,
		"postgres://u:p@localhost:5432/yj?sslmode=disable&pool_max_conns=8&pool_max_conn_lifetime=1h",
		d.DSN())
}

func TestDSNEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env@remote:5432/other")

	d := DatabaseConfig{Host: "localhost", Port: 5432}
	assert.Equal(t, "postgres://env@remote:5432/other", d.DSN())
}
