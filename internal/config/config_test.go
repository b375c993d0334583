package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: "db"
  port: 5432
  user: "x"
  password: "secret"
  dbname: "xclone"
redis:
  host: "cache"
  port: 6379
jwt:
  secret: "test-secret"
`)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.Graph.OperationTimeout)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "social-events", cfg.Kafka.Topics.SocialEvents)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "host=db port=5432 user=x password=secret dbname=xclone sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: "from-file"
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("XCLONE_JWT_SECRET", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "server:\n  port: \":9090\"\n"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestWriteDefaultRequiresSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefault(path))
	t.Setenv("CONFIG_PATH", path)

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("XCLONE_JWT_SECRET", "from-env")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "social-events", cfg.Kafka.Topics.SocialEvents)
	assert.Equal(t, time.Minute, cfg.Reconcile.Interval)
}
