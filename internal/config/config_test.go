package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, ObjectStoreLocal, cfg.ObjectStore.Driver)
	assert.Equal(t, "0.0.0.0:4000", cfg.HTTPAddr())
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9000

[storage]
driver = "mysql"

[mysql]
user = "marker"
password = "secret"
db = "docs"

[redis]
enabled = true
markup_ttl_seconds = 30
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "9100")
	t.Setenv("RABBITMQ_ENABLED", "true")
	t.Setenv("APP_CORS_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, StorageMySQL, cfg.Storage.Driver)
	assert.Equal(t, "marker:secret@tcp(127.0.0.1:3306)/docs?parseTime=true&loc=Local&charset=utf8mb4", cfg.MySQLDSN())
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.MarkupTTL())
	assert.True(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.CORSOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestBadEnvNumberKeepsDefault(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("UPLOAD_MAX_SIZE_MB", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Upload.MaxSizeMB)
}
