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
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	// An explicitly named missing file is an error; no path falls back to
	// defaults.
	require.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "MealMind", cfg.App.Name)
	assert.Equal(t, "mealmind.db", cfg.Database.Path)
	assert.False(t, cfg.Redis.Enable)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  environment: production
database:
  path: /var/lib/mealmind/data.db
redis:
  enable: true
  host: cache.internal
  port: 6380
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/var/lib/mealmind/data.db", cfg.Database.Path)
	assert.Equal(t, "cache.internal:6380", cfg.Redis.Addr())
}

func TestValidateRejectsEnabledRedisWithoutHost(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Name: "MealMind"},
		Database: DatabaseConfig{Path: "x.db"},
		Redis:    RedisConfig{Enable: true},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidateInMemoryNeedsNoPath(t *testing.T) {
	cfg := &Config{
		App:      AppConfig{Name: "MealMind"},
		Database: DatabaseConfig{InMemory: true},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Database.InMemory = false
	assert.Error(t, cfg.Validate(), "disk mode still requires a path")
}
