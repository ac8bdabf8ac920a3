package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/warden/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "warden.yaml", `
api_base: https://users.example.com/api
store: redis
timeout: 5s
redis:
  addr: cache:6379
  db: 2
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://users.example.com/api", cfg.APIBase)
	assert.Equal(t, config.StoreRedis, cfg.Store)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "warden:events", cfg.Redis.Channel, "unset keys keep their default")
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "warden.json", `{"slot_key": "tab_user", "debug": true}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tab_user", cfg.SlotKey)
	assert.True(t, cfg.Debug)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "warden.yaml", "store: file\nredis:\n  addr: a:1\n")
	t.Setenv("WARDEN_STORE", "memory")
	t.Setenv("WARDEN_REDIS_DB", "7")
	t.Setenv("WARDEN_LOCK_TTL", "1m")
	t.Setenv("WARDEN_DEBUG", "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, "a:1", cfg.Redis.Addr)
	assert.Equal(t, 7, cfg.Redis.DB)
	assert.Equal(t, time.Minute, cfg.LockTTL)
	assert.True(t, cfg.Debug)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"UnknownKey", "api_bsae: http://x\n", "api_bsae"},
		{"BadStore", "store: sqlite\n", "store must be"},
		{"BadDuration", "timeout: soon\n", "timeout"},
		{"BadLogFormat", "log_format: xml\n", "log_format"},
		{"ShortKey", "encryption_key: " + base64.StdEncoding.EncodeToString([]byte("short")) + "\n", "32 bytes"},
		{"NotBase64", "encryption_key: '!!!'\n", "base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "warden.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Key(t *testing.T) {
	raw := []byte(strings.Repeat("k", 32))
	cfg := config.Default()
	cfg.EncryptionKey = base64.StdEncoding.EncodeToString(raw)

	key, err := cfg.Key()
	require.NoError(t, err)
	assert.Equal(t, raw, key)

	cfg.EncryptionKey = ""
	key, err = cfg.Key()
	require.NoError(t, err)
	assert.Nil(t, key)
}
