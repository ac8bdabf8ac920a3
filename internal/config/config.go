package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WARDEN_REDIS_ADDR.
const EnvPrefix = "WARDEN_"

// Store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Redis configures the shared slot, broadcast channel and refresh lock.
type Redis struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	Channel  string `mapstructure:"channel" yaml:"channel"`
}

// Config is the CLI configuration.
type Config struct {
	APIBase       string        `mapstructure:"api_base" yaml:"api_base"`
	StateDir      string        `mapstructure:"state_dir" yaml:"state_dir"`
	SlotKey       string        `mapstructure:"slot_key" yaml:"slot_key"`
	Store         string        `mapstructure:"store" yaml:"store"`
	Redis         Redis         `mapstructure:"redis" yaml:"redis"`
	EncryptionKey string        `mapstructure:"encryption_key" yaml:"encryption_key"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	LockTTL       time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	LogFormat     string        `mapstructure:"log_format" yaml:"log_format"`
	Debug         bool          `mapstructure:"debug" yaml:"debug"`
	MetricsAddr   string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
}

// envKeys are the settings that can be overridden from the environment.
var envKeys = []string{
	"api_base", "state_dir", "slot_key", "store",
	"redis.addr", "redis.password", "redis.db", "redis.prefix", "redis.channel",
	"encryption_key", "timeout", "lock_ttl", "log_format", "debug", "metrics_addr",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBase:  "http://localhost:5000/api",
		StateDir: ".warden",
		SlotKey:  "auth_user",
		Store:    StoreFile,
		Redis: Redis{
			Addr:    "localhost:6379",
			Prefix:  "warden:",
			Channel: "warden:events",
		},
		Timeout:   15 * time.Second,
		LockTTL:   30 * time.Second,
		LogFormat: "text",
	}
}

// DefaultPath returns the first existing candidate config file, or "".
func DefaultPath() string {
	candidates := []string{"warden.yaml", "warden.yml", "warden.json"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "warden", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Load reads path (YAML or JSON by extension; "" for none), applies WARDEN_*
// environment overrides on top, and validates the result.
func Load(path string) (*Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if strings.ToLower(filepath.Ext(path)) == ".json" {
			err = json.Unmarshal(data, &raw)
		} else {
			err = yaml.Unmarshal(data, &raw)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for _, key := range envKeys {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if v, ok := os.LookupEnv(name); ok {
			setPath(raw, key, v)
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setPath stores value under a dotted key, creating nested maps on the way.
func setPath(m map[string]any, key string, value any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Validate checks values a decoder cannot.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("store must be one of file, redis, memory (got %q)", c.Store))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be text or json (got %q)", c.LogFormat))
	}
	if c.SlotKey == "" {
		errs = append(errs, errors.New("slot_key must not be empty"))
	}
	if c.Timeout < 0 || c.LockTTL < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.EncryptionKey != "" {
		if _, err := c.Key(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Key decodes the slot encryption key. It returns nil when encryption is off.
func (c *Config) Key() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption_key must be base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption_key must decode to 32 bytes (got %d)", len(key))
	}
	return key, nil
}
