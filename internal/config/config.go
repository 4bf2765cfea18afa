package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/nexusmind/pkg/schema"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "NEXUSMIND_"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the application configuration of the CLI and servers.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Log        LogConfig        `yaml:"log" json:"log"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
	PII        PIIConfig        `yaml:"pii" json:"pii"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
	Pipeline   PipelineConfig   `yaml:"pipeline" json:"pipeline"`
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port" validate:"gte=1,lte=65535"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
}

type StoreConfig struct {
	Kind    string        `yaml:"kind" json:"kind" validate:"oneof=memory file redis"`
	Path    string        `yaml:"path" json:"path"`
	LockTTL time.Duration `yaml:"lock_ttl" json:"lock_ttl" validate:"gte=0"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr" validate:"required"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl" validate:"gte=0"`
}

// EncryptionConfig enables AES-256-GCM encryption of stored sessions.
// Keys are base64 encoded and must decode to 32 bytes.
type EncryptionConfig struct {
	Key          string   `yaml:"key" json:"key" validate:"omitempty,base64"`
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys" validate:"dive,base64"`
}

// PIIConfig masks context values whose keys match any pattern before storage.
type PIIConfig struct {
	Patterns []string `yaml:"patterns" json:"patterns"`
}

// Trace exporters. TraceGlobal uses whatever provider the process installed.
const (
	TraceGlobal = "global"
	TraceStdout = "stdout"
)

type TelemetryConfig struct {
	Metrics       bool   `yaml:"metrics" json:"metrics"`
	Tracing       bool   `yaml:"tracing" json:"tracing"`
	TraceExporter string `yaml:"trace_exporter" json:"trace_exporter" validate:"omitempty,oneof=global stdout"`
}

// PipelineConfig holds operational parameters applied to every query.
type PipelineConfig struct {
	Params map[string]any `yaml:"params" json:"params"`
}

// Default returns the configuration used when no file or env override is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Log:    LogConfig{Level: "info"},
		Store: StoreConfig{
			Kind:    StoreMemory,
			LockTTL: 30 * time.Second,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Telemetry: TelemetryConfig{Metrics: true},
	}
}

// Load reads path (if not empty), applies NEXUSMIND_* environment overrides
// and validates the result. An explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and that keys and patterns are usable.
func (c *Config) Validate() error {
	if err := schema.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, _, err := c.EncryptionKeys(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, p := range c.PII.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid config: pii pattern %q: %w", p, err)
		}
	}
	return nil
}

// EncryptionKeys decodes the active and fallback keys. active is nil when
// encryption is disabled.
func (c *Config) EncryptionKeys() (active []byte, fallback [][]byte, err error) {
	if c.Encryption.Key == "" {
		if len(c.Encryption.FallbackKeys) > 0 {
			return nil, nil, errors.New("encryption fallback keys set without an active key")
		}
		return nil, nil, nil
	}
	decode := func(s string) ([]byte, error) {
		k, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, err
		}
		if len(k) != 32 {
			return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(k))
		}
		return k, nil
	}
	if active, err = decode(c.Encryption.Key); err != nil {
		return nil, nil, err
	}
	for _, s := range c.Encryption.FallbackKeys {
		k, err := decode(s)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, k)
	}
	return active, fallback, nil
}

// applyEnv overlays NEXUSMIND_* variables on c.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
		return nil
	}

	str("LOG_LEVEL", &c.Log.Level)
	str("STORE", &c.Store.Kind)
	str("STORE_PATH", &c.Store.Path)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	str("REDIS_PREFIX", &c.Store.Redis.Prefix)
	str("ENCRYPTION_KEY", &c.Encryption.Key)
	str("TRACE_EXPORTER", &c.Telemetry.TraceExporter)
	if err := num("PORT", &c.Server.Port); err != nil {
		return err
	}
	return num("REDIS_DB", &c.Store.Redis.DB)
}
