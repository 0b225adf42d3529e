// Package config loads abacus settings from a YAML (or JSON) file and ABACUS_* environment
// variables. Environment values win over the file; command-line flags are applied by the caller.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "ABACUS_"

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full set of runtime settings.
type Config struct {
	Debug   bool          `mapstructure:"debug"`
	Log     LogConfig     `mapstructure:"log"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Display DisplayConfig `mapstructure:"display"`
}

type LogConfig struct {
	Format string `mapstructure:"format"` // text or json
}

type StoreConfig struct {
	Kind string `mapstructure:"kind"`
	Dir  string `mapstructure:"dir"`

	// EncryptionKey is a base64 AES-256 key. When set, every session is sealed at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
	// PreviousKeys still open sessions sealed before a key rotation.
	PreviousKeys []string `mapstructure:"previous_keys"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type HTTPConfig struct {
	Port        int      `mapstructure:"port"`
	RateLimit   float64  `mapstructure:"rate_limit"` // requests per second per client, 0 disables
	Burst       int      `mapstructure:"burst"`
	CORSOrigins []string `mapstructure:"cors_origins"` // empty allows any origin
}

type DisplayConfig struct {
	ErrorClearDelay time.Duration `mapstructure:"error_clear_delay"`
}

// Keys lists every dotted setting name, in the order they are documented.
var Keys = []string{
	"debug",
	"log.format",
	"store.kind",
	"store.dir",
	"store.encryption_key",
	"store.previous_keys",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.prefix",
	"redis.ttl",
	"http.port",
	"http.rate_limit",
	"http.burst",
	"http.cors_origins",
	"display.error_clear_delay",
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log:     LogConfig{Format: "text"},
		Store:   StoreConfig{Kind: StoreMemory, Dir: filepath.Join(".abacus", "sessions")},
		Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "abacus:session:"},
		HTTP:    HTTPConfig{Port: 8080, RateLimit: 20, Burst: 40},
		Display: DisplayConfig{ErrorClearDelay: domain.DefaultErrorClearDelay},
	}
}

// EnvName returns the environment variable that overrides a dotted key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads path (optional, empty skips the file) and the environment through lookup
// (os.LookupEnv when nil), on top of Default.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	raw := map[string]any{}
	if path != "" {
		if err := readFile(path, raw); err != nil {
			return nil, err
		}
	}

	for _, key := range Keys {
		if v, ok := lookup(EnvName(key)); ok {
			setPath(raw, key, v)
		}
	}

	cfg := Default()
	if err := decode(raw, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFile(path string, into map[string]any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &into); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, &into); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setPath stores v under a dotted key, creating intermediate maps.
func setPath(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store.kind: unknown store %q (want memory, file or redis)", c.Store.Kind))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format))
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port: %d out of range", c.HTTP.Port))
	}
	if c.HTTP.RateLimit < 0 {
		errs = append(errs, errors.New("http.rate_limit: must not be negative"))
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.Burst <= 0 {
		errs = append(errs, errors.New("http.burst: must be positive when rate limiting"))
	}
	if c.Display.ErrorClearDelay <= 0 {
		errs = append(errs, errors.New("display.error_clear_delay: must be positive"))
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption_key: %w", err))
		}
	} else if len(c.Store.PreviousKeys) > 0 {
		errs = append(errs, errors.New("store.previous_keys: requires store.encryption_key"))
	}
	for i, k := range c.Store.PreviousKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			errs = append(errs, fmt.Errorf("store.previous_keys[%d]: %w", i, err))
		}
	}
	if c.Redis.TTL < 0 {
		errs = append(errs, errors.New("redis.ttl: must not be negative"))
	}
	return errors.Join(errs...)
}
