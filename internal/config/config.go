// Package config loads leadflow settings using Viper.
//
// Precedence: LEADFLOW_* environment variables > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. LEADFLOW_STORE_DRIVER.
const EnvPrefix = "LEADFLOW"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "leadflow.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Config holds all configuration values for leadflow.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Leads   LeadsConfig   `mapstructure:"leads" yaml:"leads"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Notify  NotifyConfig  `mapstructure:"notify" yaml:"notify"`

	// VariantsFile replaces the built-in quote/contact variants when set.
	VariantsFile  string `mapstructure:"variants_file" yaml:"variants_file"`
	WatchVariants bool   `mapstructure:"watch_variants" yaml:"watch_variants"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LeadsConfig points at the lead-management endpoint. A zero timeout means the
// call waits for the endpoint, as the site did.
type LeadsConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type StoreConfig struct {
	Driver string        `mapstructure:"driver" yaml:"driver"`
	TTL    time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Redis  RedisConfig   `mapstructure:"redis" yaml:"redis"`
	SQLite SQLiteConfig  `mapstructure:"sqlite" yaml:"sqlite"`

	Encryption EncryptionConfig `mapstructure:"encryption" yaml:"encryption"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	// Codec is "json" or "msgpack".
	Codec string `mapstructure:"codec" yaml:"codec"`
}

// EncryptionConfig seals collected fields at rest when Key is set.
// Keys are base64 encoded 32 byte values; FallbackKeys is comma separated.
type EncryptionConfig struct {
	Key          string `mapstructure:"key" yaml:"key"`
	FallbackKeys string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// NotifyConfig enables publishing toasts to NATS when URL is set.
type NotifyConfig struct {
	NATSURL string `mapstructure:"nats_url" yaml:"nats_url"`
	Subject string `mapstructure:"subject" yaml:"subject"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Leads:  LeadsConfig{BaseURL: "http://localhost:3000"},
		Store: StoreConfig{
			Driver: DriverMemory,
			TTL:    24 * time.Hour,
			Redis:  RedisConfig{Addr: "localhost:6379", Prefix: "leadflow:wizard:", Codec: "json"},
			SQLite: SQLiteConfig{Path: "leadflow.db"},
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true},
		Notify:  NotifyConfig{Subject: "leadflow.notifications"},
	}
}

// Load reads configuration from path. An empty path falls back to DefaultFile
// when it exists, and to defaults plus environment otherwise.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" && fileExists(DefaultFile) {
		path = DefaultFile
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("store.driver: unsupported driver %q", c.Store.Driver)
	}
	switch c.Store.Redis.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("store.redis.codec: unsupported codec %q", c.Store.Redis.Codec)
	}
	if c.Store.Encryption.Key == "" && c.Store.Encryption.FallbackKeys != "" {
		return fmt.Errorf("store.encryption.fallback_keys requires store.encryption.key")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format)
	}
	if c.Leads.BaseURL == "" {
		return fmt.Errorf("leads.base_url is required")
	}
	if c.Leads.Timeout < 0 {
		return fmt.Errorf("leads.timeout must not be negative")
	}
	return nil
}

// Write stores cfg as YAML at path, creating parent directories.
func Write(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override nested values.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("leads.base_url", d.Leads.BaseURL)
	v.SetDefault("leads.timeout", d.Leads.Timeout)
	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.ttl", d.Store.TTL)
	v.SetDefault("store.redis.addr", d.Store.Redis.Addr)
	v.SetDefault("store.redis.password", d.Store.Redis.Password)
	v.SetDefault("store.redis.db", d.Store.Redis.DB)
	v.SetDefault("store.redis.prefix", d.Store.Redis.Prefix)
	v.SetDefault("store.redis.codec", d.Store.Redis.Codec)
	v.SetDefault("store.sqlite.path", d.Store.SQLite.Path)
	v.SetDefault("store.encryption.key", d.Store.Encryption.Key)
	v.SetDefault("store.encryption.fallback_keys", d.Store.Encryption.FallbackKeys)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("notify.nats_url", d.Notify.NATSURL)
	v.SetDefault("notify.subject", d.Notify.Subject)
	v.SetDefault("variants_file", d.VariantsFile)
	v.SetDefault("watch_variants", d.WatchVariants)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
