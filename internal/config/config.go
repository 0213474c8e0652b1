// Package config centralizes how OrderDrop reads its settings and exposes
// them as typed Go values. Defaults are overlaid by an optional YAML file,
// which is in turn overlaid by environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dharsanguruparan/OrderDrop/internal/apperr"
)

// Config represents runtime configuration for the client and its controller.
type Config struct {
	APIBase       string
	Address       string
	MaxFileBytes  int64
	Tick          time.Duration
	NotifyTTL     time.Duration
	HTTPTimeout   time.Duration
	EncodeWorkers int
	LogLevel      string
	LogFormat     string
	S3            S3Config
}

// S3Config points at an optional scanner bucket that candidate files can be
// read from with s3://bucket/key arguments.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// Enabled reports whether a scanner bucket endpoint is configured.
func (s S3Config) Enabled() bool { return s.Endpoint != "" }

const (
	EnvConfigFile = "ORDERDROP_CONFIG"
	EnvAPIBase    = "ORDERDROP_API_BASE"

	defaultAddress       = ":8080"
	defaultMaxFileBytes  = 10 << 20 // 10 MiB
	defaultTick          = time.Second
	defaultNotifyTTL     = 3 * time.Second
	defaultHTTPTimeout   = 30 * time.Second
	defaultEncodeWorkers = 4
	defaultLogLevel      = "info"
	defaultLogFormat     = "text"
)

// fileConfig mirrors Config for the YAML layer. Durations are strings such
// as "1s" so the file reads the same as the environment.
type fileConfig struct {
	APIBase       string `yaml:"apiBase"`
	Address       string `yaml:"address"`
	MaxFileBytes  int64  `yaml:"maxFileBytes"`
	Tick          string `yaml:"tick"`
	NotifyTTL     string `yaml:"notifyTTL"`
	HTTPTimeout   string `yaml:"httpTimeout"`
	EncodeWorkers int    `yaml:"encodeWorkers"`
	Log           struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	S3 struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"accessKey"`
		SecretKey string `yaml:"secretKey"`
		Region    string `yaml:"region"`
		UseSSL    bool   `yaml:"useSSL"`
	} `yaml:"s3"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Address:       defaultAddress,
		MaxFileBytes:  defaultMaxFileBytes,
		Tick:          defaultTick,
		NotifyTTL:     defaultNotifyTTL,
		HTTPTimeout:   defaultHTTPTimeout,
		EncodeWorkers: defaultEncodeWorkers,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
	}
}

// Override adjusts the loaded configuration before validation, for command
// line flags that outrank the environment.
type Override func(*Config)

// Load builds the configuration. path names a YAML file; when empty the
// ORDERDROP_CONFIG variable is consulted, and when that is empty too only
// defaults and the environment apply. A missing API base is a
// ConfigurationError.
func Load(path string, overrides ...Override) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		path = readEnv(EnvConfigFile, "")
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	for _, o := range overrides {
		o(cfg)
	}
	cfg.normalize()
	if cfg.APIBase == "" {
		return nil, apperr.MissingSetting(EnvAPIBase)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return &apperr.ConfigurationError{Key: path, Message: fmt.Sprintf("parse config file %s: %v", path, err)}
	}
	setString(&c.APIBase, fc.APIBase)
	setString(&c.Address, fc.Address)
	if fc.MaxFileBytes > 0 {
		c.MaxFileBytes = fc.MaxFileBytes
	}
	setDuration(&c.Tick, fc.Tick)
	setDuration(&c.NotifyTTL, fc.NotifyTTL)
	setDuration(&c.HTTPTimeout, fc.HTTPTimeout)
	if fc.EncodeWorkers > 0 {
		c.EncodeWorkers = fc.EncodeWorkers
	}
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.S3.Endpoint, fc.S3.Endpoint)
	setString(&c.S3.AccessKey, fc.S3.AccessKey)
	setString(&c.S3.SecretKey, fc.S3.SecretKey)
	setString(&c.S3.Region, fc.S3.Region)
	c.S3.UseSSL = c.S3.UseSSL || fc.S3.UseSSL
	return nil
}

func (c *Config) applyEnv() {
	c.APIBase = readEnv(EnvAPIBase, c.APIBase)
	c.Address = readEnv("ORDERDROP_ADDRESS", c.Address)
	c.MaxFileBytes = parseInt64("ORDERDROP_MAX_FILE_BYTES", c.MaxFileBytes)
	c.Tick = parseDuration("ORDERDROP_TICK", c.Tick)
	c.NotifyTTL = parseDuration("ORDERDROP_NOTIFY_TTL", c.NotifyTTL)
	c.HTTPTimeout = parseDuration("ORDERDROP_HTTP_TIMEOUT", c.HTTPTimeout)
	c.EncodeWorkers = parseInt("ORDERDROP_ENCODE_WORKERS", c.EncodeWorkers)
	c.LogLevel = readEnv("ORDERDROP_LOG_LEVEL", c.LogLevel)
	c.LogFormat = readEnv("ORDERDROP_LOG_FORMAT", c.LogFormat)
	c.S3.Endpoint = readEnv("ORDERDROP_S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKey = readEnv("ORDERDROP_S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = readEnv("ORDERDROP_S3_SECRET_KEY", c.S3.SecretKey)
	c.S3.Region = readEnv("ORDERDROP_S3_REGION", c.S3.Region)
	c.S3.UseSSL = parseBool("ORDERDROP_S3_USE_SSL", c.S3.UseSSL)
}

// normalize puts non-positive values back to their defaults.
func (c *Config) normalize() {
	c.APIBase = strings.TrimSpace(c.APIBase)
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = defaultMaxFileBytes
	}
	if c.Tick <= 0 {
		c.Tick = defaultTick
	}
	if c.NotifyTTL <= 0 {
		c.NotifyTTL = defaultNotifyTTL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = defaultHTTPTimeout
	}
	if c.EncodeWorkers <= 0 {
		c.EncodeWorkers = defaultEncodeWorkers
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// parseInt64 ignores invalid input and keeps def, like the other parse helpers.
func parseInt64(key string, def int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return parsed
		}
	}
	return def
}

func parseInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
