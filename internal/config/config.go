package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvBaseURL       = "SD_API_URL"
	EnvLegacyBaseURL = "NEXT_PUBLIC_API_URL"
	EnvPublicURL     = "SD_PUBLIC_URL"
	EnvListenAddr    = "SD_LISTEN_ADDR"
	EnvTimeout       = "SD_REQUEST_TIMEOUT"
	EnvImagesDir     = "SD_IMAGES_DIR"
	EnvLogLevel      = "SD_LOG_LEVEL"
	EnvProxyImages   = "SD_PROXY_IMAGES"
	EnvCORSOrigins   = "SD_CORS_ORIGINS"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the settings shared by the gateway and the CLI.
type Config struct {
	BaseURL        string        `yaml:"base_url"`
	PublicURL      string        `yaml:"public_url"`
	ListenAddr     string        `yaml:"listen_addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ProxyImages    bool          `yaml:"proxy_images"`
	ImagesDir      string        `yaml:"images_dir"`
	LogLevel       string        `yaml:"log_level"`
	CORSOrigins    []string      `yaml:"cors_allowed_origins"`
	Cache          CacheConfig   `yaml:"cache"`
}

// CacheConfig configures the gateway's in-memory image cache.
type CacheConfig struct {
	Expiry          time.Duration `yaml:"expiry"`
	MaxSizeMB       int           `yaml:"max_size_mb"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

func Default() Config {
	return Config{
		BaseURL:        "http://localhost:8000",
		ListenAddr:     ":8080",
		RequestTimeout: 5 * time.Minute,
		ProxyImages:    true,
		ImagesDir:      "generated-images",
		LogLevel:       "info",
		CORSOrigins:    []string{"*"},
		Cache: CacheConfig{
			Expiry:          30 * time.Minute,
			MaxSizeMB:       256,
			CleanupInterval: time.Minute,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if any) and
// then the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLegacyBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvPublicURL); ok && v != "" {
		c.PublicURL = v
	}
	if v, ok := lookup(EnvListenAddr); ok && v != "" {
		c.ListenAddr = v
	}
	if v, ok := lookup(EnvImagesDir); ok && v != "" {
		c.ImagesDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvTimeout, err)
		}
		c.RequestTimeout = d
	}
	if v, ok := lookup(EnvProxyImages); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvProxyImages, err)
		}
		c.ProxyImages = b
	}
	return nil
}

// Validate checks that URLs are absolute http(s) origins and durations are positive.
func (c Config) Validate() error {
	if err := validateOrigin("base_url", c.BaseURL); err != nil {
		return err
	}
	if c.PublicURL != "" {
		if err := validateOrigin("public_url", c.PublicURL); err != nil {
			return err
		}
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("%w: cors_allowed_origins must not be empty", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	}
	if c.Cache.Expiry <= 0 {
		return fmt.Errorf("%w: cache.expiry must be positive", ErrInvalidConfig)
	}
	if c.Cache.CleanupInterval <= 0 {
		return fmt.Errorf("%w: cache.cleanup_interval must be positive", ErrInvalidConfig)
	}
	if c.Cache.MaxSizeMB < 0 {
		return fmt.Errorf("%w: cache.max_size_mb must not be negative", ErrInvalidConfig)
	}
	return nil
}

func validateOrigin(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %s must use http or https, got %q", ErrInvalidConfig, key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %s has no host: %q", ErrInvalidConfig, key, raw)
	}
	return nil
}

// splitList splits a comma separated value, dropping empty items.
func splitList(v string) []string {
	var items []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// TrimmedBaseURL returns BaseURL without trailing slashes.
func (c Config) TrimmedBaseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}
