package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.True(t, cfg.ProxyImages)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	for _, key := range []string{EnvBaseURL, EnvLegacyBaseURL, EnvTimeout, EnvProxyImages, EnvCORSOrigins} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "sdfront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: http://gpu-box:8000/
listen_addr: 127.0.0.1:9000
request_timeout: 90s
proxy_images: false
cors_allowed_origins:
  - http://localhost:3000
cache:
  expiry: 10m
  max_size_mb: 64
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://gpu-box:8000/", cfg.BaseURL)
	assert.Equal(t, "http://gpu-box:8000", cfg.TrimmedBaseURL())
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.ProxyImages)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Cache.Expiry)
	assert.Equal(t, 64, cfg.Cache.MaxSizeMB)
	assert.Equal(t, time.Minute, cfg.Cache.CleanupInterval, "unset keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request_timeout: soon\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Run("PrimaryVariableWinsOverLegacy", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(lookupFrom(map[string]string{
			EnvLegacyBaseURL: "http://legacy:8000",
			EnvBaseURL:       "http://primary:8000",
		}))
		require.NoError(t, err)
		assert.Equal(t, "http://primary:8000", cfg.BaseURL)
	})

	t.Run("LegacyVariableAlone", func(t *testing.T) {
		cfg := Default()
		require.NoError(t, cfg.ApplyEnv(lookupFrom(map[string]string{EnvLegacyBaseURL: "http://legacy:8000"})))
		assert.Equal(t, "http://legacy:8000", cfg.BaseURL)
	})

	t.Run("ParsesTypedValues", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(lookupFrom(map[string]string{
			EnvTimeout:     "45s",
			EnvProxyImages: "false",
			EnvLogLevel:    "debug",
			EnvImagesDir:   "/tmp/out",
		}))
		require.NoError(t, err)
		assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
		assert.False(t, cfg.ProxyImages)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "/tmp/out", cfg.ImagesDir)
	})

	t.Run("SplitsCORSOrigins", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(lookupFrom(map[string]string{
			EnvCORSOrigins: " http://localhost:3000, ,https://studio.example.com ",
		}))
		require.NoError(t, err)
		assert.Equal(t, []string{"http://localhost:3000", "https://studio.example.com"}, cfg.CORSOrigins)
	})

	t.Run("RejectsBadDuration", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(lookupFrom(map[string]string{EnvTimeout: "forever"}))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("RejectsBadBool", func(t *testing.T) {
		cfg := Default()
		err := cfg.ApplyEnv(lookupFrom(map[string]string{EnvProxyImages: "maybe"}))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"RelativeBaseURL", func(c *Config) { c.BaseURL = "localhost:8000" }},
		{"UnsupportedScheme", func(c *Config) { c.BaseURL = "ftp://h:21" }},
		{"MissingHost", func(c *Config) { c.BaseURL = "http://" }},
		{"BadPublicURL", func(c *Config) { c.PublicURL = "/relative" }},
		{"ZeroTimeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"ZeroExpiry", func(c *Config) { c.Cache.Expiry = 0 }},
		{"ZeroCleanupInterval", func(c *Config) { c.Cache.CleanupInterval = 0 }},
		{"NegativeCacheSize", func(c *Config) { c.Cache.MaxSizeMB = -1 }},
		{"NoCORSOrigins", func(c *Config) { c.CORSOrigins = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
