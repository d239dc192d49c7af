package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProxyEnv(t *testing.T) {
	t.Helper()
	for _, key := range proxyEnvKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearProxyEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Len(t, cfg.Browser.UserAgents, 2)
	assert.Equal(t, 1280, cfg.Browser.MinViewport)
	assert.Equal(t, 1600, cfg.Browser.MaxViewport)
	assert.Equal(t, 30, cfg.Fetch.TimeoutSec)
	assert.Equal(t, 500, cfg.Fetch.SettleMinMs)
	assert.Equal(t, 1500, cfg.Fetch.SettleMaxMs)
	assert.Equal(t, "data", cfg.Fetch.DataDir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Browser.Proxy)
}

func TestLoad_File(t *testing.T) {
	clearProxyEnv(t)
	path := writeConfig(t, `
browser:
  headless: false
  user_agents: ["UA-1"]
  proxy: "socks5://127.0.0.1:1080"
fetch:
  timeout_sec: 10
  settle_min_ms: 0
  settle_max_ms: 0
logging:
  level: DEBUG
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"UA-1"}, cfg.Browser.UserAgents)
	assert.Equal(t, "socks5://127.0.0.1:1080", cfg.Browser.Proxy)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSec)
	assert.Equal(t, 0, cfg.Fetch.SettleMaxMs)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1280, cfg.Browser.MinViewport, "unset keys keep defaults")
}

func TestLoad_EnvOverride(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("FETCH_TIMEOUT_SEC", "7")
	t.Setenv("LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Fetch.TimeoutSec)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_ProxyFromEnv(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("HTTP_PROXY", "http://plain:8080")
	t.Setenv("HTTPS_PROXY", "http://secure:8443")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://secure:8443", cfg.Browser.Proxy)

	t.Setenv("socks_proxy", "socks5://lower:1080")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "socks5://lower:1080", cfg.Browser.Proxy)

	t.Setenv("SOCKS_PROXY", "socks5://upper:1080")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "socks5://upper:1080", cfg.Browser.Proxy)

	t.Setenv("ALL_PROXY", "socks5://all:1080")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "socks5://all:1080", cfg.Browser.Proxy)
}

func TestLoad_InvalidFile(t *testing.T) {
	clearProxyEnv(t)
	path := writeConfig(t, "browser: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Browser: BrowserConfig{UserAgents: []string{"ua"}, MinViewport: 1024, MaxViewport: 1280},
			Fetch:   FetchConfig{TimeoutSec: 5, SettleMinMs: 10, SettleMaxMs: 20, DataDir: "data"},
			Logging: LoggingConfig{Level: "INFO"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no user agents", func(c *Config) { c.Browser.UserAgents = nil }, "browser.user_agents"},
		{"zero viewport", func(c *Config) { c.Browser.MinViewport = 0 }, "browser.min_viewport"},
		{"inverted viewport", func(c *Config) { c.Browser.MaxViewport = 800 }, "browser.max_viewport"},
		{"zero timeout", func(c *Config) { c.Fetch.TimeoutSec = 0 }, "fetch.timeout_sec"},
		{"negative settle", func(c *Config) { c.Fetch.SettleMinMs = -1 }, "must not be negative"},
		{"inverted settle", func(c *Config) { c.Fetch.SettleMaxMs = 5 }, "fetch.settle_max_ms"},
		{"no data dir", func(c *Config) { c.Fetch.DataDir = "" }, "fetch.data_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "info", c.Logging.Level)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
