package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type BrowserConfig struct {
	Headless    bool     `mapstructure:"headless"`
	UserAgents  []string `mapstructure:"user_agents"`
	MinViewport int      `mapstructure:"min_viewport"`
	MaxViewport int      `mapstructure:"max_viewport"`
	Bin         string   `mapstructure:"bin"`
	// Proxy is passed to --proxy-server. Empty falls back to the proxy
	// environment variables.
	Proxy string `mapstructure:"proxy"`
}

type FetchConfig struct {
	TimeoutSec  int `mapstructure:"timeout_sec"`
	SettleMinMs int `mapstructure:"settle_min_ms"`
	// SettleMaxMs caps the pause between load and snapshot.
	SettleMaxMs int    `mapstructure:"settle_max_ms"`
	DataDir     string `mapstructure:"data_dir"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Browser BrowserConfig `mapstructure:"browser"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Load reads path if it exists and layers environment overrides on top of the
// defaults (BROWSER_HEADLESS, FETCH_TIMEOUT_SEC, ...). A missing file is not
// an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Browser.Proxy == "" {
		cfg.Browser.Proxy = proxyFromEnv()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

var proxyEnvKeys = []string{
	"ALL_PROXY", "all_proxy",
	"SOCKS_PROXY", "socks_proxy",
	"HTTPS_PROXY", "https_proxy",
	"HTTP_PROXY", "http_proxy",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.user_agents", []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	})
	v.SetDefault("browser.min_viewport", 1280)
	v.SetDefault("browser.max_viewport", 1600)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.proxy", "")

	v.SetDefault("fetch.timeout_sec", 30)
	v.SetDefault("fetch.settle_min_ms", 500)
	v.SetDefault("fetch.settle_max_ms", 1500)
	v.SetDefault("fetch.data_dir", "data")

	v.SetDefault("logging.level", "info")
}

// proxyFromEnv follows the usual precedence: ALL_PROXY, SOCKS_PROXY,
// HTTPS_PROXY, then HTTP_PROXY, upper case before lower case.
func proxyFromEnv() string {
	for _, key := range proxyEnvKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) validate() error {
	if len(c.Browser.UserAgents) == 0 {
		return fmt.Errorf("browser.user_agents must include at least one value")
	}
	if c.Browser.MinViewport <= 0 {
		return fmt.Errorf("browser.min_viewport must be greater than zero")
	}
	if c.Browser.MaxViewport <= c.Browser.MinViewport {
		return fmt.Errorf("browser.max_viewport must be greater than min_viewport")
	}
	if c.Fetch.TimeoutSec <= 0 {
		return fmt.Errorf("fetch.timeout_sec must be positive")
	}
	if c.Fetch.SettleMinMs < 0 || c.Fetch.SettleMaxMs < 0 {
		return fmt.Errorf("fetch settle delays must not be negative")
	}
	if c.Fetch.SettleMaxMs < c.Fetch.SettleMinMs {
		return fmt.Errorf("fetch.settle_max_ms must be >= settle_min_ms")
	}
	if c.Fetch.DataDir == "" {
		return fmt.Errorf("fetch.data_dir must not be empty")
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)

	return nil
}
