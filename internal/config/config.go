package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Alexander-D-Karpov/sleeves/internal/platform"
)

var envReplacer = strings.NewReplacer(".", "_")

type Config struct {
	Debug bool `mapstructure:"debug"`

	API struct {
		BaseURL   string `mapstructure:"base_url"`
		RateLimit struct {
			RequestsPerSecond int `mapstructure:"requests_per_second"`
			BurstSize         int `mapstructure:"burst_size"`
		} `mapstructure:"rate_limit"`
		Timeout   int    `mapstructure:"timeout"`
		UserAgent string `mapstructure:"user_agent"`
	} `mapstructure:"api"`

	Fallback struct {
		// StrictOpen refuses a local draw when the backend answered an open
		// request with an unreadable body.
		StrictOpen bool `mapstructure:"strict_open"`
		Latency    struct {
			Inventory int `mapstructure:"inventory"`
			Sleeves   int `mapstructure:"sleeves"`
			Open      int `mapstructure:"open"`
			Session   int `mapstructure:"session"`
			Login     int `mapstructure:"login"`
			Logout    int `mapstructure:"logout"`
		} `mapstructure:"latency"`
	} `mapstructure:"fallback"`

	Storage struct {
		CacheCatalog bool   `mapstructure:"cache_catalog"`
		DatabasePath string `mapstructure:"database_path"`
		EnableWAL    bool   `mapstructure:"enable_wal"`
		SyncInterval int    `mapstructure:"sync_interval"`
	} `mapstructure:"storage"`

	User struct {
		StartingWallet int    `mapstructure:"starting_wallet"`
		AvatarURL      string `mapstructure:"avatar_url"`
	} `mapstructure:"user"`

	Search struct {
		MaxResults int `mapstructure:"max_results"`
	} `mapstructure:"search"`

	Metrics struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"metrics"`

	DevServer struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"devserver"`
}

// Load reads config.yaml from configPath or the usual search path and
// overlays SLEEVES_* environment variables on the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir, err := platform.GetConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(configDir)
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SLEEVES")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := ensureDirectories(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration without touching disk or env.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// NoLatency zeroes every simulated fallback delay.
func (c *Config) NoLatency() *Config {
	c.Fallback.Latency.Inventory = 0
	c.Fallback.Latency.Sleeves = 0
	c.Fallback.Latency.Open = 0
	c.Fallback.Latency.Session = 0
	c.Fallback.Latency.Login = 0
	c.Fallback.Latency.Logout = 0
	return c
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.Timeout) * time.Second
}

func Millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.rate_limit.requests_per_second", 20)
	v.SetDefault("api.rate_limit.burst_size", 5)
	v.SetDefault("api.timeout", 10)
	v.SetDefault("api.user_agent", "sleeves/1.0.0")

	v.SetDefault("fallback.strict_open", false)
	v.SetDefault("fallback.latency.inventory", 200)
	v.SetDefault("fallback.latency.sleeves", 200)
	v.SetDefault("fallback.latency.open", 400)
	v.SetDefault("fallback.latency.session", 120)
	v.SetDefault("fallback.latency.login", 220)
	v.SetDefault("fallback.latency.logout", 120)

	dataDir, _ := platform.GetDataDir()

	v.SetDefault("storage.cache_catalog", false)
	v.SetDefault("storage.database_path", filepath.Join(dataDir, "catalog.db"))
	v.SetDefault("storage.enable_wal", true)
	v.SetDefault("storage.sync_interval", 3600)

	v.SetDefault("user.starting_wallet", 100)
	v.SetDefault("user.avatar_url", "https://avatars.fastly.steamstatic.com/dafbf49a3013de1a9528e06e796f49b8a8bdfef2_full.jpg")

	v.SetDefault("search.max_results", 50)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("devserver.addr", "127.0.0.1:8000")
}

func ensureDirectories(cfg *Config) error {
	if !cfg.Storage.CacheCatalog {
		return nil
	}
	return os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755)
}
