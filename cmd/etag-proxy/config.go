package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the proxy configuration.
type Config struct {
	// ListenAddr is the address the proxy binds to.
	ListenAddr string `mapstructure:"listen_addr"`

	// UpstreamURL is the origin the proxy forwards misses to.
	UpstreamURL string `mapstructure:"upstream_url"`

	// CacheCapacity is the number of validator entries the table holds.
	CacheCapacity int `mapstructure:"cache_capacity"`

	// QueueSize bounds the cache operation queue.
	QueueSize int `mapstructure:"queue_size"`

	// ShutdownGrace is how long in-flight requests get on shutdown.
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Pretty     bool   `mapstructure:"pretty"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// loadConfig reads the configuration from an optional TOML file plus
// ETAG_PROXY_* environment overrides. With an empty path the file is
// searched in the working directory and /etc/etag-proxy; a missing file
// is fine there, defaults and environment carry the config. An explicit
// path must exist.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("etag-proxy")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/etag-proxy")
	}

	v.SetEnvPrefix("ETAG_PROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("upstream_url", "")
	v.SetDefault("cache_capacity", 1024)
	v.SetDefault("queue_size", 64)
	v.SetDefault("shutdown_grace", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.compress", true)
}

func (c *Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}

	if c.UpstreamURL == "" {
		return fmt.Errorf("upstream_url is required")
	}
	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("upstream_url is not a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream_url must be an absolute http(s) URL, got %q", c.UpstreamURL)
	}

	if c.CacheCapacity < 1 {
		return fmt.Errorf("cache_capacity must be at least 1, got %d", c.CacheCapacity)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be at least 1, got %d", c.QueueSize)
	}
	if c.ShutdownGrace <= 0 {
		return fmt.Errorf("shutdown_grace must be positive, got %s", c.ShutdownGrace)
	}

	return nil
}
