package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config represents configuration data for the site service.
type Config struct {
	Addr                string   `mapstructure:"addr"`
	LogLevel            string   `mapstructure:"log_level"`
	Timezone            string   `mapstructure:"timezone"`
	CataloguePath       string   `mapstructure:"catalogue_path"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds"`
	TimelineDays        int      `mapstructure:"timeline_days"`
	Upstream            Upstream `mapstructure:"upstream"`
	Cache               Cache    `mapstructure:"cache"`
	Tracing             Tracing  `mapstructure:"tracing"`
}

// Upstream points at the mrtdown JSON API.
type Upstream struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Cache selects where upstream responses are kept.
type Cache struct {
	Backend       string `mapstructure:"backend"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPassword string `mapstructure:"redis_password"`
	FilePath      string `mapstructure:"file_path"`
	TTLSeconds    int    `mapstructure:"ttl_seconds"`
}

// Tracing enables the OTLP exporter when Endpoint is set.
type Tracing struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

const (
	CacheMemory = "memory"
	CacheFile   = "file"
	CacheRedis  = "redis"
)

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		Addr:                ":8080",
		LogLevel:            "info",
		Timezone:            "Asia/Singapore",
		CataloguePath:       "lines.yaml",
		PollIntervalSeconds: 60,
		TimelineDays:        90,
		Upstream: Upstream{
			BaseURL:        "https://api.mrtdown.org",
			TimeoutSeconds: 10,
		},
		Cache: Cache{
			Backend:    CacheMemory,
			RedisAddr:  "localhost:6379",
			FilePath:   ".dist/data/cache.json",
			TTLSeconds: 120,
		},
		Tracing: Tracing{
			ServiceName: "mrtdown-site",
		},
	}
}

// Load reads configuration from a YAML file with MRTDOWN_* environment
// overrides (e.g. MRTDOWN_UPSTREAM_BASE_URL). Missing files fall back to defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MRTDOWN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	normalise(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("addr", d.Addr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("catalogue_path", d.CataloguePath)
	v.SetDefault("poll_interval_seconds", d.PollIntervalSeconds)
	v.SetDefault("timeline_days", d.TimelineDays)
	v.SetDefault("upstream.base_url", d.Upstream.BaseURL)
	v.SetDefault("upstream.timeout_seconds", d.Upstream.TimeoutSeconds)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.file_path", d.Cache.FilePath)
	v.SetDefault("cache.ttl_seconds", d.Cache.TTLSeconds)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}

func normalise(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = defaults.PollIntervalSeconds
	}
	if cfg.TimelineDays <= 0 {
		cfg.TimelineDays = defaults.TimelineDays
	}
	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = defaults.Upstream.TimeoutSeconds
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = defaults.Cache.TTLSeconds
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaults.Timezone
	}
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	cfg.Upstream.BaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.Upstream.BaseURL), "/")
}

func validate(cfg Config) error {
	if cfg.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not an absolute URL", cfg.Upstream.BaseURL)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", cfg.Timezone, err)
	}
	switch cfg.Cache.Backend {
	case CacheMemory:
	case CacheFile:
		if cfg.Cache.FilePath == "" {
			return errors.New("cache.file_path is required for the file backend")
		}
	case CacheRedis:
		if cfg.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
	return nil
}

// Location returns the reporting time zone. Load has already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PollInterval returns the overview refresh period.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

// CacheTTL returns how long upstream responses stay fresh.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// UpstreamTimeout bounds each upstream request.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}
