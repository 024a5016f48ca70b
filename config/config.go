package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

type Config struct {
	// HTTP server
	Port string `yaml:"port"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Schedule cache
	CacheBackend string        `yaml:"cache_backend"`
	RedisAddr    string        `yaml:"redis_addr"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`

	// Memory cache bound; the oldest unused schedules are evicted past it
	CacheMaxEntries int `yaml:"cache_max_entries"`

	// Per-IP rate limiting on /loan routes
	RateLimitCapacity int           `yaml:"rate_limit_capacity"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
}

func Default() *Config {
	return &Config{
		Port:              "8080",
		LogLevel:          "info",
		LogFormat:         "text",
		CacheBackend:      CacheMemory,
		RedisAddr:         "localhost:6379",
		CacheTTL:          10 * time.Minute,
		CacheMaxEntries:   10_000,
		RateLimitCapacity: 30,
		RateLimitWindow:   time.Minute,
	}
}

// Load builds the configuration from defaults, a .env file in the working
// directory, the YAML file at path (or $LENDTRACK_CONFIG) and finally the
// environment. It does not validate.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("LENDTRACK_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error

	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.CacheBackend = getEnv("CACHE_BACKEND", c.CacheBackend)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)

	c.CacheTTL, err = getEnvDuration("CACHE_TTL", c.CacheTTL, err)
	c.CacheMaxEntries, err = getEnvInt("CACHE_MAX_ENTRIES", c.CacheMaxEntries, err)
	c.RateLimitCapacity, err = getEnvInt("RATE_LIMIT_CAPACITY", c.RateLimitCapacity, err)
	c.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", c.RateLimitWindow, err)

	return err
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error

	if port, convErr := strconv.Atoi(c.Port); convErr != nil {
		err = multierr.Append(err, fmt.Errorf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		err = multierr.Append(err, fmt.Errorf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("invalid log level %q", c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("invalid log format %q: must be text or json", c.LogFormat))
	}

	switch c.CacheBackend {
	case CacheNone:
	case CacheMemory:
		if c.CacheMaxEntries < 1 {
			err = multierr.Append(err, fmt.Errorf("invalid cache max entries %d: must be at least 1", c.CacheMaxEntries))
		}
	case CacheRedis:
		if c.RedisAddr == "" {
			err = multierr.Append(err, errors.New("redis address is required when using the redis cache"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("invalid cache backend %q: must be one of %s, %s, %s",
			c.CacheBackend, CacheMemory, CacheRedis, CacheNone))
	}

	if c.CacheTTL < 0 {
		err = multierr.Append(err, fmt.Errorf("invalid cache ttl %v: must not be negative", c.CacheTTL))
	}
	if c.RateLimitCapacity < 1 {
		err = multierr.Append(err, fmt.Errorf("invalid rate limit capacity %d: must be at least 1", c.RateLimitCapacity))
	}
	if c.RateLimitWindow < time.Second {
		err = multierr.Append(err, fmt.Errorf("invalid rate limit window %v: must be at least 1 second", c.RateLimitWindow))
	}

	return err
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs error) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, errs
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback, multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return i, errs
}

func getEnvDuration(key string, fallback time.Duration, errs error) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, multierr.Append(errs, fmt.Errorf("%s: %w", key, err))
	}
	return d, errs
}
