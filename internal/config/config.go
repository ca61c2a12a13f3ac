// Package config loads the service configuration from a YAML file and
// applies environment overrides on top.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Shivanand-hulikatti/coursedesk/internal/database"
	"github.com/Shivanand-hulikatti/coursedesk/internal/tracing"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Session backends.
const (
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// Config is the complete service configuration.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		IdleTimeout     time.Duration `yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORSOrigin      string        `yaml:"cors_origin"`
	} `yaml:"server"`

	Database database.Config `yaml:"database"`

	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`

	Cache struct {
		MaxEntries int           `yaml:"max_entries"`
		DefaultTTL time.Duration `yaml:"default_ttl"`
	} `yaml:"cache"`

	Session struct {
		Backend    string        `yaml:"backend"`
		TTL        time.Duration `yaml:"ttl"`
		CookieName string        `yaml:"cookie_name"`
		Secure     bool          `yaml:"secure"`
	} `yaml:"session"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Tracing tracing.Config `yaml:"tracing"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Second
	cfg.Server.IdleTimeout = 60 * time.Second
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Server.CORSOrigin = "*"

	cfg.Database = database.Config{
		Host:     "localhost",
		Port:     "5432",
		User:     "postgres",
		Password: "postgres",
		DBName:   "coursedesk",
		SSLMode:  "disable",
	}

	cfg.Storage.Driver = DriverPostgres

	cfg.Cache.MaxEntries = 200
	cfg.Cache.DefaultTTL = 90 * time.Second

	cfg.Session.Backend = SessionRedis
	cfg.Session.TTL = 7 * 24 * time.Hour
	cfg.Session.CookieName = "coursedesk_session"

	cfg.Redis.Addr = "localhost:6379"

	cfg.Tracing = tracing.Config{
		Endpoint:    "http://localhost:14268/api/traces",
		ServiceName: "coursedesk",
	}

	cfg.Metrics.Enabled = true
	cfg.Metrics.Path = "/metrics"

	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrapf(err, "read config %s", path)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Session.Backend = getEnv("SESSION_BACKEND", c.Session.Backend)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = b
		}
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch c.Storage.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return errors.Errorf("storage.driver %q: want %s or %s", c.Storage.Driver, DriverPostgres, DriverMemory)
	}
	switch c.Session.Backend {
	case SessionRedis, SessionMemory:
	default:
		return errors.Errorf("session.backend %q: want %s or %s", c.Session.Backend, SessionRedis, SessionMemory)
	}
	if c.Cache.MaxEntries <= 0 {
		return errors.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.DefaultTTL <= 0 {
		return errors.Errorf("cache.default_ttl must be positive, got %s", c.Cache.DefaultTTL)
	}
	if c.Session.TTL <= 0 {
		return errors.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.CookieName == "" {
		return errors.New("session.cookie_name is required")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return errors.New("tracing.endpoint is required when tracing is enabled")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
