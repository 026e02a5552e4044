package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Storage  StorageConfig
	Redis    RedisConfig
	CORS     CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.validate(cfg.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DISTRIWEB_APP_ENV" required:"true"`
	Port         string `envconfig:"DISTRIWEB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DISTRIWEB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DISTRIWEB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points at the remote distributor API every storefront call
// ultimately lands on.
type UpstreamConfig struct {
	BaseURL string        `envconfig:"DISTRIWEB_UPSTREAM_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"DISTRIWEB_UPSTREAM_TIMEOUT" default:"15s"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing upstream base url: %w", err)
	}
	if !parsed.IsAbs() {
		return fmt.Errorf("%s must be an absolute url", EnvUpstreamBaseURL)
	}
	return nil
}

// StorageConfig selects the durable key-value backend holding the session
// and cart records.
type StorageConfig struct {
	Backend    string `envconfig:"DISTRIWEB_STORAGE_BACKEND" default:"sqlite"`
	SQLitePath string `envconfig:"DISTRIWEB_STORAGE_SQLITE_PATH" default:"storefront.db"`
}

func (s StorageConfig) validate(redis RedisConfig) error {
	switch strings.ToLower(s.Backend) {
	case StorageBackendSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("%s is required for the sqlite backend", EnvStorageSQLitePath)
		}
	case StorageBackendRedis:
		if redis.URL == "" && redis.Address == "" {
			return fmt.Errorf("%s or %s is required for the redis backend", EnvRedisURL, EnvRedisAddr)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", s.Backend)
	}
	return nil
}

func (s StorageConfig) IsRedis() bool {
	return strings.EqualFold(s.Backend, StorageBackendRedis)
}

type RedisConfig struct {
	URL          string        `envconfig:"DISTRIWEB_REDIS_URL"`
	Address      string        `envconfig:"DISTRIWEB_REDIS_ADDR"`
	Password     string        `envconfig:"DISTRIWEB_REDIS_PASSWORD"`
	DB           int           `envconfig:"DISTRIWEB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DISTRIWEB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DISTRIWEB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DISTRIWEB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DISTRIWEB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DISTRIWEB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DISTRIWEB_CORS_ALLOWED_ORIGINS" default:"*"`
}
