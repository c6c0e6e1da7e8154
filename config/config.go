package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Server    ServerConfig    `mapstructure:"server"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
	Log       LogConfig       `mapstructure:"log"`
	Selection SelectionConfig `mapstructure:"selection"`
}

// APIConfig locates the analytics service. WSURL defaults to BaseURL with
// the scheme switched to ws/wss.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	WSURL   string        `mapstructure:"ws_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AnalyticsConfig struct {
	LiveStrategies []string `mapstructure:"live_strategies"`
}

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type CacheConfig struct {
	Backend      string       `mapstructure:"backend"` // memory, sqlite, postgres or redis
	TimeZone     string       `mapstructure:"timezone"`
	SingleFlight bool         `mapstructure:"single_flight"`
	SQLite       SQLiteConfig `mapstructure:"sqlite"`
	Redis        RedisConfig  `mapstructure:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type RefreshConfig struct {
	Spec string `mapstructure:"spec"` // six-field cron spec, seconds first
}

// SelectionConfig is the symbol/strategy pair selected at startup.
type SelectionConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Strategy string `mapstructure:"strategy"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 10 * time.Second,
		},
		Analytics: AnalyticsConfig{
			LiveStrategies: []string{"sma"},
		},
		Cache: CacheConfig{
			Backend:  BackendSQLite,
			TimeZone: "America/New_York",
			SQLite:   SQLiteConfig{Path: "data/livechart.db"},
			Redis:    RedisConfig{Addr: "localhost:6379", Prefix: "livechart:"},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "livechart",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    ":8080",
		},
		Refresh: RefreshConfig{
			Spec: "1 0 0 * * *",
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Environment: "dev",
		},
		Selection: SelectionConfig{
			Symbol:   "AAPL",
			Strategy: "sma",
		},
	}
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := newViper()

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}
	v.AddConfigPath("config")

	cfg, err := read(v)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// LoadFile reads the configuration from an explicit file path.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	return read(v)
}

func newViper() *viper.Viper {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	v := viper.New()
	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	// Support environment variables with dot notation (e.g., API_BASE_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func read(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so env overrides apply even without a file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.ws_url", d.API.WSURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("analytics.live_strategies", d.Analytics.LiveStrategies)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.timezone", d.Cache.TimeZone)
	v.SetDefault("cache.single_flight", d.Cache.SingleFlight)
	v.SetDefault("cache.sqlite.path", d.Cache.SQLite.Path)
	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("cache.redis.prefix", d.Cache.Redis.Prefix)
	v.SetDefault("postgres.host", d.Postgres.Host)
	v.SetDefault("postgres.port", d.Postgres.Port)
	v.SetDefault("postgres.user", d.Postgres.User)
	v.SetDefault("postgres.password", d.Postgres.Password)
	v.SetDefault("postgres.dbname", d.Postgres.DBName)
	v.SetDefault("postgres.sslmode", d.Postgres.SSLMode)
	v.SetDefault("postgres.timezone", d.Postgres.TimeZone)
	v.SetDefault("postgres.max_open_conns", d.Postgres.MaxOpenConns)
	v.SetDefault("postgres.max_idle_conns", d.Postgres.MaxIdleConns)
	v.SetDefault("postgres.conn_max_lifetime", d.Postgres.ConnMaxLifetime)
	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("refresh.spec", d.Refresh.Spec)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output_file", d.Log.OutputFile)
	v.SetDefault("log.environment", d.Log.Environment)
	v.SetDefault("selection.symbol", d.Selection.Symbol)
	v.SetDefault("selection.strategy", d.Selection.Strategy)
}

// Validate rejects configurations the application cannot start with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url is required")
	}
	switch c.Cache.Backend {
	case BackendMemory, BackendSQLite, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendSQLite && c.Cache.SQLite.Path == "" {
		return errors.New("config: cache.sqlite.path is required for the sqlite backend")
	}
	if _, err := time.LoadLocation(c.Cache.TimeZone); err != nil {
		return fmt.Errorf("config: cache.timezone: %w", err)
	}
	return nil
}
