package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"medbook/internal/slots"
)

// DefaultPath is used when MEDBOOK_CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

type ServerConfig struct {
	Address         string `yaml:"address"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
	DefaultLanguage string `yaml:"default_language"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
	Key     string `yaml:"key"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type HoursConfig struct {
	slots.BusinessHours `yaml:",inline"`
	Timezone            string `yaml:"timezone"`
}

type BookingConfig struct {
	WindowDays            int `yaml:"window_days"`
	RescheduleMaxDays     int `yaml:"reschedule_max_days"`
	SessionTimeoutMinutes int `yaml:"session_timeout_minutes"`
}

type CatalogConfig struct {
	Path          string `yaml:"path"`
	ReloadSeconds int    `yaml:"reload_seconds"`
}

type MonitoringConfig struct {
	HealthCheckPort   int  `yaml:"health_check_port"`
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Hours      HoursConfig      `yaml:"hours"`
	Booking    BookingConfig    `yaml:"booking"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Backup     BackupConfig     `yaml:"backup"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
}

// Default returns a configuration usable without any file.
func Default() *Config {
	cfg := &Config{}
	cfg.Hours.BusinessHours = slots.DefaultHours()
	cfg.applyDefaults()
	return cfg
}

// PathFromEnv returns MEDBOOK_CONFIG_PATH or DefaultPath.
func PathFromEnv() string {
	if p := os.Getenv("MEDBOOK_CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the YAML config at path. A .env file next to the working directory
// is loaded first when present, so its variables can fill ${ENV} placeholders.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = PathFromEnv()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	cfg := &Config{}
	cfg.Hours.BusinessHours = slots.DefaultHours()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Backend == BackendFile || cfg.Storage.Backend == BackendSQLite {
		if err = os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.DefaultLanguage == "" {
		c.Server.DefaultLanguage = "en"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	if c.Storage.Key == "" {
		c.Storage.Key = "medbook.appointments"
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case BackendFile:
			c.Storage.Path = "data/appointments.json"
		case BackendSQLite:
			c.Storage.Path = "data/medbook.db"
		}
	}
	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "data/backups"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if err := c.Hours.Validate(); err != nil {
		return fmt.Errorf("hours: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone slots are generated in.
func (c *Config) Location() (*time.Location, error) {
	if c.Hours.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Hours.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Hours.Timezone, err)
	}
	return loc, nil
}

func (c *Config) BookingWindowDays() int {
	if c.Booking.WindowDays <= 0 {
		return 7
	}
	return c.Booking.WindowDays
}

func (c *Config) RescheduleMaxDays() int {
	if c.Booking.RescheduleMaxDays <= 0 {
		return 30
	}
	return c.Booking.RescheduleMaxDays
}

func (c *Config) SessionTimeout() time.Duration {
	if c.Booking.SessionTimeoutMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Booking.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) CatalogReloadInterval() time.Duration {
	if c.Catalog.ReloadSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Catalog.ReloadSeconds) * time.Second
}

func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
