package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Query    QueryConfig    `yaml:"query"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                   int           `yaml:"port"`
	RequestIPHeader        string        `yaml:"request_ip_header"`
	RateLimitPerMinute     float64       `yaml:"rate_limit_per_minute"`
	RateLimitBurst         int           `yaml:"rate_limit_burst"`
	ShutdownTimeoutSeconds int           `yaml:"shutdown_timeout_seconds"`
	ShutdownTimeout        time.Duration `yaml:"-"`
	GinMode                string        `yaml:"gin_mode"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// QueryConfig holds paging defaults for the levels listing.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// ImportConfig holds the configuration of the CSV batch importer.
type ImportConfig struct {
	Directory string        `yaml:"directory"`
	Workers   int           `yaml:"workers"`
	BatchSize int           `yaml:"batch_size"`
	Delimiter string        `yaml:"delimiter"`
	Columns   ColumnMapping `yaml:"columns"`
}

// ColumnMapping names the export columns that feed each reading field.
type ColumnMapping struct {
	Timestamp    string `yaml:"timestamp"`
	GlucoseValue string `yaml:"glucose_value"`
	Device       string `yaml:"device"`
	SerialNumber string `yaml:"serial_number"`
}

// LogConfig controls the process-wide slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultColumns is the column layout of the meter's German CSV export.
var DefaultColumns = ColumnMapping{
	Timestamp:    "Gerätezeitstempel",
	GlucoseValue: "Glukosewert-Verlauf mg/dL",
	Device:       "Gerät",
	SerialNumber: "Seriennummer",
}

// Load reads the configuration from the given path. A missing file is not an
// error: defaults and environment overrides are applied instead.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("config file not found; using defaults", "path", path)
	default:
		return nil, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, without
// reading a file or the environment.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			slog.Warn("ignoring invalid PORT", "value", v)
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("IMPORT_DIR"); v != "" {
		cfg.Import.Directory = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.RateLimitPerMinute <= 0 {
		cfg.Server.RateLimitPerMinute = 5
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.ShutdownTimeoutSeconds <= 0 {
		cfg.Server.ShutdownTimeoutSeconds = 5
	}
	cfg.Server.ShutdownTimeout = time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = "glucose.db"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Query.DefaultLimit <= 0 {
		cfg.Query.DefaultLimit = 100
	}
	if cfg.Query.MaxLimit <= 0 {
		cfg.Query.MaxLimit = 1000
	}

	if cfg.Import.Directory == "" {
		cfg.Import.Directory = "seed/"
	}
	if cfg.Import.Workers <= 0 {
		cfg.Import.Workers = 1
	}
	if cfg.Import.BatchSize <= 0 {
		cfg.Import.BatchSize = 500
	}
	if cfg.Import.Columns.Timestamp == "" {
		cfg.Import.Columns.Timestamp = DefaultColumns.Timestamp
	}
	if cfg.Import.Columns.GlucoseValue == "" {
		cfg.Import.Columns.GlucoseValue = DefaultColumns.GlucoseValue
	}
	if cfg.Import.Columns.Device == "" {
		cfg.Import.Columns.Device = DefaultColumns.Device
	}
	if cfg.Import.Columns.SerialNumber == "" {
		cfg.Import.Columns.SerialNumber = DefaultColumns.SerialNumber
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// Validate checks values that have no sensible default.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("query.default_limit (%d) exceeds query.max_limit (%d)", c.Query.DefaultLimit, c.Query.MaxLimit)
	}

	if len([]rune(c.Import.Delimiter)) > 1 {
		return fmt.Errorf("import.delimiter must be a single character, got %q", c.Import.Delimiter)
	}
	return nil
}
