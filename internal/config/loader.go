package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anand06amar/ScientificConferenceSystemportal-sub000/internal/persistence/sqlite/migration"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config captures environment driven configuration values for the conference scheduler.
type Config struct {
	HTTPPort             int           `env:"CONFERENCE_HTTP_PORT"               envDefault:"8080"`
	StorageDriver        string        `env:"CONFERENCE_STORAGE_DRIVER"          envDefault:"sqlite"`
	SQLitePath           string        `env:"CONFERENCE_SQLITE_PATH"             envDefault:"conference.db"`
	SQLiteBusyTimeout    time.Duration `env:"CONFERENCE_SQLITE_BUSY_TIMEOUT"     envDefault:"5s"`
	ActivityTimeout      time.Duration `env:"CONFERENCE_ACTIVITY_TIMEOUT"        envDefault:"2s"`
	RespondRatePerMinute int           `env:"CONFERENCE_RESPOND_RATE_PER_MINUTE" envDefault:"30"`
	RespondBurst         int           `env:"CONFERENCE_RESPOND_BURST"           envDefault:"10"`
	LogLevel             string        `env:"CONFERENCE_LOG_LEVEL"               envDefault:"info"`
	OTelEndpoint         string        `env:"CONFERENCE_OTEL_ENDPOINT"`
	ServiceName          string        `env:"CONFERENCE_SERVICE_NAME"            envDefault:"conference-scheduler"`
	SeedFile             string        `env:"CONFERENCE_SEED_FILE"`
}

// Load parses configuration values from the current process environment.
//
// Defaults come from the struct tags. Values that parse but make no sense are
// collected and reported together.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.SQLitePath = strings.TrimSpace(cfg.SQLitePath)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "CONFERENCE_HTTP_PORT")
	}
	switch cfg.StorageDriver {
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			missing = append(missing, "CONFERENCE_SQLITE_PATH")
		}
	case DriverMemory:
	default:
		invalid = append(invalid, "CONFERENCE_STORAGE_DRIVER")
	}
	if cfg.SQLiteBusyTimeout < 0 {
		invalid = append(invalid, "CONFERENCE_SQLITE_BUSY_TIMEOUT")
	}
	if cfg.ActivityTimeout <= 0 {
		invalid = append(invalid, "CONFERENCE_ACTIVITY_TIMEOUT")
	}
	if cfg.RespondRatePerMinute <= 0 {
		invalid = append(invalid, "CONFERENCE_RESPOND_RATE_PER_MINUTE")
	}
	if cfg.RespondBurst <= 0 {
		invalid = append(invalid, "CONFERENCE_RESPOND_BURST")
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		invalid = append(invalid, "CONFERENCE_LOG_LEVEL")
	}
	if cfg.ServiceName == "" {
		missing = append(missing, "CONFERENCE_SERVICE_NAME")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

// SQLite returns the connection settings for the configured database file.
func (c Config) SQLite() migration.SQLiteConfig {
	cfg := migration.DefaultSQLiteConfig(c.SQLitePath)
	if c.SQLiteBusyTimeout > 0 {
		cfg.BusyTimeout = c.SQLiteBusyTimeout
	}
	return cfg
}

// RespondInterval is the refill interval of the response rate limiter.
func (c Config) RespondInterval() time.Duration {
	if c.RespondRatePerMinute <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(c.RespondRatePerMinute)
}

func parseLevel(value string) (slog.Level, bool) {
	switch value {
	case "debug":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
