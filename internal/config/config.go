package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every environment-driven setting of the service
type Config struct {
	Environment string     `env:"ENVIRONMENT" envDefault:"development"`
	Port        string     `env:"PORT" envDefault:"5000"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	SecretKey   string `env:"SECRET_KEY" envDefault:"teaching-assistant-system-secret-key-2023"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite:///teaching_assistant.db"`
	RedisURL    string `env:"REDIS_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	UploadFolder     string `env:"UPLOAD_FOLDER" envDefault:"static/uploads"`
	MaxContentLength int64  `env:"MAX_CONTENT_LENGTH" envDefault:"16777216"`
	TemplatesDir     string `env:"TEMPLATES_DIR"`

	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	RememberTTL  time.Duration `env:"REMEMBER_TTL" envDefault:"720h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	SeedDemoData bool `env:"SEED_DEMO_DATA" envDefault:"false"`
}

// LoadConfig reads an optional .env file and parses the environment
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the current environment only
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("SECRET_KEY must not be empty")
	}
	if cfg.MaxContentLength <= 0 {
		return nil, fmt.Errorf("MAX_CONTENT_LENGTH must be positive")
	}
	if cfg.SessionTTL <= 0 || cfg.RememberTTL <= 0 {
		return nil, fmt.Errorf("session lifetimes must be positive")
	}
	if _, _, err := cfg.Database(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Database splits DATABASE_URL into a gorm driver name and its DSN.
// sqlite:///relative.db and sqlite:////abs/path.db follow the SQLAlchemy form.
func (c *Config) Database() (driver, dsn string, err error) {
	url := strings.TrimSpace(c.DatabaseURL)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url, nil
	case strings.HasPrefix(url, "sqlite:///"):
		path := strings.TrimPrefix(url, "sqlite:///")
		if path == "" {
			return "", "", fmt.Errorf("DATABASE_URL %q has no sqlite path", url)
		}
		return DriverSQLite, path, nil
	case url == "sqlite://" || url == "sqlite::memory:":
		return DriverSQLite, ":memory:", nil
	default:
		return "", "", fmt.Errorf("unsupported DATABASE_URL %q", url)
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
