// Package config loads worker configuration and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all worker configuration. Values come from an optional YAML
// file overlaid with environment variables.
type Config struct {
	// Orders root shared with the admin API/UI process.
	OrdersRoot string `yaml:"orders_root" env:"PHOTODEX_ORDERS_ROOT" env-default:"/srv/orders"`

	// Trigger polling and daily schedule.
	PollInterval  time.Duration `yaml:"poll_interval" env:"PHOTODEX_POLL_INTERVAL" env-default:"1s"`
	ScheduledHour int           `yaml:"scheduled_hour" env:"PHOTODEX_SCHEDULED_HOUR" env-default:"3"`

	// Ecommerce API.
	APIBaseURL string        `yaml:"api_base_url" env:"PHOTODEX_API_BASE_URL"`
	APIKey     string        `yaml:"api_key" env:"PHOTODEX_API_KEY"`
	APIDelay   time.Duration `yaml:"api_delay" env:"PHOTODEX_API_DELAY" env-default:"200ms"`
	APITimeout time.Duration `yaml:"api_timeout" env:"PHOTODEX_API_TIMEOUT" env-default:"30s"`

	// Search index.
	MeiliURL string `yaml:"meili_url" env:"PHOTODEX_MEILI_URL" env-default:"http://localhost:7700"`
	MeiliKey string `yaml:"meili_key" env:"PHOTODEX_MEILI_KEY"`

	// Logging.
	LogFile  string `yaml:"log_file" env:"PHOTODEX_LOG_FILE" env-default:"/tmp/photodex.log"`
	LogLevel string `yaml:"log_level" env:"PHOTODEX_LOG_LEVEL" env-default:"INFO"`
}

// Load reads configuration from the given YAML file (skipped when path is
// empty or the file does not exist) and then from the environment.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		err := cleanenv.ReadConfig(path, &cfg)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err == nil {
			return cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env config: %w", err)
	}
	return cfg, nil
}

// Level parses the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
