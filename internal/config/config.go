package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const DefaultConfigFileName = "config.toml"

// Config holds application configuration
type Config struct {
	DBPath              string `toml:"db_path"`
	DefaultFilter       string `toml:"default_filter"`
	FirstDayOfWeek      string `toml:"first_day_of_week"`
	ProjectDeletePolicy string `toml:"project_delete_policy"`
	ListenAddr          string `toml:"listen_addr"`
}

// LoadOrCreate reads the config file, writing the defaults first when it does
// not exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// FirstDay maps the configured week start to a weekday. Unknown values fall
// back to Monday.
func (c Config) FirstDay() time.Weekday {
	switch strings.ToLower(c.FirstDayOfWeek) {
	case "sunday":
		return time.Sunday
	case "saturday":
		return time.Saturday
	default:
		return time.Monday
	}
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DefaultFilter:       "all",
		FirstDayOfWeek:      "monday",
		ProjectDeletePolicy: "detach",
		ListenAddr:          "127.0.0.1:8590",
	}
}
