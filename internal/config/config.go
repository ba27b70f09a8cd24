package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sim holds all configuration for the charge simulator.
type Sim struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Host tick pacing. Zero runs the scenario as fast as possible.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Command queue capacity of the tick manager.
	CommandQueueSize int `yaml:"command_queue_size"`

	Charge Charge `yaml:"charge"`

	// Database stores maintained effects. Disabled keeps them in memory only.
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultSim returns Sim config with sensible defaults.
func DefaultSim() Sim {
	return Sim{
		LogLevel:         "info",
		TickInterval:     0,
		CommandQueueSize: 64,
		Charge:           DefaultCharge(),
		Database: DatabaseConfig{
			Enabled:  false,
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "overcharge",
			Password: "overcharge",
			DBName:   "overcharge",
			SSLMode:  "disable",
		},
	}
}

// LoadSim loads simulator config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSim(path string) (Sim, error) {
	cfg := DefaultSim()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.Charge = cfg.Charge.Sanitized()
	if cfg.CommandQueueSize <= 0 {
		cfg.CommandQueueSize = DefaultSim().CommandQueueSize
	}

	return cfg, nil
}
