package config

import (
	"fmt"
	"os"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds daemon configuration
type Config struct {
	LogLevel    string        `yaml:"log_level" default:"info"`
	Bus         string        `yaml:"bus" default:"system"` // system or session
	Adapter     string        `yaml:"adapter" default:"/org/bluez/hci0"`
	RootPath    string        `yaml:"root_path" default:"/org/bluegatt"`
	CallTimeout time.Duration `yaml:"call_timeout" default:"5s"`
	Profile     string        `yaml:"profile"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.Bus != "system" && c.Bus != "session" {
		return fmt.Errorf("invalid bus: %s (must be system or session)", c.Bus)
	}
	if !dbus.ObjectPath(c.Adapter).IsValid() {
		return fmt.Errorf("invalid adapter path: %q", c.Adapter)
	}
	if !dbus.ObjectPath(c.RootPath).IsValid() {
		return fmt.Errorf("invalid root path: %q", c.RootPath)
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("invalid call timeout: %s", c.CallTimeout)
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return lvl, nil
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if lvl, err := c.Level(); err == nil {
		logger.SetLevel(lvl)
	}

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
