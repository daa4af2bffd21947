package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode distinguishes production from non-production deployments. It gates
// whether downstream error details are echoed to callers.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// IsProduction returns true in production mode. Empty defaults to development.
func (m Mode) IsProduction() bool {
	return m == ModeProduction
}

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Mode    Mode          `yaml:"mode"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodySize    int64         `yaml:"max_body_size"`
}

// ProxyConfig holds per-request connection settings.
type ProxyConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    1 << 20,
		},
		Proxy: ProxyConfig{
			ConnectTimeout: 10 * time.Second,
		},
		Mode:    ModeDevelopment,
		Logging: DefaultLoggingConfig(),
	}
}

// LoadConfig loads configuration from files and environment variables
// Order: defaults -> config.yml -> config.local.yml -> env overrides -> Validate
func LoadConfig() *Config {
	cfg := DefaultConfig()

	loadFile("config/config.yml", cfg)
	loadFile("config/config.local.yml", cfg)

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	return cfg
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("MONGORELAY_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Server.Port = port
		}
	}
	if val := os.Getenv("MONGORELAY_MODE"); val != "" {
		c.Mode = Mode(val)
	}
	if val := os.Getenv("MONGORELAY_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request_timeout must be positive")
	}
	if c.Proxy.ConnectTimeout <= 0 {
		return fmt.Errorf("proxy connect_timeout must be positive")
	}
	switch c.Mode {
	case ModeProduction, ModeDevelopment:
	default:
		return fmt.Errorf("invalid mode: %s (must be production or development)", c.Mode)
	}
	return c.Logging.Validate()
}
