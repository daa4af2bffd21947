package config

import "fmt"

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string        `yaml:"level"`  // debug, info, warn, error
	Format  string        `yaml:"format"` // text, json
	Dir     string        `yaml:"dir"`    // log directory path
	Console ConsoleConfig `yaml:"console"`
	File    FileConfig    `yaml:"file"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FileConfig holds file output configuration
type FileConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxSize    int  `yaml:"max_size"`    // MB
	MaxBackups int  `yaml:"max_backups"` // number of files
	MaxAge     int  `yaml:"max_age"`     // days
	Compress   bool `yaml:"compress"`    // gzip old files
}

// DefaultLoggingConfig returns default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:   "info",
		Format:  "text",
		Dir:     "logs",
		Console: ConsoleConfig{Enabled: true},
		File: FileConfig{
			Enabled:    false,
			MaxSize:    100,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
	}
}

// Validate validates the configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}

	if c.File.Enabled && c.Dir == "" {
		return fmt.Errorf("log directory cannot be empty when file logging is enabled")
	}

	return nil
}
