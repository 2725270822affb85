package config

import (
	"fmt"

	"github.com/nurapulse/pulse/core/logger"
	infralogger "github.com/nurapulse/pulse/infra/logger"
)

// LoggingConfig defines the log level and optional file rotation.
type LoggingConfig struct {
	Level string `json:"level"`
	// File enables a rotated copy of the log next to stdout.
	File string `json:"file"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.File != "" {
		if c.MaxSizeMB <= 0 {
			c.MaxSizeMB = 50
		}
		if c.MaxBackups <= 0 {
			c.MaxBackups = 5
		}
		if c.MaxAgeDays <= 0 {
			c.MaxAgeDays = 28
		}
	}
}

// Validate checks the level name and rotation bounds.
func (c LoggingConfig) Validate() error {
	if _, err := logger.ParseLevel(c.Level); err != nil {
		return err
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 || c.MaxAgeDays < 0 {
		return fmt.Errorf("rotation settings must not be negative")
	}
	return nil
}

// Options converts the section for infra/logger.Configure.
func (c LoggingConfig) Options() infralogger.Options {
	return infralogger.Options{
		Level:      c.Level,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
