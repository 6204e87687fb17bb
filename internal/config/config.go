// Package config loads settings for the audit daemon.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults match the audit pipeline's built-in values.
const (
	DefaultAuditPeriod   = 120 * time.Second
	DefaultBatchSize     = 10
	DefaultQueueCapacity = 100
	DefaultLogLevel      = "info"
)

// ValidLogLevels lists accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Config is the audit daemon configuration.
type Config struct {
	// Database is the SQLite database holding the catalog and audits.
	Database string `yaml:"database"`

	// IPCPath is the Portal node's JSON-RPC socket.
	IPCPath string `yaml:"ipc_path"`

	AuditPeriod   time.Duration `yaml:"audit_period"`
	BatchSize     int           `yaml:"batch_size"`
	QueueCapacity int           `yaml:"queue_capacity"`

	// LookupTimeout bounds each network call. Zero means no bound.
	LookupTimeout time.Duration `yaml:"lookup_timeout"`

	LogLevel string `yaml:"log_level"`
}

// Default returns a Config with every optional field set.
func Default() Config {
	return Config{
		AuditPeriod:   DefaultAuditPeriod,
		BatchSize:     DefaultBatchSize,
		QueueCapacity: DefaultQueueCapacity,
		LogLevel:      DefaultLogLevel,
	}
}

// Load reads a YAML config file on top of Default.
//
// Unknown fields are rejected so typos surface instead of being ignored.
// The result is not validated; call Validate after applying overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		// An empty file is a valid, all-defaults config.
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return cfg, nil
}

// Validate checks required fields and ranges.
func (c Config) Validate() error {
	var errs []error

	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.IPCPath == "" {
		errs = append(errs, errors.New("ipc_path is required"))
	}
	if c.AuditPeriod <= 0 {
		errs = append(errs, fmt.Errorf("audit_period must be positive, got %s", c.AuditPeriod))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch_size must be positive, got %d", c.BatchSize))
	}
	if c.QueueCapacity <= 0 {
		errs = append(errs, fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity))
	}
	if c.LookupTimeout < 0 {
		errs = append(errs, fmt.Errorf("lookup_timeout must not be negative, got %s", c.LookupTimeout))
	}
	if !isValidLogLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log_level %q: must be one of %v", c.LogLevel, ValidLogLevels))
	}

	return errors.Join(errs...)
}

func isValidLogLevel(level string) bool {
	for _, l := range ValidLogLevels {
		if l == strings.ToLower(level) {
			return true
		}
	}
	return false
}
