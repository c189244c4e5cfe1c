// Package config provides configuration loading for detctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/strongdm/ai-cxdb-det/pkg/det"
)

// DefaultPath is searched when no config path is given.
const DefaultPath = "detctl.toml"

// Config is the detctl configuration file.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Tracer TracerConfig `toml:"tracer"`
	Sinks  SinksConfig  `toml:"sinks"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `toml:"level"`  // debug, info, warn, error
	Format string `toml:"format"` // text or json
	Output string `toml:"output"` // stdout, stderr, or a file path
}

// TracerConfig bounds the tracer logs.
type TracerConfig struct {
	Capacity int    `toml:"capacity"` // 0 = unbounded
	Overflow string `toml:"overflow"` // drop_oldest or reject_new
}

// SinksConfig enables trace outputs.
type SinksConfig struct {
	Stderr        bool   `toml:"stderr"`
	Verbose       bool   `toml:"verbose"`
	Slog          bool   `toml:"slog"`
	CXDBAddr      string `toml:"cxdb_addr"`
	CXDBClientTag string `toml:"cxdb_client_tag"`
	AsyncQueue    int    `toml:"async_queue"` // 0 = synchronous cxdb writes
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Tracer: TracerConfig{
			Overflow: det.DropOldest.String(),
		},
		Sinks: SinksConfig{
			Stderr:        true,
			CXDBClientTag: "detctl",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path tries
// DefaultPath and falls back to defaults when it does not exist.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg, rejecting unknown keys.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DETCTL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DETCTL_CXDB_ADDR"); v != "" {
		cfg.Sinks.CXDBAddr = v
	}
	if v := os.Getenv("DETCTL_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DETCTL_CAPACITY: %w", err)
		}
		cfg.Tracer.Capacity = n
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error (got %q)", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json (got %q)", c.Log.Format)
	}
	if c.Tracer.Capacity < 0 {
		return fmt.Errorf("tracer.capacity must not be negative (got %d)", c.Tracer.Capacity)
	}
	if _, err := c.Tracer.Policy(); err != nil {
		return err
	}
	if c.Sinks.AsyncQueue < 0 {
		return fmt.Errorf("sinks.async_queue must not be negative (got %d)", c.Sinks.AsyncQueue)
	}
	return nil
}

// Policy returns the configured overflow policy.
func (t TracerConfig) Policy() (det.OverflowPolicy, error) {
	switch t.Overflow {
	case "", det.DropOldest.String():
		return det.DropOldest, nil
	case det.RejectNew.String():
		return det.RejectNew, nil
	default:
		return 0, fmt.Errorf("tracer.overflow must be %s or %s (got %q)", det.DropOldest, det.RejectNew, t.Overflow)
	}
}
