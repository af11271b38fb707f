package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the CLI looks for a config file when --config is not set.
const DefaultPath = ".ganttcpm.yaml"

// ServerConfig configures the HTTP boundary used by the dashboard.
type ServerConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:7420"
	Addr string `yaml:"addr"`

	// ReadTimeout bounds how long a request body may take to arrive
	ReadTimeout time.Duration `yaml:"-"`

	// MaxBodyBytes caps the size of an uploaded snapshot
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Config represents ganttcpm configuration options
type Config struct {
	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the handler: "text" (colored when on a terminal) or "json"
	LogFormat string `yaml:"log_format"`

	// FinishToStartOnly schedules every relation with finish-to-start arithmetic
	FinishToStartOnly bool `yaml:"finish_to_start_only"`

	// Output selects the CLI output: "table" or "json"
	Output string `yaml:"output"`

	// Server contains HTTP server configuration
	Server ServerConfig `yaml:"server"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Output:    "table",
		Server: ServerConfig{
			Addr:         "127.0.0.1:7420",
			ReadTimeout:  10 * time.Second,
			MaxBodyBytes: 4 << 20,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	// Use a temporary struct to handle duration parsing
	type yamlServer struct {
		Addr         string `yaml:"addr"`
		ReadTimeout  string `yaml:"read_timeout"`
		MaxBodyBytes int64  `yaml:"max_body_bytes"`
	}
	type yamlConfig struct {
		LogLevel          string     `yaml:"log_level"`
		LogFormat         string     `yaml:"log_format"`
		FinishToStartOnly bool       `yaml:"finish_to_start_only"`
		Output            string     `yaml:"output"`
		Server            yamlServer `yaml:"server"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogFormat != "" {
		cfg.LogFormat = yamlCfg.LogFormat
	}
	if yamlCfg.FinishToStartOnly {
		cfg.FinishToStartOnly = true
	}
	if yamlCfg.Output != "" {
		cfg.Output = yamlCfg.Output
	}
	if yamlCfg.Server.Addr != "" {
		cfg.Server.Addr = yamlCfg.Server.Addr
	}
	if yamlCfg.Server.ReadTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Server.ReadTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid read_timeout format %q: %w", yamlCfg.Server.ReadTimeout, err)
		}
		cfg.Server.ReadTimeout = timeout
	}
	if yamlCfg.Server.MaxBodyBytes != 0 {
		cfg.Server.MaxBodyBytes = yamlCfg.Server.MaxBodyBytes
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (want debug, info, warn or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want text or json)", c.LogFormat)
	}
	switch c.Output {
	case "table", "json":
	default:
		return fmt.Errorf("invalid output %q (want table or json)", c.Output)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	return nil
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(logLevel *string, finishToStartOnly *bool, output *string, addr *string) {
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if finishToStartOnly != nil {
		c.FinishToStartOnly = *finishToStartOnly
	}
	if output != nil {
		c.Output = *output
	}
	if addr != nil {
		c.Server.Addr = *addr
	}
}
