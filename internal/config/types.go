package config

import "fmt"

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
	SourceEntropy  ConfigSource = "entropy"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, user file first.
	Files []string
}

// Default values.
const (
	DefaultAgents       = 100
	DefaultInitialState = "unknown"
	DefaultWarden       = "concurrent"
	DefaultStrategy     = "proper"
	DefaultOutput       = "full"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Config holds the full configuration for a run.
type Config struct {
	// Challenge
	Agents       int    `toml:"agents"`
	InitialState string `toml:"initial_state"`
	Warden       string `toml:"warden"`
	Strategy     string `toml:"strategy"`
	Seed         uint32 `toml:"seed"`

	// SeedFromUser is true when the seed came from a file, the environment
	// or a flag rather than from entropy.
	SeedFromUser bool `toml:"-"`

	// Scheduling limits
	Workers   int   `toml:"workers"`
	MaxVisits int64 `toml:"max_visits"`

	// Output
	Output string `toml:"output"`
	Debug  bool   `toml:"debug"`
	Report string `toml:"report"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	// LogDir enables per-run JSONL logs when non-empty.
	LogDir string `toml:"log_dir"`

	// Warnings collects the notes produced while loading.
	Warnings []string `toml:"-"`
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"agents",
		"initial_state",
		"warden",
		"strategy",
		"seed",
		"workers",
		"max_visits",
		"output",
		"debug",
		"report",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_dir",
	}
}

// ConfigFields returns the tracked field names in display order.
func ConfigFields() []string {
	return configFields()
}

// Value returns the display value of a tracked field.
func (c *Config) Value(field string) string {
	switch field {
	case "agents":
		return fmt.Sprint(c.Agents)
	case "initial_state":
		return c.InitialState
	case "warden":
		return c.Warden
	case "strategy":
		return c.Strategy
	case "seed":
		return fmt.Sprint(c.Seed)
	case "workers":
		return fmt.Sprint(c.Workers)
	case "max_visits":
		return fmt.Sprint(c.MaxVisits)
	case "output":
		return c.Output
	case "debug":
		return fmt.Sprint(c.Debug)
	case "report":
		return c.Report
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return fmt.Sprint(c.LogTimestamps)
	case "log_caller":
		return fmt.Sprint(c.LogCaller)
	case "log_dir":
		return c.LogDir
	default:
		return ""
	}
}
