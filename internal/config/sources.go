package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName        = "switchroom"
	configFileName = "switchroom.toml"
)

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	for _, name := range []string{configFileName, "." + configFileName} {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// findUserConfigFile looks for a user-level config file.
// Checks ~/.switchroom/switchroom.toml first, then the OS-specific config
// directory.
func findUserConfigFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, "."+appName, configFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if cfgDir := osUserConfigDir(); cfgDir != "" {
		p := filepath.Join(cfgDir, appName, configFileName)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// osUserConfigDir returns the OS-specific user config directory.
// Returns empty string if the directory cannot be determined.
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return appdata
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	case "linux", "openbsd", "freebsd", "netbsd":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Agents = DefaultAgents
	cfg.InitialState = DefaultInitialState
	cfg.Warden = DefaultWarden
	cfg.Strategy = DefaultStrategy
	cfg.Seed = 0
	cfg.SeedFromUser = false
	cfg.Workers = 0
	cfg.MaxVisits = 0
	cfg.Output = DefaultOutput
	cfg.Debug = false
	cfg.Report = ""
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.LogCaller = false
	cfg.LogDir = ""
}

// GetConfigFile returns the file that supplied the highest-priority file
// value (project before user), or empty string.
func (cws *ConfigWithSources) GetConfigFile() string {
	if len(cws.Files) == 0 {
		return ""
	}
	return cws.Files[len(cws.Files)-1]
}
