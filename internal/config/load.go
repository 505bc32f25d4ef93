package config

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/switchroom/internal/rng"
	"github.com/nibzard/switchroom/internal/utils"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.switchroom/switchroom.toml or OS-specific config dir)
// 3. Project config file (switchroom.toml or .switchroom.toml in current directory)
// 4. Environment variables
// 5. CLI flags and the positional agent count
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := load(fs, args, nil)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}
	return load(fs, args, sources)
}

func load(fs *flag.FlagSet, args []string, sources map[string]ConfigSource) (*ConfigWithSources, error) {
	cfg := &Config{}
	cws := &ConfigWithSources{Config: cfg, Sources: sources}

	// 1. Set defaults
	setDefaults(cfg)

	// 2. User config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
		cws.Files = append(cws.Files, path)
	}

	// 3. Project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cfg, path, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
		cws.Files = append(cws.Files, path)
	}

	// 4. Environment
	loadFromEnv(cfg, sources)

	// 5. CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Derived values
	finalizeConfig(cfg, sources)

	return cws, nil
}

// fileValues mirrors Config with pointer fields so that keys present in a
// file can be told apart from zero values.
type fileValues struct {
	Agents        *int    `toml:"agents"`
	InitialState  *string `toml:"initial_state"`
	Warden        *string `toml:"warden"`
	Strategy      *string `toml:"strategy"`
	Seed          *uint32 `toml:"seed"`
	Workers       *int    `toml:"workers"`
	MaxVisits     *int64  `toml:"max_visits"`
	Output        *string `toml:"output"`
	Debug         *bool   `toml:"debug"`
	Report        *string `toml:"report"`
	LogLevel      *string `toml:"log_level"`
	LogFormat     *string `toml:"log_format"`
	LogTimestamps *bool   `toml:"log_timestamps"`
	LogCaller     *bool   `toml:"log_caller"`
	LogDir        *string `toml:"log_dir"`
}

// loadConfigFile reads a TOML file into cfg. Keys that fail schema
// validation or are unknown are skipped with a warning. Only unreadable
// files and TOML syntax errors are returned.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return err
	}

	a := applier{cfg: cfg, sources: sources, source: source, origin: filepath.Base(path)}

	violations, err := validateRaw(raw)
	if err != nil {
		return err
	}
	for _, v := range violations {
		if _, ok := raw[v.Key]; !ok {
			continue
		}
		a.warnf("%s: %s; ignored", v.Key, v.Message)
		delete(raw, v.Key)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return fmt.Errorf("re-encoding %s: %w", path, err)
	}
	var fv fileValues
	md, err := toml.Decode(buf.String(), &fv)
	if err != nil {
		return err
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		a.warnf("unknown key '%s'; ignored", key)
	}

	applyFileValues(a, &fv)
	return nil
}

func applyFileValues(a applier, fv *fileValues) {
	if fv.Agents != nil {
		a.agents(*fv.Agents)
	}
	if fv.InitialState != nil {
		a.initialState(*fv.InitialState)
	}
	if fv.Warden != nil {
		a.warden(*fv.Warden)
	}
	if fv.Strategy != nil {
		a.strategy(*fv.Strategy)
	}
	if fv.Seed != nil {
		a.seed(*fv.Seed)
	}
	if fv.Workers != nil {
		a.workers(*fv.Workers)
	}
	if fv.MaxVisits != nil {
		a.maxVisits(*fv.MaxVisits)
	}
	if fv.Output != nil {
		a.output(*fv.Output)
	}
	if fv.Debug != nil {
		a.boolean("debug", *fv.Debug)
	}
	if fv.Report != nil {
		a.report(*fv.Report)
	}
	if fv.LogLevel != nil {
		a.logLevel(*fv.LogLevel)
	}
	if fv.LogFormat != nil {
		a.logFormat(*fv.LogFormat)
	}
	if fv.LogTimestamps != nil {
		a.boolean("log_timestamps", *fv.LogTimestamps)
	}
	if fv.LogCaller != nil {
		a.boolean("log_caller", *fv.LogCaller)
	}
	if fv.LogDir != nil {
		a.logDir(*fv.LogDir)
	}
}

// finalizeConfig computes derived values.
func finalizeConfig(cfg *Config, sources map[string]ConfigSource) {
	// Expand ~ in paths
	cfg.LogDir = expandPath(cfg.LogDir)

	if !cfg.SeedFromUser {
		cfg.Seed = rng.Entropy()
		if sources != nil {
			sources["seed"] = SourceEntropy
		}
	}

	if norm, ok := utils.NormalizeReportFormat(cfg.Report); ok {
		cfg.Report = norm
	} else {
		cfg.Report = ""
	}
}
