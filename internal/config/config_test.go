// Package config tests configuration loading.
package config

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/nibzard/switchroom/internal/agent"
	"github.com/nibzard/switchroom/internal/events"
	"github.com/nibzard/switchroom/internal/room"
	"github.com/nibzard/switchroom/internal/warden"
)

// isolate points every config location at a fresh temp dir and clears
// SWITCHROOM_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("APPDATA", filepath.Join(dir, "AppData"))
	for _, field := range configFields() {
		t.Setenv(envPrefix+strings.ToUpper(field), "")
	}
	t.Chdir(dir)
	return dir
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func hasWarning(cfg *Config, substr string) bool {
	for _, w := range cfg.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	if cfg.Agents != DefaultAgents {
		t.Errorf("Agents: got %d, want %d", cfg.Agents, DefaultAgents)
	}
	if cfg.InitialState != "unknown" {
		t.Errorf("InitialState: got %q, want unknown", cfg.InitialState)
	}
	if cfg.Warden != "concurrent" {
		t.Errorf("Warden: got %q, want concurrent", cfg.Warden)
	}
	if cfg.Strategy != "proper" {
		t.Errorf("Strategy: got %q, want proper", cfg.Strategy)
	}
	if cfg.Output != "full" {
		t.Errorf("Output: got %q, want full", cfg.Output)
	}
	if cfg.SeedFromUser {
		t.Error("SeedFromUser should be false by default")
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(*Config) bool
		warning string
	}{
		{"initial alias", []string{"-i", "on"}, func(c *Config) bool { return c.InitialState == "set" }, ""},
		{"initial underscore", []string{"-initial_state=off"}, func(c *Config) bool { return c.InitialState == "reset" }, ""},
		{"bad initial", []string{"-init", "sideways"}, func(c *Config) bool { return c.InitialState == "unknown" }, "'sideways' is not a valid initial switch state; ignored"},
		{"warden and strategy", []string{"-w", "seq", "-st", "i"}, func(c *Config) bool { return c.Warden == "sequential" && c.Strategy == "improper" }, ""},
		{"bad warden", []string{"-ward", "lazy"}, func(c *Config) bool { return c.Warden == "concurrent" }, "'lazy' is not a valid warden type; ignored"},
		{"bad strategy", []string{"-strat", "lucky"}, func(c *Config) bool { return c.Strategy == "proper" }, "'lucky' is not a valid strategy specifier; ignored"},
		{"seed", []string{"-se", "42"}, func(c *Config) bool { return c.Seed == 42 && c.SeedFromUser }, ""},
		{"bad seed", []string{"-seed", "abc"}, func(c *Config) bool { return !c.SeedFromUser }, "'abc' isn't a valid seed value; ignored"},
		{"positional count", []string{"7", "-v"}, func(c *Config) bool { return c.Agents == 7 && c.Output == "full" }, ""},
		{"positional after flag", []string{"-seed", "42", "12"}, func(c *Config) bool { return c.Agents == 12 && c.Seed == 42 }, ""},
		{"halfway", []string{"-halfway"}, func(c *Config) bool { return c.Output == "entries" }, ""},
		{"silent wins", []string{"-v", "-s"}, func(c *Config) bool { return c.Output == "silent" }, "-s overrides"},
		{"too many ints", []string{"5", "9"}, func(c *Config) bool { return c.Agents == 5 }, "too many int arguments"},
		{"not an int", []string{"foo"}, func(c *Config) bool { return c.Agents == DefaultAgents }, "couldn't parse 'foo'"},
		{"zero agents", []string{"0"}, func(c *Config) bool { return c.Agents == DefaultAgents }, "'0' is not a valid number of agents"},
		{"debug", []string{"-d"}, func(c *Config) bool { return c.Debug }, ""},
		{"report", []string{"-report", "YML"}, func(c *Config) bool { return c.Report == "yaml" }, ""},
		{"limits", []string{"-workers", "4", "-max-visits", "1000"}, func(c *Config) bool { return c.Workers == 4 && c.MaxVisits == 1000 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			setDefaults(cfg)
			if err := parseFlags(cfg, newFlagSet(), tt.args, nil); err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("unexpected config for %v: %+v", tt.args, cfg)
			}
			if tt.warning == "" && len(cfg.Warnings) > 0 {
				t.Errorf("unexpected warnings: %v", cfg.Warnings)
			}
			if tt.warning != "" && !hasWarning(cfg, tt.warning) {
				t.Errorf("warnings %v do not mention %q", cfg.Warnings, tt.warning)
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	if err := parseFlags(cfg, newFlagSet(), []string{"-h"}, nil); err != flag.ErrHelp {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SWITCHROOM_AGENTS", "9")
	t.Setenv("SWITCHROOM_WARDEN", "fast")
	t.Setenv("SWITCHROOM_SEED", "nope")
	t.Setenv("SWITCHROOM_DEBUG", "yes")

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	loadFromEnv(cfg, sources)

	if cfg.Agents != 9 {
		t.Errorf("Agents: got %d, want 9", cfg.Agents)
	}
	if cfg.Warden != "fast" {
		t.Errorf("Warden: got %q, want fast", cfg.Warden)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
	if cfg.SeedFromUser {
		t.Error("invalid seed should be ignored")
	}
	if !hasWarning(cfg, "SWITCHROOM_SEED: 'nope' isn't a valid seed value") {
		t.Errorf("missing seed warning: %v", cfg.Warnings)
	}
	if sources["agents"] != SourceEnv || sources["warden"] != SourceEnv {
		t.Errorf("sources not tracked: %v", sources)
	}
	if _, ok := sources["seed"]; ok {
		t.Error("ignored seed should not be tracked")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "switchroom.toml")
	writeFile(t, path, `
agents = 5
warden = "fixed"
seed = 42
workers = -1
log_level = "loud"
bogus = 1
`)

	cfg := &Config{}
	setDefaults(cfg)
	sources := map[string]ConfigSource{}
	if err := loadConfigFile(cfg, path, sources, SourceProjFile); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}

	if cfg.Agents != 5 {
		t.Errorf("Agents: got %d, want 5", cfg.Agents)
	}
	if cfg.Warden != "fixed-permutation" {
		t.Errorf("Warden: got %q, want fixed-permutation", cfg.Warden)
	}
	if cfg.Seed != 42 || !cfg.SeedFromUser {
		t.Errorf("Seed: got %d (from user %v), want 42", cfg.Seed, cfg.SeedFromUser)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers: got %d, want 0 (invalid value ignored)", cfg.Workers)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel: got %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	for _, want := range []string{"switchroom.toml: workers", "switchroom.toml: log_level", "unknown key 'bogus'"} {
		if !hasWarning(cfg, want) {
			t.Errorf("warnings %v do not mention %q", cfg.Warnings, want)
		}
	}
	if sources["agents"] != SourceProjFile || sources["seed"] != SourceProjFile {
		t.Errorf("sources not tracked: %v", sources)
	}
	if _, ok := sources["workers"]; ok {
		t.Error("rejected key should not be tracked")
	}
}

func TestLoadConfigFileSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchroom.toml")
	writeFile(t, path, "agents = [")

	cfg := &Config{}
	setDefaults(cfg)
	if err := loadConfigFile(cfg, path, nil, SourceProjFile); err == nil {
		t.Error("expected a TOML syntax error")
	}
}

func TestExampleConfigIsClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switchroom.toml")
	writeFile(t, path, ExampleConfig())

	cfg := &Config{}
	setDefaults(cfg)
	if err := loadConfigFile(cfg, path, nil, SourceProjFile); err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if len(cfg.Warnings) > 0 {
		t.Errorf("example config produced warnings: %v", cfg.Warnings)
	}
	if cfg.Warden != "concurrent" {
		t.Errorf("Warden: got %q, want concurrent", cfg.Warden)
	}
}

func TestLoadWithSourcesPrecedence(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".switchroom", configFileName), "agents = 3\nstrategy = \"improper\"\n")
	writeFile(t, filepath.Join(dir, configFileName), "agents = 4\nwarden = \"seq\"\nseed = 7\n")
	t.Setenv("SWITCHROOM_WARDEN", "fast")

	cws, err := LoadWithSources(newFlagSet(), []string{"-w", "pseudo", "6"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	checks := []struct {
		field  string
		value  string
		source ConfigSource
	}{
		{"agents", "6", SourceFlag},
		{"strategy", "improper", SourceUserFile},
		{"warden", "pseudo-random", SourceFlag},
		{"seed", "7", SourceProjFile},
		{"output", "full", SourceDefault},
	}
	for _, c := range checks {
		if got := cfg.Value(c.field); got != c.value {
			t.Errorf("%s: got %q, want %q", c.field, got, c.value)
		}
		if got := cws.Sources[c.field]; got != c.source {
			t.Errorf("%s source: got %q, want %q", c.field, got, c.source)
		}
	}
	if len(cws.Files) != 2 {
		t.Fatalf("Files: got %v, want user and project files", cws.Files)
	}
	if got := cws.GetConfigFile(); got != configFileName {
		t.Errorf("GetConfigFile: got %q, want %q", got, configFileName)
	}
}

func TestLoadSeedFromEntropy(t *testing.T) {
	isolate(t)

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	if cws.Config.SeedFromUser {
		t.Error("SeedFromUser should be false without a seed")
	}
	if cws.Sources["seed"] != SourceEntropy {
		t.Errorf("seed source: got %q, want %q", cws.Sources["seed"], SourceEntropy)
	}
}

func TestLoad(t *testing.T) {
	isolate(t)

	cfg, err := Load(newFlagSet(), []string{"-seed", "99", "-log-dir", "~/runs"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 99 {
		t.Errorf("Seed: got %d, want 99", cfg.Seed)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "runs"); cfg.LogDir != want {
		t.Errorf("LogDir: got %q, want %q", cfg.LogDir, want)
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SWITCHROOM_TEST_DIR", "/var/tmp")

	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"~", home},
		{"~/logs", filepath.Join(home, "logs")},
		{"$SWITCHROOM_TEST_DIR/runs", "/var/tmp/runs"},
		{"relative/path", "relative/path"},
		{"~user/logs", "~user/logs"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := expandPath(tt.input); got != tt.want {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBoolFromString(t *testing.T) {
	tests := []struct {
		input  string
		want   bool
		wantOK bool
	}{
		{"1", true, true},
		{"TRUE", true, true},
		{"yes", true, true},
		{"on", true, true},
		{"0", false, true},
		{"false", false, true},
		{"off", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := boolFromString(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("boolFromString(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestGetters(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)
	cfg.InitialState = "set"
	cfg.Warden = "seq"
	cfg.Strategy = "improper"
	cfg.Seed = 5
	cfg.Agents = 8
	cfg.Output = "silent"

	opts := cfg.ChallengeOptions()
	if opts.Agents != 8 || opts.Seed != 5 {
		t.Errorf("ChallengeOptions: %+v", opts)
	}
	if opts.InitialState != room.Set {
		t.Errorf("InitialState: got %v, want set", opts.InitialState)
	}
	if opts.Warden != warden.Sequential {
		t.Errorf("Warden: got %v, want sequential", opts.Warden)
	}
	if opts.Strategy != agent.Improper {
		t.Errorf("Strategy: got %v, want improper", opts.Strategy)
	}

	console := cfg.ConsoleOptions()
	if console.Verbosity != events.VerbositySilent {
		t.Errorf("Verbosity: got %v, want silent", console.Verbosity)
	}
	if console.Level != log.InfoLevel {
		t.Errorf("Level: got %v, want info", console.Level)
	}
	cfg.Debug = true
	if got := cfg.ConsoleOptions().Level; got != log.DebugLevel {
		t.Errorf("debug Level: got %v, want debug", got)
	}

	cfg.InitialState = "bogus"
	if got := cfg.InitialStateValue(); got != room.Unknown {
		t.Errorf("InitialStateValue fallback: got %v", got)
	}
}

func TestValidateRaw(t *testing.T) {
	var raw map[string]any
	if _, err := toml.Decode("agents = 0\nseed = 42\nlog_level = \"loud\"\nwarden = \"seq\"\n", &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}

	violations, err := validateRaw(raw)
	if err != nil {
		t.Fatalf("validateRaw: %v", err)
	}
	var keys []string
	for _, v := range violations {
		keys = append(keys, v.Key)
		if v.Message == "" {
			t.Errorf("violation for %q has no message", v.Key)
		}
	}
	if want := []string{"agents", "log_level"}; strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("violations: got %v, want %v", keys, want)
	}

	clean, err := validateRaw(map[string]any{"agents": int64(3), "seed": int64(4294967295)})
	if err != nil {
		t.Fatalf("validateRaw: %v", err)
	}
	if len(clean) != 0 {
		t.Errorf("unexpected violations: %v", clean)
	}
}

func TestTopLevelKey(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"#":          "",
		"/agents":    "agents",
		"#/agents/0": "agents",
		"/a~1b/c":    "a/b",
		"/x~0y":      "x~y",
	}
	for in, want := range tests {
		if got := topLevelKey(in); got != want {
			t.Errorf("topLevelKey(%q) = %q, want %q", in, got, want)
		}
	}
}
