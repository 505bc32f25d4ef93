package config

import (
	"os"
)

// envPrefix prefixes every environment variable the config reads.
const envPrefix = "SWITCHROOM_"

// loadFromEnv overrides config from SWITCHROOM_* environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	lookup := func(name string) (string, applier, bool) {
		v := os.Getenv(envPrefix + name)
		return v, applier{cfg: cfg, sources: sources, source: SourceEnv, origin: envPrefix + name}, v != ""
	}

	if v, a, ok := lookup("AGENTS"); ok {
		a.agentsString(v)
	}
	if v, a, ok := lookup("INITIAL_STATE"); ok {
		a.initialState(v)
	}
	if v, a, ok := lookup("WARDEN"); ok {
		a.warden(v)
	}
	if v, a, ok := lookup("STRATEGY"); ok {
		a.strategy(v)
	}
	if v, a, ok := lookup("SEED"); ok {
		a.seedString(v)
	}
	if v, a, ok := lookup("WORKERS"); ok {
		a.workersString(v)
	}
	if v, a, ok := lookup("MAX_VISITS"); ok {
		a.maxVisitsString(v)
	}
	if v, a, ok := lookup("OUTPUT"); ok {
		a.output(v)
	}
	if v, a, ok := lookup("DEBUG"); ok {
		a.booleanString("debug", v)
	}
	if v, a, ok := lookup("REPORT"); ok {
		a.report(v)
	}

	// Logging configuration
	if v, a, ok := lookup("LOG_LEVEL"); ok {
		a.logLevel(v)
	}
	if v, a, ok := lookup("LOG_FORMAT"); ok {
		a.logFormat(v)
	}
	if v, a, ok := lookup("LOG_TIMESTAMPS"); ok {
		a.booleanString("log_timestamps", v)
	}
	if v, a, ok := lookup("LOG_CALLER"); ok {
		a.booleanString("log_caller", v)
	}
	if v, a, ok := lookup("LOG_DIR"); ok {
		a.logDir(v)
	}
}
