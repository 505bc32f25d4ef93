package config

import (
	"strconv"
	"strings"

	"github.com/nibzard/switchroom/internal/utils"
)

// applier writes raw values from one source into a Config. Values that do
// not parse are recorded as warnings and leave the field untouched.
type applier struct {
	cfg     *Config
	sources map[string]ConfigSource
	source  ConfigSource
	// origin prefixes warnings, e.g. a file name or variable name.
	origin string
}

func (a applier) mark(field string) {
	if a.sources != nil {
		a.sources[field] = a.source
	}
}

func (a applier) warnf(format string, args ...any) {
	if a.origin != "" {
		format = a.origin + ": " + format
	}
	a.cfg.warnf(format, args...)
}

func (a applier) agents(n int) {
	if n < 1 {
		a.warnf("'%d' is not a valid number of agents; ignored", n)
		return
	}
	a.cfg.Agents = n
	a.mark("agents")
}

func (a applier) agentsString(v string) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		a.warnf("couldn't parse '%s' as a number of agents; ignored", v)
		return
	}
	a.agents(n)
}

func (a applier) initialState(v string) {
	norm, ok := utils.NormalizeInitialState(v)
	if !ok {
		a.warnf("'%s' is not a valid initial switch state; ignored", v)
		return
	}
	a.cfg.InitialState = norm
	a.mark("initial_state")
}

func (a applier) warden(v string) {
	norm, ok := utils.NormalizeWarden(v)
	if !ok {
		a.warnf("'%s' is not a valid warden type; ignored", v)
		return
	}
	a.cfg.Warden = norm
	a.mark("warden")
}

func (a applier) strategy(v string) {
	norm, ok := utils.NormalizeStrategy(v)
	if !ok {
		a.warnf("'%s' is not a valid strategy specifier; ignored", v)
		return
	}
	a.cfg.Strategy = norm
	a.mark("strategy")
}

func (a applier) seed(v uint32) {
	a.cfg.Seed = v
	a.cfg.SeedFromUser = true
	a.mark("seed")
}

func (a applier) seedString(v string) {
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
	if err != nil {
		a.warnf("'%s' isn't a valid seed value; ignored", v)
		return
	}
	a.seed(uint32(n))
}

func (a applier) workers(n int) {
	if n < 0 {
		a.warnf("'%d' is not a valid worker count; ignored", n)
		return
	}
	a.cfg.Workers = n
	a.mark("workers")
}

func (a applier) workersString(v string) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		a.warnf("couldn't parse '%s' as a worker count; ignored", v)
		return
	}
	a.workers(n)
}

func (a applier) maxVisits(n int64) {
	if n < 0 {
		a.warnf("'%d' is not a valid visit limit; ignored", n)
		return
	}
	a.cfg.MaxVisits = n
	a.mark("max_visits")
}

func (a applier) maxVisitsString(v string) {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		a.warnf("couldn't parse '%s' as a visit limit; ignored", v)
		return
	}
	a.maxVisits(n)
}

func (a applier) output(v string) {
	norm, ok := utils.NormalizeOutput(v)
	if !ok {
		a.warnf("'%s' is not a valid output mode; ignored", v)
		return
	}
	a.cfg.Output = norm
	a.mark("output")
}

func (a applier) report(v string) {
	norm, ok := utils.NormalizeReportFormat(v)
	if !ok {
		a.warnf("'%s' is not a valid report format; ignored", v)
		return
	}
	a.cfg.Report = norm
	a.mark("report")
}

func (a applier) logLevel(v string) {
	switch l := strings.ToLower(strings.TrimSpace(v)); l {
	case "debug", "info", "warn", "warning", "error", "fatal":
		a.cfg.LogLevel = l
		a.mark("log_level")
	default:
		a.warnf("'%s' is not a valid log level; ignored", v)
	}
}

func (a applier) logFormat(v string) {
	switch f := strings.ToLower(strings.TrimSpace(v)); f {
	case "text", "json", "logfmt":
		a.cfg.LogFormat = f
		a.mark("log_format")
	default:
		a.warnf("'%s' is not a valid log format; ignored", v)
	}
}

func (a applier) logDir(v string) {
	a.cfg.LogDir = v
	a.mark("log_dir")
}

// boolean sets one of the boolean fields by its tracked name.
func (a applier) boolean(field string, v bool) {
	switch field {
	case "debug":
		a.cfg.Debug = v
	case "log_timestamps":
		a.cfg.LogTimestamps = v
	case "log_caller":
		a.cfg.LogCaller = v
	default:
		return
	}
	a.mark(field)
}

func (a applier) booleanString(field, v string) {
	b, ok := boolFromString(v)
	if !ok {
		a.warnf("'%s' is not a valid boolean; ignored", v)
		return
	}
	a.boolean(field, b)
}

func boolFromString(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "y":
		return true, true
	case "0", "false", "no", "off", "n":
		return false, true
	default:
		return false, false
	}
}
