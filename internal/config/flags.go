package config

import (
	"flag"
	"strconv"
)

// flagSpec binds one config field to a flag name and its aliases.
type flagSpec struct {
	field   string
	names   []string
	usage   string
	target  *string
	isBool  bool
	boolean *bool
}

// parseFlags defines and parses CLI flags. Positional arguments may be
// interleaved with flags; the first integer is the agent count.
// If sources is non-nil, it tracks the source of each value.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet(appName, flag.ContinueOnError)
	}
	a := applier{cfg: cfg, sources: sources, source: SourceFlag}

	var (
		agents, initial, wardenName, strategy, seed string
		workers, maxVisits, output, report, logDir  string
		logLevel, logFormat                         string
		verbose, halfway, silent                    bool
		debug, logTimestamps, logCaller             bool
	)

	specs := []flagSpec{
		{field: "agents", names: []string{"agents"}, usage: "Number of agents (at least 2)", target: &agents},
		{field: "initial_state", names: []string{"initial-state", "initial_state", "initial", "init", "i"}, usage: "Initial switch state (on, off, unknown)", target: &initial},
		{field: "warden", names: []string{"warden", "ward", "w"}, usage: "Warden type (os, pseudo, fixed, seq, fast)", target: &wardenName},
		{field: "strategy", names: []string{"strategy", "strat", "st"}, usage: "Strategy (proper, improper)", target: &strategy},
		{field: "seed", names: []string{"seed", "se"}, usage: "Seed for every random draw", target: &seed},
		{field: "workers", names: []string{"workers"}, usage: "Concurrent visits in concurrent mode (0 = GOMAXPROCS)", target: &workers},
		{field: "max_visits", names: []string{"max-visits"}, usage: "Abort after this many visits (0 = unlimited)", target: &maxVisits},
		{field: "output", names: []string{"output"}, usage: "Console output (full, entries, silent)", target: &output},
		{field: "report", names: []string{"report"}, usage: "Print a result report (json, yaml, toml)", target: &report},
		{field: "log_level", names: []string{"log-level"}, usage: "Log level (debug, info, warn, error)", target: &logLevel},
		{field: "log_format", names: []string{"log-format"}, usage: "Log format (text, json, logfmt)", target: &logFormat},
		{field: "log_dir", names: []string{"log-dir"}, usage: "Write a JSONL event log per run to this directory", target: &logDir},
		{field: "debug", names: []string{"d", "debug"}, usage: "Print the pid and seed", isBool: true, boolean: &debug},
		{field: "log_timestamps", names: []string{"log-timestamps"}, usage: "Show timestamps in logs", isBool: true, boolean: &logTimestamps},
		{field: "log_caller", names: []string{"log-caller"}, usage: "Show caller location in logs", isBool: true, boolean: &logCaller},
	}

	nameToField := make(map[string]string)
	for _, spec := range specs {
		for i, name := range spec.names {
			usage := spec.usage
			if i > 0 {
				usage = "alias for -" + spec.names[0]
			}
			if spec.isBool {
				fs.BoolVar(spec.boolean, name, false, usage)
			} else {
				fs.StringVar(spec.target, name, "", usage)
			}
			nameToField[name] = spec.field
		}
	}

	fs.BoolVar(&verbose, "v", false, "Full output: entries, decisions and counts")
	fs.BoolVar(&halfway, "halfway", false, "Show entries only")
	fs.BoolVar(&silent, "s", false, "Show only the outcome")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		if field, ok := nameToField[f.Name]; ok {
			set[field] = true
		}
		set[f.Name] = true
	})

	if set["agents"] {
		a.agentsString(agents)
	}
	if set["initial_state"] {
		a.initialState(initial)
	}
	if set["warden"] {
		a.warden(wardenName)
	}
	if set["strategy"] {
		a.strategy(strategy)
	}
	if set["seed"] {
		a.seedString(seed)
	}
	if set["workers"] {
		a.workersString(workers)
	}
	if set["max_visits"] {
		a.maxVisitsString(maxVisits)
	}
	if set["output"] {
		a.output(output)
	}
	if set["report"] {
		a.report(report)
	}
	if set["log_level"] {
		a.logLevel(logLevel)
	}
	if set["log_format"] {
		a.logFormat(logFormat)
	}
	if set["log_dir"] {
		a.logDir(logDir)
	}
	if set["debug"] {
		a.boolean("debug", debug)
	}
	if set["log_timestamps"] {
		a.boolean("log_timestamps", logTimestamps)
	}
	if set["log_caller"] {
		a.boolean("log_caller", logCaller)
	}

	// Verbosity shorthands win over -output; -s wins over the others.
	switch {
	case silent:
		if verbose || halfway {
			a.warnf("-s overrides -v and -halfway")
		}
		a.output("silent")
	case halfway:
		if verbose {
			a.warnf("-halfway overrides -v")
		}
		a.output("entries")
	case verbose:
		a.output("full")
	}

	applyPositional(a, positional)
	return nil
}

// applyPositional takes the first integer argument as the agent count.
func applyPositional(a applier, positional []string) {
	seenCount := false
	for _, arg := range positional {
		n, err := strconv.Atoi(arg)
		if err != nil {
			a.warnf("couldn't parse '%s'; ignored", arg)
			continue
		}
		if seenCount {
			a.warnf("too many int arguments; '%s' ignored", arg)
			continue
		}
		seenCount = true
		a.agents(n)
	}
}
