// Package cmd implements the CLI command structure for switchroom.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/nibzard/switchroom/internal/challenge"
	"github.com/nibzard/switchroom/internal/config"
	"github.com/nibzard/switchroom/internal/events"
	"github.com/nibzard/switchroom/internal/logging"
	"github.com/nibzard/switchroom/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

var commands = map[string]bool{
	"run":     true,
	"tui":     true,
	"config":  true,
	"tail":    true,
	"ls":      true,
	"version": true,
	"help":    true,
}

// Run executes the switchroom CLI.
func Run(ctx context.Context, args []string) error {
	return Execute(ctx, args, os.Stdout, os.Stderr)
}

// Execute runs the CLI with explicit output streams.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// If no args or the first arg is not a command, use "run" as default.
	// Positional agent counts are handled by the config layer.
	subcommand := "run"
	if len(args) > 0 && commands[args[0]] {
		subcommand = args[0]
		args = args[1:]
	}

	switch subcommand {
	case "run":
		return runCommand(ctx, args, stdout, stderr, false)
	case "tui":
		return runCommand(ctx, args, stdout, stderr, true)
	case "config":
		return configCommand(args, stdout, stderr)
	case "tail":
		return tailCommand(ctx, args, stdout, stderr)
	case "ls":
		return lsCommand(args, stdout, stderr)
	case "version":
		return versionCommand(stdout)
	default:
		return runCommand(ctx, []string{"-h"}, stdout, stderr, false)
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

// loadConfig loads configuration with sources and prints notes. It returns
// flag.ErrHelp unchanged so callers can show usage.
func loadConfig(fs *flag.FlagSet, args []string, stderr io.Writer) (*config.ConfigWithSources, error) {
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, flag.ErrHelp
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	for _, w := range cws.Config.Warnings {
		fmt.Fprintf(stderr, "NOTE: %s\n", w)
	}
	return cws, nil
}

// runCommand runs one challenge on the console or in the live view.
func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer, live bool) error {
	name := "switchroom run"
	if live {
		name = "switchroom tui"
	}
	fs := newFlagSet(name, stderr)
	fs.Usage = func() {}
	cws, err := loadConfig(fs, args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(fs, stdout)
		return nil
	}
	if err != nil {
		return err
	}
	cfg := cws.Config

	// A requested report owns stdout; everything else goes to stderr.
	human := stdout
	if cfg.Report != "" {
		human = stderr
	}

	console := events.NewConsoleWriterTo(human, cfg.ConsoleOptions())
	if cfg.Debug {
		printDebug(console, cws)
	}

	runID := uuid.NewString()
	var runLog *logging.RunLogger
	if cfg.LogDir != "" {
		runLog, err = logging.NewRunLogger(cfg.LogDir, runID)
		if err != nil {
			return fmt.Errorf("creating run log: %w", err)
		}
		defer runLog.Close()
	}

	run := func(ctx context.Context, w events.Writer) (*challenge.Result, error) {
		writers := []events.Writer{w}
		if runLog != nil {
			writers = append(writers, events.NewIOStreamWriter(runLog.Writer()))
		}
		c, err := challenge.New(cfg.ChallengeOptions(),
			challenge.WithRunID(runID),
			challenge.WithLogWriter(events.NewMultiWriter(writers...)),
		)
		if err != nil {
			return nil, err
		}
		return c.Run(ctx)
	}

	var result *challenge.Result
	if live {
		result, err = ui.RunTUI(ctx, cfg, run)
		if result != nil && err == nil {
			fmt.Fprintln(human, result.Verdict())
		}
	} else {
		result, err = run(ctx, console)
	}

	if result != nil && result.LogError != "" {
		fmt.Fprintf(stderr, "NOTE: event log: %s\n", result.LogError)
	}
	if result != nil && runLog != nil {
		if werr := runLog.WriteResult(func(w io.Writer) error {
			return result.Encode(w, challenge.FormatJSON)
		}); werr != nil {
			fmt.Fprintf(stderr, "NOTE: %v\n", werr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(human, "The challenge ended in %.3f seconds.\n", result.Elapsed.Seconds())
	fmt.Fprintln(human, result.Fate())
	if cfg.Debug {
		fmt.Fprintf(human, "==%d== The seed was: %d\n", os.Getpid(), cfg.Seed)
	}

	if cfg.Report != "" {
		if err := result.Encode(stdout, cfg.Report); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}

// printDebug dumps the resolved options through the console at debug level.
func printDebug(console *events.ConsoleWriter, cws *config.ConfigWithSources) {
	for _, field := range config.ConfigFields() {
		_ = console.Write(events.Event{
			Kind:      events.KindDebug,
			Timestamp: time.Now().UTC(),
			Message:   fmt.Sprintf("%s = %s (%s)", field, cws.Config.Value(field), cws.Sources[field]),
		})
	}
}

// configCommand prints the resolved configuration with sources.
func configCommand(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("switchroom config", stderr)
	fs.Usage = func() {}
	example := fs.Bool("example", false, "Print an example config file")
	schema := fs.Bool("schema", false, "Print the config file JSON Schema")

	cws, err := loadConfig(fs, args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(fs, stdout)
		return nil
	}
	if err != nil {
		return err
	}

	switch {
	case *example:
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	case *schema:
		fmt.Fprintln(stdout, config.SchemaJSON())
		return nil
	}

	if file := cws.GetConfigFile(); file != "" {
		fmt.Fprintf(stdout, "Config file: %s\n\n", file)
	} else {
		fmt.Fprintln(stdout, "Config file: (none)")
		fmt.Fprintln(stdout)
	}
	for _, field := range config.ConfigFields() {
		fmt.Fprintf(stdout, "  %-15s %-20s (%s)\n", field, cws.Config.Value(field), cws.Sources[field])
	}
	return nil
}

// tailCommand tails the latest run log.
func tailCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("switchroom tail", stderr)
	fs.Usage = func() {}
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")

	cws, err := loadConfig(fs, args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(fs, stdout)
		return nil
	}
	if err != nil {
		return err
	}
	logDir := cws.Config.LogDir
	if logDir == "" {
		return errors.New("no log directory configured (set log_dir or -log-dir)")
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}

	fmt.Fprintf(stdout, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// lsCommand lists recorded runs, newest first.
func lsCommand(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("switchroom ls", stderr)
	fs.Usage = func() {}
	cws, err := loadConfig(fs, args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		printUsage(fs, stdout)
		return nil
	}
	if err != nil {
		return err
	}
	logDir := cws.Config.LogDir
	if logDir == "" {
		return errors.New("no log directory configured (set log_dir or -log-dir)")
	}

	runs, err := logging.FindLogRuns(logDir)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs found.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(stdout, "%s  %s  %s\n", run.ModTime.Format(time.DateTime), run.RunID, summarizeRun(run))
	}
	return nil
}

// summarizeRun describes a run from its result file.
func summarizeRun(run logging.LogRun) string {
	if run.ResultPath == "" {
		return "(no result)"
	}
	data, err := os.ReadFile(run.ResultPath)
	if err != nil {
		return "(unreadable result)"
	}
	var res challenge.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return "(invalid result)"
	}
	outcome := "doomed"
	if res.Success {
		outcome = "free"
	}
	return fmt.Sprintf("agents=%d warden=%s strategy=%s visits=%d outcome=%s",
		res.Agents, res.Warden, res.Strategy, res.Visits, outcome)
}

func versionCommand(stdout io.Writer) error {
	fmt.Fprintf(stdout, "switchroom version %s\n", Version)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "switchroom - N agents, one switch room")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  switchroom [command] [options] [agents]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run           Run the challenge (default command)")
	fmt.Fprintln(w, "  tui           Run the challenge in a live terminal view")
	fmt.Fprintln(w, "  config        Show the resolved configuration (-example, -schema)")
	fmt.Fprintln(w, "  tail          Tail the latest run log (-f, -n)")
	fmt.Fprintln(w, "  ls            List recorded runs")
	fmt.Fprintln(w, "  version       Show version information")
	fmt.Fprintln(w, "  help          Show this help message")
	fmt.Fprintln(w)
	if fs.Lookup("seed") != nil {
		fmt.Fprintln(w, "Options:")
		out := fs.Output()
		fs.SetOutput(w)
		fs.PrintDefaults()
		fs.SetOutput(out)
	}
}
