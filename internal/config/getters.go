package config

import (
	"github.com/nibzard/switchroom/internal/agent"
	"github.com/nibzard/switchroom/internal/challenge"
	"github.com/nibzard/switchroom/internal/events"
	"github.com/nibzard/switchroom/internal/room"
	"github.com/nibzard/switchroom/internal/utils"
	"github.com/nibzard/switchroom/internal/warden"

	"github.com/charmbracelet/log"
)

// InitialStateValue returns the configured initial switch state.
// Unknown means the challenge flips a coin.
func (c *Config) InitialStateValue() room.State {
	norm, _ := utils.NormalizeInitialState(c.InitialState)
	switch norm {
	case "set":
		return room.Set
	case "reset":
		return room.Reset
	default:
		return room.Unknown
	}
}

// WardenMode returns the configured warden mode, falling back to the default.
func (c *Config) WardenMode() warden.Mode {
	if norm, ok := utils.NormalizeWarden(c.Warden); ok {
		return warden.Mode(norm)
	}
	return warden.Mode(DefaultWarden)
}

// StrategyValue returns the configured strategy, falling back to proper.
func (c *Config) StrategyValue() agent.Strategy {
	if norm, ok := utils.NormalizeStrategy(c.Strategy); ok {
		return agent.Strategy(norm)
	}
	return agent.Proper
}

// Verbosity returns the configured console verbosity.
func (c *Config) Verbosity() events.Verbosity {
	if norm, ok := utils.NormalizeOutput(c.Output); ok {
		return events.Verbosity(norm)
	}
	return events.VerbosityFull
}

// ConsoleOptions returns console writer options. Debug mode lowers the
// level so that skipped visits and debug events are shown.
func (c *Config) ConsoleOptions() events.ConsoleOptions {
	opts := events.DefaultConsoleOptions()
	opts.Verbosity = c.Verbosity()
	opts.Level = events.ParseLevel(c.LogLevel)
	opts.Formatter = events.ParseFormatter(c.LogFormat)
	opts.ReportTimestamp = c.LogTimestamps
	opts.ReportCaller = c.LogCaller
	if c.Debug {
		opts.Level = log.DebugLevel
	}
	return opts
}

// ChallengeOptions returns the options for a challenge run.
func (c *Config) ChallengeOptions() challenge.Options {
	return challenge.Options{
		Agents:       c.Agents,
		InitialState: c.InitialStateValue(),
		Warden:       c.WardenMode(),
		Strategy:     c.StrategyValue(),
		Seed:         c.Seed,
		Workers:      c.Workers,
		MaxVisits:    c.MaxVisits,
	}
}
