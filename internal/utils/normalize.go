// Package utils normalizes the aliases accepted for configuration values.
package utils

import (
	"strings"
)

func normalizeKey(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// NormalizeInitialState normalizes an initial switch state.
// Accepts the following aliases:
// - "on", "1", "up", "set" -> "set"
// - "off", "0", "down", "reset" -> "reset"
// - "unknown", "random", "" -> "unknown"
// Returns the normalized value and a boolean indicating if the input was valid.
func NormalizeInitialState(input string) (string, bool) {
	switch normalizeKey(input) {
	case "on", "1", "up", "set":
		return "set", true
	case "off", "0", "down", "reset":
		return "reset", true
	case "unknown", "random", "":
		return "unknown", true
	default:
		return "", false
	}
}

// NormalizeWarden normalizes a warden type.
// - "os", "concurrent", "threads" -> "concurrent"
// - "pseudo", "pseudorand", "pseudorandom", "pseudo-random", "rand", "random" -> "pseudo-random"
// - "fixed", "permutation", "fixed-permutation" -> "fixed-permutation"
// - "seq", "sequential" -> "sequential"
// - "fast" -> "fast"
func NormalizeWarden(input string) (string, bool) {
	switch strings.ReplaceAll(normalizeKey(input), "_", "-") {
	case "os", "concurrent", "threads":
		return "concurrent", true
	case "pseudo", "pseudorand", "pseudorandom", "pseudo-random", "rand", "random":
		return "pseudo-random", true
	case "fixed", "permutation", "fixed-permutation":
		return "fixed-permutation", true
	case "seq", "sequential":
		return "sequential", true
	case "fast":
		return "fast", true
	default:
		return "", false
	}
}

// NormalizeStrategy normalizes a strategy name ("p"/"proper", "i"/"improper").
func NormalizeStrategy(input string) (string, bool) {
	switch normalizeKey(input) {
	case "p", "proper":
		return "proper", true
	case "i", "improper":
		return "improper", true
	default:
		return "", false
	}
}

// NormalizeOutput normalizes a console verbosity.
// - "full", "verbose", "normal", "v" -> "full"
// - "entries", "halfway", "h" -> "entries"
// - "silent", "quiet", "s" -> "silent"
func NormalizeOutput(input string) (string, bool) {
	switch normalizeKey(input) {
	case "full", "verbose", "normal", "v":
		return "full", true
	case "entries", "halfway", "h":
		return "entries", true
	case "silent", "quiet", "s":
		return "silent", true
	default:
		return "", false
	}
}

// NormalizeReportFormat normalizes a report format. The empty string means
// no report and is valid.
func NormalizeReportFormat(input string) (string, bool) {
	switch normalizeKey(input) {
	case "":
		return "", true
	case "json":
		return "json", true
	case "yaml", "yml":
		return "yaml", true
	case "toml":
		return "toml", true
	default:
		return "", false
	}
}
