package events

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Verbosity selects how much of the event stream reaches the console.
type Verbosity string

const (
	// VerbosityFull shows entries, decisions and running counts.
	VerbosityFull Verbosity = "full"
	// VerbosityEntries shows who enters, but not what they decide.
	VerbosityEntries Verbosity = "entries"
	// VerbositySilent shows only the outcome.
	VerbositySilent Verbosity = "silent"
)

// ConsoleOptions holds configuration for console output.
type ConsoleOptions struct {
	Verbosity       Verbosity
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	ReportCaller    bool
	Prefix          string
}

// DefaultConsoleOptions returns default options for console output.
func DefaultConsoleOptions() ConsoleOptions {
	return ConsoleOptions{
		Verbosity:       VerbosityFull,
		Level:           log.InfoLevel,
		Formatter:       log.TextFormatter,
		ReportTimestamp: false,
		ReportCaller:    false,
	}
}

// ConsoleWriter renders events with charmbracelet/log.
type ConsoleWriter struct {
	logger    *log.Logger
	verbosity Verbosity
}

// NewConsoleWriterTo creates a console writer on w.
func NewConsoleWriterTo(w io.Writer, opts ConsoleOptions) *ConsoleWriter {
	logger := log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		ReportCaller:    opts.ReportCaller,
		Prefix:          opts.Prefix,
	})
	return &ConsoleWriter{logger: logger, verbosity: opts.Verbosity}
}

// Write renders the event if the verbosity allows it.
func (c *ConsoleWriter) Write(event Event) error {
	if !c.verbosity.Shows(event.Kind) {
		return nil
	}
	msg := formatMessage(event)
	fields := c.extractFields(event)

	switch event.Kind {
	case KindSkipped, KindDebug:
		c.logger.Debug(msg, fields...)
	case KindDeclared:
		c.logger.Warn(msg, fields...)
	default:
		c.logger.Info(msg, fields...)
	}
	return nil
}

// Shows reports whether events of kind k are rendered at this verbosity.
func (v Verbosity) Shows(k Kind) bool {
	switch v {
	case VerbositySilent:
		return k == KindFinished
	case VerbosityEntries:
		switch k {
		case KindStart, KindEntered, KindDeclared, KindFinished, KindDebug:
			return true
		}
		return false
	default:
		return true
	}
}

func (c *ConsoleWriter) extractFields(event Event) []any {
	var fields []any
	switch event.Kind {
	case KindEntered:
		if c.verbosity == VerbosityFull {
			fields = append(fields, "entered", event.Entered)
		}
	case KindAction:
		fields = append(fields, "switch", event.State)
		if event.Flips > 0 {
			fields = append(fields, "flips", event.Flips)
		}
	case KindFinished:
		fields = append(fields, "visits", event.Visit, "elapsed", event.Elapsed)
	case KindDebug:
		fields = append(fields, "pid", os.Getpid())
	}
	return fields
}

func formatMessage(event Event) string {
	if event.Message != "" && event.Kind != KindAction {
		return event.Message
	}
	switch event.Kind {
	case KindStart:
		return "The challenge is commencing now!"
	case KindEntered:
		return fmt.Sprintf("%s enters the switch room", event.Label)
	case KindAction:
		return fmt.Sprintf("%s %s", event.Label, event.Action)
	case KindSkipped:
		return fmt.Sprintf("%s got the gate after the challenge ended", event.Label)
	case KindDeclared:
		return fmt.Sprintf("%s declares that the challenge is complete!", event.Label)
	case KindFinished:
		if event.Success != nil && *event.Success {
			return "The claim was correct."
		}
		return "But the claim was wrong...."
	default:
		return string(event.Kind)
	}
}

// ParseLevel parses a log level name, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter parses a formatter name, defaulting to text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
