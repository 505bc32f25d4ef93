package challenge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/switchroom/internal/agent"
)

// ErrUnknownFormat is returned by Encode for an unsupported report format.
var ErrUnknownFormat = errors.New("unknown report format")

// Report formats accepted by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Result is the outcome of a run.
type Result struct {
	RunID          string        `json:"run_id" yaml:"run_id" toml:"run_id"`
	Success        bool          `json:"success" yaml:"success" toml:"success"`
	Declared       bool          `json:"declared" yaml:"declared" toml:"declared"`
	DeclaredBy     int           `json:"declared_by,omitempty" yaml:"declared_by,omitempty" toml:"declared_by,omitempty"`
	DeclaredRole   string        `json:"declared_role,omitempty" yaml:"declared_role,omitempty" toml:"declared_role,omitempty"`
	Agents         int           `json:"agents" yaml:"agents" toml:"agents"`
	Warden         string        `json:"warden" yaml:"warden" toml:"warden"`
	Strategy       string        `json:"strategy" yaml:"strategy" toml:"strategy"`
	Seed           uint32        `json:"seed" yaml:"seed" toml:"seed"`
	InitialState   string        `json:"initial_state" yaml:"initial_state" toml:"initial_state"`
	FinalState     string        `json:"final_state" yaml:"final_state" toml:"final_state"`
	Visits         int64         `json:"visits" yaml:"visits" toml:"visits"`
	Flips          int64         `json:"flips" yaml:"flips" toml:"flips"`
	ResetterTarget int64         `json:"resetter_target" yaml:"resetter_target" toml:"resetter_target"`
	ElapsedSeconds float64       `json:"elapsed_seconds" yaml:"elapsed_seconds" toml:"elapsed_seconds"`
	Missing        []int         `json:"missing,omitempty" yaml:"missing,omitempty" toml:"missing,omitempty"`
	LogError       string        `json:"log_error,omitempty" yaml:"log_error,omitempty" toml:"log_error,omitempty"`
	AgentStats     []AgentStat   `json:"agent_stats,omitempty" yaml:"agent_stats,omitempty" toml:"agent_stats,omitempty"`
	Elapsed        time.Duration `json:"-" yaml:"-" toml:"-"`
}

// AgentStat is the per-agent line of a report.
type AgentStat struct {
	ID      int    `json:"id" yaml:"id" toml:"id"`
	Role    string `json:"role" yaml:"role" toml:"role"`
	Entered int64  `json:"entered" yaml:"entered" toml:"entered"`
	Flips   int64  `json:"flips" yaml:"flips" toml:"flips"`
}

func (c *Challenge) result(elapsed time.Duration) *Result {
	res := &Result{
		RunID:          c.runID,
		Declared:       c.signal.IsSet(),
		Agents:         len(c.roster),
		Warden:         string(c.warden.Mode()),
		Strategy:       string(c.opts.Strategy),
		Seed:           c.opts.Seed,
		InitialState:   c.initial.String(),
		FinalState:     c.room.Peek().String(),
		Visits:         c.room.Entered(),
		Flips:          c.room.Flips(),
		ResetterTarget: c.Resetter().Target(),
		ElapsedSeconds: elapsed.Seconds(),
		Missing:        c.Missing(),
		Elapsed:        elapsed,
	}
	res.Success = res.Declared && len(res.Missing) == 0
	if by := c.signal.DeclaredBy(); by > 0 {
		res.DeclaredBy = by
		res.DeclaredRole = c.roster[by-1].Role().String()
	}
	res.AgentStats = make([]AgentStat, 0, len(c.roster))
	for _, a := range c.roster {
		res.AgentStats = append(res.AgentStats, AgentStat{
			ID:      a.ID(),
			Role:    a.Role().String(),
			Entered: a.Entered(),
			Flips:   a.Flips(),
		})
	}
	return res
}

// Verdict returns the line announcing whether the claim held.
func (r *Result) Verdict() string {
	if r.Success {
		return "The claim was correct."
	}
	return "But the claim was wrong...."
}

// Fate returns the closing line of a run.
func (r *Result) Fate() string {
	if r.Success {
		return "Every agent goes free!"
	}
	return "The agents are doomed!"
}

// Setters returns the per-agent stats of the Setters only.
func (r *Result) Setters() []AgentStat {
	var out []AgentStat
	for _, s := range r.AgentStats {
		if s.Role == agent.Setter.String() {
			out = append(out, s)
		}
	}
	return out
}

// Encode writes the result to w in the given format.
func (r *Result) Encode(w io.Writer, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(r); err != nil {
			return fmt.Errorf("encode toml report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
