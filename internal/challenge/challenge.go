// Package challenge owns a single run of the switch room puzzle: it builds
// the agents and the room, drives a warden until someone declares, then
// checks whether the declaration was right.
package challenge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nibzard/switchroom/internal/agent"
	"github.com/nibzard/switchroom/internal/events"
	"github.com/nibzard/switchroom/internal/rng"
	"github.com/nibzard/switchroom/internal/room"
	"github.com/nibzard/switchroom/internal/warden"
)

// DefaultAgents is the population used when none is configured.
const DefaultAgents = 100

var (
	// ErrNotInitialized is returned by Run on a Challenge not built by New.
	ErrNotInitialized = errors.New("challenge not initialized")
	// ErrTooFewAgents is returned when the population cannot hold one
	// Setter and the Resetter.
	ErrTooFewAgents = errors.New("need at least 2 agents")
	// ErrAlreadyRun is returned by a second call to Run.
	ErrAlreadyRun = errors.New("challenge already run")
	// ErrInvalidStrategy is returned for an unknown strategy.
	ErrInvalidStrategy = errors.New("invalid strategy")
)

// Options configure a challenge.
type Options struct {
	// Agents is the population size N, at least 2.
	Agents int
	// InitialState is the switch position at the start. Unknown is
	// resolved by a coin flip from the seeded source.
	InitialState room.State
	// Warden selects the scheduling discipline.
	Warden warden.Mode
	// Strategy selects who may declare.
	Strategy agent.Strategy
	// Seed seeds every random draw of the run.
	Seed uint32
	// Workers bounds concurrent visits in concurrent mode.
	Workers int
	// MaxVisits aborts the run after this many visits; zero is unlimited.
	MaxVisits int64
}

// DefaultOptions returns the defaults with a seed drawn from entropy.
func DefaultOptions() Options {
	return Options{
		Agents:       DefaultAgents,
		InitialState: room.Unknown,
		Warden:       warden.Concurrent,
		Strategy:     agent.Proper,
		Seed:         rng.Entropy(),
	}
}

// Option customizes a Challenge.
type Option func(*Challenge)

// WithLogWriter sends events to w. The writer is wrapped so that it is safe
// for concurrent visits; its first error is reported in Result.LogError.
func WithLogWriter(w events.Writer) Option {
	return func(c *Challenge) {
		c.log = events.Synchronized(w)
	}
}

// WithWarden replaces the warden built from Options.Warden.
func WithWarden(w warden.Warden) Option {
	return func(c *Challenge) {
		c.warden = w
	}
}

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) Option {
	return func(c *Challenge) {
		c.runID = id
	}
}

// Challenge is one run. It is not reusable.
type Challenge struct {
	opts    Options
	runID   string
	src     *rng.Source
	initial room.State
	room    *room.Room
	roster  []*agent.Agent
	signal  *agent.Signal
	warden  warden.Warden
	log     *events.SyncWriter
	ran     atomic.Bool
}

// New validates opts and builds the population, the room and the warden.
func New(opts Options, options ...Option) (*Challenge, error) {
	if opts.Agents < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewAgents, opts.Agents)
	}
	if opts.Strategy == "" {
		opts.Strategy = agent.Proper
	}
	if !opts.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStrategy, opts.Strategy)
	}
	if opts.Warden == "" {
		opts.Warden = warden.Concurrent
	}

	c := &Challenge{
		opts:   opts,
		src:    rng.New(opts.Seed),
		signal: agent.NewSignal(),
		log:    events.Synchronized(nil),
	}
	for _, o := range options {
		o(c)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}

	c.initial = opts.InitialState
	if !c.initial.Valid() {
		c.initial = room.Reset
		if c.src.Coin() {
			c.initial = room.Set
		}
	}
	r, err := room.New(c.initial)
	if err != nil {
		return nil, fmt.Errorf("create switch room: %w", err)
	}
	c.room = r

	c.roster = make([]*agent.Agent, 0, opts.Agents)
	for id := 1; id < opts.Agents; id++ {
		c.roster = append(c.roster, agent.NewSetter(id, opts.Agents))
	}
	c.roster = append(c.roster, agent.NewResetter(opts.Agents))

	if c.warden == nil {
		w, err := warden.New(opts.Warden, c.src, warden.Options{
			Workers:   opts.Workers,
			MaxVisits: opts.MaxVisits,
		})
		if err != nil {
			return nil, fmt.Errorf("create warden: %w", err)
		}
		c.warden = w
	}
	return c, nil
}

// Run drives the warden until an agent declares, then verifies the claim.
// The returned Result is non-nil whenever the warden ran, even on error.
func (c *Challenge) Run(ctx context.Context) (*Result, error) {
	if c == nil || c.room == nil || c.warden == nil {
		return nil, ErrNotInitialized
	}
	if c.ran.Swap(true) {
		return nil, ErrAlreadyRun
	}

	c.emit(events.Event{Kind: events.KindStart, Message: "The challenge is commencing now!"})

	env := &agent.Env{
		Room:     c.room,
		Signal:   c.signal,
		Strategy: c.opts.Strategy,
		Log:      c.log,
		RunID:    c.runID,
	}
	start := time.Now()
	err := c.warden.Run(ctx, c.roster, func(a *agent.Agent) agent.Outcome {
		return a.Visit(env)
	}, c.signal)
	elapsed := time.Since(start)

	result := c.result(elapsed)
	if err != nil {
		result.LogError = c.logError()
		return result, fmt.Errorf("%s warden: %w", c.warden.Mode(), err)
	}

	success := result.Success
	c.emit(events.Event{
		Kind:    events.KindFinished,
		Success: &success,
		Elapsed: elapsed,
		Visit:   result.Visits,
	})
	result.LogError = c.logError()
	return result, nil
}

func (c *Challenge) logError() string {
	if err := c.log.Err(); err != nil {
		return err.Error()
	}
	return ""
}

// Verify reports whether every agent entered the room at least once. It
// does not care who declared or why.
func (c *Challenge) Verify() bool {
	return len(c.Missing()) == 0
}

// Missing returns the ids of agents that never entered.
func (c *Challenge) Missing() []int {
	var missing []int
	for _, a := range c.roster {
		if a.Entered() == 0 {
			missing = append(missing, a.ID())
		}
	}
	return missing
}

// Roster returns the agents in id order; the Resetter is last.
func (c *Challenge) Roster() []*agent.Agent { return c.roster }

// Resetter returns the Resetter.
func (c *Challenge) Resetter() *agent.Agent { return c.roster[len(c.roster)-1] }

// Room returns the switch room.
func (c *Challenge) Room() *room.Room { return c.room }

// Signal returns the termination signal.
func (c *Challenge) Signal() *agent.Signal { return c.signal }

// RunID returns the run id.
func (c *Challenge) RunID() string { return c.runID }

// Seed returns the seed of the run.
func (c *Challenge) Seed() uint32 { return c.opts.Seed }

// InitialState returns the resolved starting switch position.
func (c *Challenge) InitialState() room.State { return c.initial }

// Options returns the options the challenge was built with.
func (c *Challenge) Options() Options { return c.opts }

// WardenMode returns the mode of the warden driving the run.
func (c *Challenge) WardenMode() warden.Mode { return c.warden.Mode() }

func (c *Challenge) emit(e events.Event) {
	e.Timestamp = time.Now().UTC()
	e.RunID = c.runID
	_ = c.log.Write(e)
}
