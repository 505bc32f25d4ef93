// Package warden decides which agent visits the switch room next.
//
// Five disciplines are available. Concurrent mode lets the room's gate decide
// admission order; the other four run a single synchronous control loop that
// dispatches one visit per iteration.
package warden

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/nibzard/switchroom/internal/agent"
	"github.com/nibzard/switchroom/internal/rng"
)

var (
	// ErrUnknownMode is returned by New for an unrecognised mode.
	ErrUnknownMode = errors.New("unknown warden mode")
	// ErrVisitLimit is returned when a run reaches Options.MaxVisits
	// without the signal being set.
	ErrVisitLimit = errors.New("visit limit reached")
	// ErrEmptyRoster is returned when Run is given no agents.
	ErrEmptyRoster = errors.New("empty roster")
)

// Mode names a scheduling discipline.
type Mode string

const (
	Concurrent       Mode = "concurrent"
	PseudoRandom     Mode = "pseudo-random"
	FixedPermutation Mode = "fixed-permutation"
	Sequential       Mode = "sequential"
	Fast             Mode = "fast"

	// Scripted is the mode reported by wardens built with NewCycle.
	Scripted Mode = "scripted"
)

// Modes returns the selectable modes in display order.
func Modes() []Mode {
	return []Mode{Concurrent, PseudoRandom, FixedPermutation, Sequential, Fast}
}

// Valid reports whether m is one of Modes.
func (m Mode) Valid() bool {
	for _, mode := range Modes() {
		if m == mode {
			return true
		}
	}
	return false
}

// Deterministic reports whether runs in this mode are reproducible for a
// given seed and population.
func (m Mode) Deterministic() bool {
	switch m {
	case FixedPermutation, Sequential, Fast, Scripted:
		return true
	}
	return false
}

// VisitFunc performs one visit by a.
type VisitFunc func(a *agent.Agent) agent.Outcome

// Warden dispatches visits until the signal is set.
type Warden interface {
	// Mode returns the discipline this warden implements.
	Mode() Mode
	// Run dispatches visits by roster members until sig is set, ctx is
	// done or the visit limit is reached. It returns nil only when sig is set.
	Run(ctx context.Context, roster []*agent.Agent, visit VisitFunc, sig *agent.Signal) error
}

// Options tune a warden.
type Options struct {
	// Workers bounds concurrent visits in Concurrent mode. Zero or less
	// uses GOMAXPROCS. It is always capped at the roster size.
	Workers int
	// MaxVisits aborts the run with ErrVisitLimit once this many visits were
	// dispatched. Zero means unlimited.
	MaxVisits int64
}

// New creates a warden for mode. src supplies all randomness; nil draws a
// fresh seed from entropy.
func New(mode Mode, src *rng.Source, opts Options) (Warden, error) {
	if src == nil {
		src = rng.New(rng.Entropy())
	}
	switch mode {
	case Concurrent:
		return &concurrent{src: src, opts: opts}, nil
	case PseudoRandom:
		return &looped{mode: mode, opts: opts, plan: randomPlan(src)}, nil
	case FixedPermutation:
		return &looped{mode: mode, opts: opts, plan: permutationPlan(src)}, nil
	case Sequential:
		return &looped{mode: mode, opts: opts, plan: cyclePlan(nil)}, nil
	case Fast:
		return &looped{mode: mode, opts: opts, plan: fastPlan}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

// NewCycle creates a synchronous warden that replays order cyclically.
// Entries are indexes into the roster passed to Run.
func NewCycle(order []int, opts Options) Warden {
	return &looped{mode: Scripted, opts: opts, plan: cyclePlan(order)}
}

// limiter counts dispatched visits against Options.MaxVisits.
type limiter struct {
	max   int64
	count atomic.Int64
}

func (l *limiter) take() bool {
	n := l.count.Add(1)
	return l.max <= 0 || n <= l.max
}

func (l *limiter) err() error {
	return fmt.Errorf("%w: %d visits", ErrVisitLimit, l.max)
}
