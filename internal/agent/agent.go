// Package agent implements the two agent roles that visit the switch room:
// many Setters and one Resetter.
//
// Both roles share one struct and one Visit method; the role tag selects the
// decision rule applied while the agent is inside the room.
package agent

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/nibzard/switchroom/internal/room"
)

// SetterTarget is the number of times a Setter turns the switch on over its
// whole lifetime.
const SetterTarget = 2

// Role distinguishes Setters from the Resetter.
type Role int

const (
	Setter Role = iota
	Resetter
)

// String returns the lowercase role name.
func (r Role) String() string {
	if r == Resetter {
		return "resetter"
	}
	return "setter"
}

func (r Role) title() string {
	if r == Resetter {
		return "Resetter"
	}
	return "Setter"
}

// Strategy governs who may declare the challenge complete and when.
type Strategy string

const (
	// Proper lets only the Resetter declare, and only by counting.
	Proper Strategy = "proper"
	// Improper adds early-declaration heuristics that can be wrong.
	Improper Strategy = "improper"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == Proper || s == Improper
}

// Agent is a single visitor. Counters are atomics so that observers (the
// coordinator, the TUI) can read them while a concurrent run is in progress.
type Agent struct {
	id         int
	role       Role
	population int
	label      string

	entered atomic.Int64
	flips   atomic.Int64
	inRoom  atomic.Bool

	// observedStart is the switch position the Resetter saw on its first
	// entry; it stays room.Unknown until then.
	observedStart atomic.Int32
}

// NewSetter creates Setter number id in a population of the given size.
func NewSetter(id, population int) *Agent {
	return newAgent(id, Setter, population)
}

// NewResetter creates the Resetter. It always takes the last id.
func NewResetter(population int) *Agent {
	return newAgent(population, Resetter, population)
}

func newAgent(id int, role Role, population int) *Agent {
	width := len(strconv.Itoa(population))
	return &Agent{
		id:         id,
		role:       role,
		population: population,
		label:      fmt.Sprintf("Agent #%0*d (%s)", width, id, role.title()),
	}
}

// ID returns the agent's identity, 1..N.
func (a *Agent) ID() int { return a.id }

// Role returns the agent's role.
func (a *Agent) Role() Role { return a.role }

// Label returns the display name, e.g. "Agent #007 (Setter)".
func (a *Agent) Label() string { return a.label }

// Entered returns how many times the agent has entered the room.
func (a *Agent) Entered() int64 { return a.entered.Load() }

// Flips returns how many times the agent has flipped the switch.
func (a *Agent) Flips() int64 { return a.flips.Load() }

// InRoom reports whether the agent is currently inside the room.
func (a *Agent) InRoom() bool { return a.inRoom.Load() }

// ObservedStart returns the switch position the Resetter saw on its first
// entry, or room.Unknown.
func (a *Agent) ObservedStart() room.State {
	return room.State(a.observedStart.Load())
}

// RecordEntry is called by the room on Enter.
func (a *Agent) RecordEntry() { a.entered.Add(1) }

// SetInRoom is called by the room on Enter and Leave.
func (a *Agent) SetInRoom(in bool) { a.inRoom.Store(in) }

// Target returns the number of flips the agent is working towards. For the
// Resetter this is (N-1)*2, one less if the switch was off on its first visit.
func (a *Agent) Target() int64 {
	if a.role == Setter {
		return SetterTarget
	}
	target := int64(a.population-1) * SetterTarget
	if a.ObservedStart() == room.Reset {
		target--
	}
	return target
}

// Finished reports whether a Setter has used up its flips. The Resetter is
// never finished on its own; it declares instead.
func (a *Agent) Finished() bool {
	return a.role == Setter && a.flips.Load() >= SetterTarget
}

func (a *Agent) String() string { return a.label }
