// Package room implements the switch room: a mutually exclusive gate
// guarding a single two-position switch.
//
// Visits follow a strict protocol:
//
//	pass := r.Acquire(o) // blocks until the gate is free
//	defer pass.Release()
//	pass.Enter()
//	state := pass.Check()
//	pass.Flip()
//	pass.Leave()
//
// Enter and Leave are separate from Acquire and Release so that an occupant
// can hold the gate without entering (for example when the challenge ended
// while it was waiting) and so that a departure can be reported before the
// gate reopens.
package room

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrInvalidState is returned when a room is created with a state other
// than Reset or Set.
var ErrInvalidState = errors.New("invalid switch state")

// State is the position of the switch.
type State int

const (
	// Unknown is reported to callers that do not hold the room.
	Unknown State = iota
	// Reset is the off position counted by the resetter.
	Reset
	// Set is the on position produced by setters.
	Set
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Reset:
		return "reset"
	case Set:
		return "set"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a state the switch can physically be in.
func (s State) Valid() bool {
	return s == Reset || s == Set
}

// Occupant is implemented by anything that visits the room.
// The room updates the occupant's own bookkeeping on Enter and Leave.
type Occupant interface {
	ID() int
	RecordEntry()
	SetInRoom(in bool)
}

// Room is the switch room. The zero value is not usable; call New.
type Room struct {
	gate sync.Mutex

	mu       sync.Mutex
	state    State
	occupant Occupant
	inside   bool

	entered atomic.Int64
	flips   atomic.Int64
}

// New creates a room whose switch starts in the given position.
func New(initial State) (*Room, error) {
	if !initial.Valid() {
		return nil, fmt.Errorf("new room with state %q: %w", initial, ErrInvalidState)
	}
	return &Room{state: initial}, nil
}

// Acquire blocks until no other occupant holds the gate, then records o as
// the occupant. The returned pass must be released.
func (r *Room) Acquire(o Occupant) *Pass {
	r.gate.Lock()
	r.mu.Lock()
	r.occupant = o
	r.inside = false
	r.mu.Unlock()
	return &Pass{room: r, occupant: o}
}

// Enter marks o as inside the room. It is a no-op unless o is the current
// occupant and has not entered yet.
func (r *Room) Enter(o Occupant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.holds(o) || r.inside {
		return false
	}
	r.inside = true
	r.entered.Add(1)
	o.RecordEntry()
	o.SetInRoom(true)
	return true
}

// Check returns the switch position, or Unknown if o is not inside.
func (r *Room) Check(o Occupant) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.holds(o) || !r.inside {
		return Unknown
	}
	return r.state
}

// Flip toggles the switch. It is a no-op unless o is inside.
func (r *Room) Flip(o Occupant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.holds(o) || !r.inside {
		return false
	}
	if r.state == Set {
		r.state = Reset
	} else {
		r.state = Set
	}
	r.flips.Add(1)
	return true
}

// Leave marks o as no longer inside. The gate stays closed until Release.
func (r *Room) Leave(o Occupant) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.holds(o) || !r.inside {
		return false
	}
	r.inside = false
	o.SetInRoom(false)
	return true
}

// Release clears the occupant and reopens the gate. An occupant that never
// left is taken out of the room first.
func (r *Room) Release(o Occupant) bool {
	r.mu.Lock()
	if !r.holds(o) {
		r.mu.Unlock()
		return false
	}
	if r.inside {
		r.inside = false
		o.SetInRoom(false)
	}
	r.occupant = nil
	r.mu.Unlock()
	r.gate.Unlock()
	return true
}

// Occupant returns the current holder of the gate, or nil.
func (r *Room) Occupant() Occupant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occupant
}

// Peek returns the switch position without holding the room.
// It is meant for reporting once a run is over.
func (r *Room) Peek() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Entered returns the total number of entries.
func (r *Room) Entered() int64 {
	return r.entered.Load()
}

// Flips returns the total number of switch flips.
func (r *Room) Flips() int64 {
	return r.flips.Load()
}

func (r *Room) holds(o Occupant) bool {
	return o != nil && r.occupant == o
}

// Pass is the token returned by Acquire. It is owned by a single goroutine.
type Pass struct {
	room     *Room
	occupant Occupant
	released bool
}

// Enter enters the room.
func (p *Pass) Enter() bool { return p.room.Enter(p.occupant) }

// Check reads the switch.
func (p *Pass) Check() State { return p.room.Check(p.occupant) }

// Flip toggles the switch.
func (p *Pass) Flip() bool { return p.room.Flip(p.occupant) }

// Leave leaves the room without reopening the gate.
func (p *Pass) Leave() bool { return p.room.Leave(p.occupant) }

// Release reopens the gate. Calling it more than once is a no-op.
func (p *Pass) Release() {
	if p.released {
		return
	}
	p.released = true
	p.room.Release(p.occupant)
}
