package agent

import (
	"fmt"
	"time"

	"github.com/nibzard/switchroom/internal/events"
	"github.com/nibzard/switchroom/internal/room"
)

// Action is what an agent did during a visit.
type Action int

const (
	// ActionSkipped means the agent got the gate after the challenge ended
	// and left without entering.
	ActionSkipped Action = iota
	// ActionDone means a Setter entered after using up its flips.
	ActionDone
	// ActionLeftOn means a Setter found the switch on.
	ActionLeftOn
	// ActionLeftOff means the Resetter found the switch off.
	ActionLeftOff
	// ActionSet means a Setter turned the switch on.
	ActionSet
	// ActionReset means the Resetter turned the switch off.
	ActionReset
)

// String describes the action the way it appears in the event stream.
func (a Action) String() string {
	switch a {
	case ActionSkipped:
		return "leaves without entering (the challenge is over)"
	case ActionDone:
		return "leaves without doing anything (because they are done)"
	case ActionLeftOn:
		return "leaves without doing anything (because the switch is on)"
	case ActionLeftOff:
		return "leaves without doing anything (because the switch is off)"
	case ActionSet:
		return "flips the switch on"
	case ActionReset:
		return "flips the switch off"
	default:
		return "unknown action"
	}
}

// Flipped reports whether the action changed the switch.
func (a Action) Flipped() bool {
	return a == ActionSet || a == ActionReset
}

// Env carries the shared handles an agent needs for a visit.
type Env struct {
	Room     *room.Room
	Signal   *Signal
	Strategy Strategy
	// Log receives visit events. It must be safe for concurrent use when
	// agents visit from several goroutines; nil discards events.
	Log   events.Writer
	RunID string
}

// Outcome summarizes a single visit.
type Outcome struct {
	Entered  bool
	Action   Action
	State    room.State
	Declared bool
}

// Visit performs one full attempt: acquire the gate, enter, decide, leave,
// possibly declare, release. An agent that obtains the gate after the signal
// is set releases it without entering.
func (a *Agent) Visit(env *Env) Outcome {
	pass := env.Room.Acquire(a)
	defer pass.Release()

	if env.Signal.IsSet() {
		a.emit(env, events.KindSkipped, func(e *events.Event) {
			e.Action = ActionSkipped.String()
		})
		return Outcome{Action: ActionSkipped}
	}

	pass.Enter()
	a.emit(env, events.KindEntered, nil)

	var action Action
	var note bool
	switch a.role {
	case Resetter:
		action, note = a.decideAsResetter(pass)
	default:
		action = a.decideAsSetter(pass)
	}
	state := pass.Check()

	a.emit(env, events.KindAction, func(e *events.Event) {
		e.Action = action.String()
		e.State = state.String()
	})
	if note {
		a.emit(env, events.KindNote, func(e *events.Event) {
			e.Message = fmt.Sprintf("%s notes that they only have to count to %d now!", a.label, a.Target())
		})
	}

	declare := a.shouldDeclare(env.Strategy)
	pass.Leave()

	out := Outcome{Entered: true, Action: action, State: state}
	if declare && env.Signal.Declare(a.id) {
		out.Declared = true
		a.emit(env, events.KindDeclared, nil)
	}
	return out
}

func (a *Agent) decideAsSetter(pass *room.Pass) Action {
	if a.flips.Load() >= SetterTarget {
		return ActionDone
	}
	if pass.Check() == room.Set {
		return ActionLeftOn
	}
	if pass.Flip() {
		a.flips.Add(1)
	}
	return ActionSet
}

// decideAsResetter returns the action and whether the agent just learned
// that its target dropped by one.
func (a *Agent) decideAsResetter(pass *room.Pass) (Action, bool) {
	state := pass.Check()
	first := a.entered.Load() == 1
	if first {
		a.observedStart.Store(int32(state))
	}
	if state == room.Reset {
		return ActionLeftOff, first
	}
	if pass.Flip() {
		a.flips.Add(1)
	}
	return ActionReset, false
}

func (a *Agent) shouldDeclare(strategy Strategy) bool {
	entered := a.entered.Load()
	flips := a.flips.Load()
	switch a.role {
	case Resetter:
		if flips >= a.Target() {
			return true
		}
		return strategy == Improper && entered > int64(a.population)
	default:
		return strategy == Improper && entered > SetterTarget && flips >= SetterTarget
	}
}

func (a *Agent) emit(env *Env, kind events.Kind, fill func(*events.Event)) {
	if env.Log == nil {
		return
	}
	e := events.Event{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		RunID:     env.RunID,
		Agent:     a.id,
		Label:     a.label,
		Role:      a.role.String(),
		Entered:   a.entered.Load(),
		Flips:     a.flips.Load(),
		Visit:     env.Room.Entered(),
	}
	if fill != nil {
		fill(&e)
	}
	_ = env.Log.Write(e)
}
