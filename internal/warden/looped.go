package warden

import (
	"context"
	"fmt"

	"github.com/nibzard/switchroom/internal/agent"
)

// plan turns a roster into a generator of the next agent to dispatch.
type plan func(roster []*agent.Agent) (func() *agent.Agent, error)

// looped is the single-threaded control loop shared by every mode except
// Concurrent.
type looped struct {
	mode Mode
	opts Options
	plan plan
}

func (w *looped) Mode() Mode { return w.mode }

func (w *looped) Run(ctx context.Context, roster []*agent.Agent, visit VisitFunc, sig *agent.Signal) error {
	if len(roster) == 0 {
		return ErrEmptyRoster
	}
	next, err := w.plan(roster)
	if err != nil {
		return fmt.Errorf("%s warden: %w", w.mode, err)
	}

	limit := &limiter{max: w.opts.MaxVisits}
	for !sig.IsSet() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !limit.take() {
			return limit.err()
		}
		visit(next())
	}
	return nil
}

// randomPlan draws a uniform index per iteration. Any agent may be skipped
// for arbitrarily many rounds.
func randomPlan(src interface{ IntN(int) int }) plan {
	return func(roster []*agent.Agent) (func() *agent.Agent, error) {
		return func() *agent.Agent {
			return roster[src.IntN(len(roster))]
		}, nil
	}
}

// permutationPlan shuffles the roster once and replays it.
func permutationPlan(src interface{ Perm(int) []int }) plan {
	return func(roster []*agent.Agent) (func() *agent.Agent, error) {
		return cyclePlan(src.Perm(len(roster)))(roster)
	}
}

// cyclePlan replays order, or the roster order when order is nil.
func cyclePlan(order []int) plan {
	return func(roster []*agent.Agent) (func() *agent.Agent, error) {
		seq := roster
		if order != nil {
			if len(order) == 0 {
				return nil, ErrEmptyRoster
			}
			seq = make([]*agent.Agent, len(order))
			for i, idx := range order {
				if idx < 0 || idx >= len(roster) {
					return nil, fmt.Errorf("order entry %d out of range [0,%d)", idx, len(roster))
				}
				seq[i] = roster[idx]
			}
		}
		i := 0
		return func() *agent.Agent {
			a := seq[i]
			i = (i + 1) % len(seq)
			return a
		}, nil
	}
}

// fastPlan alternates the Resetter with the Setters in id order:
// R, S1, R, S2, ..., R, S(N-1), R, S1, ...
func fastPlan(roster []*agent.Agent) (func() *agent.Agent, error) {
	var resetter *agent.Agent
	setters := make([]*agent.Agent, 0, len(roster))
	for _, a := range roster {
		if a.Role() == agent.Resetter {
			resetter = a
		} else {
			setters = append(setters, a)
		}
	}
	if resetter == nil {
		return nil, fmt.Errorf("fast mode needs a resetter")
	}
	if len(setters) == 0 {
		return nil, fmt.Errorf("fast mode needs at least one setter")
	}

	resetterTurn := true
	i := 0
	return func() *agent.Agent {
		if resetterTurn {
			resetterTurn = false
			return resetter
		}
		resetterTurn = true
		a := setters[i]
		i = (i + 1) % len(setters)
		return a
	}, nil
}
