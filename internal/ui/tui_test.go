package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/switchroom/internal/challenge"
	"github.com/nibzard/switchroom/internal/config"
	"github.com/nibzard/switchroom/internal/events"
)

func testConfig(agents int) *config.Config {
	return &config.Config{
		Agents:   agents,
		Warden:   "sequential",
		Strategy: "proper",
		Seed:     42,
	}
}

func TestModelApply(t *testing.T) {
	m := newModel(testConfig(3), nil, nil, nil)

	m.apply(events.Event{Kind: events.KindEntered, Agent: 1, Label: "Agent #1 (Setter)", Entered: 1, Visit: 1})
	if m.occupant != 1 {
		t.Fatalf("occupant: got %d, want 1", m.occupant)
	}
	if !strings.Contains(m.View(), "Room:     Agent #1 (Setter)") {
		t.Errorf("view does not show the occupant:\n%s", m.View())
	}

	m.apply(events.Event{Kind: events.KindAction, Agent: 1, Label: "Agent #1 (Setter)", Action: "flips the switch on", State: "set", Entered: 1, Flips: 1, Visit: 1})
	if m.occupant != 0 {
		t.Errorf("occupant should be cleared after the action, got %d", m.occupant)
	}
	if m.state != "set" {
		t.Errorf("state: got %q, want set", m.state)
	}
	if m.cells[0].flips != 1 || m.cells[0].entered != 1 {
		t.Errorf("cell not updated: %+v", m.cells[0])
	}

	view := m.View()
	for _, want := range []string{"Switch:   ON", "Visits:   1", "Resetter: 0 / 4", "Agent #1 (Setter) flips the switch on"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelResetterNoteLowersTarget(t *testing.T) {
	m := newModel(testConfig(4), nil, nil, nil)
	m.apply(events.Event{Kind: events.KindNote, Agent: 4, Label: "Agent #4 (Resetter)", Message: "Agent #4 (Resetter) notes that they only have to count to 5 now!"})
	if m.target != 5 {
		t.Errorf("target: got %d, want 5", m.target)
	}

	// A note from a setter does not touch the target.
	m.apply(events.Event{Kind: events.KindNote, Agent: 1, Message: "x"})
	if m.target != 5 {
		t.Errorf("target changed by a setter note: %d", m.target)
	}
}

func TestModelIgnoresUnknownAgents(t *testing.T) {
	m := newModel(testConfig(2), nil, nil, nil)
	m.apply(events.Event{Kind: events.KindEntered, Agent: 99})
	m.apply(events.Event{Kind: events.KindStart, Message: "The challenge is commencing now!"})
	if len(m.recent) != 1 || m.recent[0] != "The challenge is commencing now!" {
		t.Errorf("recent: %v", m.recent)
	}
	_ = m.View()
}

func TestModelRecentIsBounded(t *testing.T) {
	m := newModel(testConfig(2), nil, nil, nil)
	for i := 0; i < recentLines*3; i++ {
		m.apply(events.Event{Kind: events.KindAction, Agent: 1, Label: "A", Action: "x"})
	}
	if len(m.recent) != recentLines {
		t.Errorf("recent: got %d lines, want %d", len(m.recent), recentLines)
	}
}

func TestGridSummarizesLargePopulations(t *testing.T) {
	m := newModel(testConfig(maxCells+50), nil, nil, nil)
	if !strings.Contains(m.gridView(), "+50 more agents") {
		t.Error("expected a summary for agents beyond the grid")
	}
}

func TestUpdateRunDone(t *testing.T) {
	m := newModel(testConfig(3), nil, nil, nil)
	result := &challenge.Result{Success: true, Declared: true}
	_, cmd := m.Update(runDoneMsg{result: result})
	if cmd != nil {
		t.Error("expected no command after the run finished")
	}
	if !m.finished {
		t.Fatal("model should be finished")
	}
	view := m.View()
	if !strings.Contains(view, result.Fate()) {
		t.Errorf("view missing fate:\n%s", view)
	}
	if !strings.Contains(view, "q to quit") {
		t.Errorf("view missing footer:\n%s", view)
	}

	m2 := newModel(testConfig(3), nil, nil, nil)
	m2.Update(runDoneMsg{err: errors.New("visit limit reached")})
	if !strings.Contains(m2.View(), "Run aborted: visit limit reached") {
		t.Errorf("view missing error:\n%s", m2.View())
	}
}

func TestUpdateKeys(t *testing.T) {
	m := newModel(testConfig(3), nil, nil, nil)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("h should toggle help")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan events.Event, 1)
	run := &runState{done: make(chan struct{})}

	ch <- events.Event{Kind: events.KindStart}
	if msg, ok := waitForEvent(ch, run)().(eventMsg); !ok || msg.event.Kind != events.KindStart {
		t.Fatalf("expected the start event, got %#v", msg)
	}

	run.result = &challenge.Result{Visits: 7}
	close(ch)
	close(run.done)
	msg, ok := waitForEvent(ch, run)().(runDoneMsg)
	if !ok || msg.result.Visits != 7 {
		t.Fatalf("expected runDoneMsg, got %#v", msg)
	}
}

func TestIsTTY(t *testing.T) {
	if IsTTY(&bytes.Buffer{}) {
		t.Error("a buffer is not a TTY")
	}
}
