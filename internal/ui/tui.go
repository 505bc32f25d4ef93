// Package ui provides the optional live terminal view of a challenge.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/switchroom/internal/challenge"
	"github.com/nibzard/switchroom/internal/config"
	"github.com/nibzard/switchroom/internal/events"
)

const (
	// eventBuffer is the channel capacity between the run and the view.
	// Visit events beyond it are dropped rather than slowing the run.
	eventBuffer = 1024
	// maxCells caps the agent grid; larger populations are summarized.
	maxCells    = 400
	gridWidth   = 20
	recentLines = 8
)

// ErrNoTTY is returned when the live view is requested without a terminal.
var ErrNoTTY = errors.New("tui requires a TTY")

// Runner executes one challenge, sending its events to w.
type Runner func(ctx context.Context, w events.Writer) (*challenge.Result, error)

// RunTUI runs the challenge in the background and renders it live until
// the user quits. It returns the run's result and error.
func RunTUI(ctx context.Context, cfg *config.Config, run Runner) (*challenge.Result, error) {
	if !IsTTY(os.Stdout) {
		return nil, ErrNoTTY
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan events.Event, eventBuffer)
	writer := events.NewChannelWriter(ch)
	state := &runState{done: make(chan struct{})}
	go func() {
		state.result, state.err = run(ctx, writer)
		close(ch)
		close(state.done)
	}()

	model := newModel(cfg, ch, state, writer)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()

	// Quitting early aborts the run; keep draining so it can finish.
	cancel()
	go func() {
		for range ch {
		}
	}()
	<-state.done

	if err != nil && parent.Err() == nil && !errors.Is(err, tea.ErrProgramKilled) {
		return state.result, err
	}
	return state.result, state.err
}

// runState carries the outcome of the background run. Fields are valid
// once done is closed.
type runState struct {
	done   chan struct{}
	result *challenge.Result
	err    error
}

type eventMsg struct {
	event events.Event
}

type runDoneMsg struct {
	result *challenge.Result
	err    error
}

// cell is what the view knows about one agent.
type cell struct {
	label    string
	resetter bool
	entered  int64
	flips    int64
}

type model struct {
	cfg     *config.Config
	events  <-chan events.Event
	run     *runState
	dropped func() int

	cells    []cell
	occupant int
	state    string
	visits   int64
	target   int64
	recent   []string
	declared string

	finished bool
	result   *challenge.Result
	runErr   error
	showHelp bool
}

func newModel(cfg *config.Config, ch <-chan events.Event, run *runState, cw *events.ChannelWriter) *model {
	n := cfg.Agents
	m := &model{
		cfg:    cfg,
		events: ch,
		run:    run,
		cells:  make([]cell, n),
		state:  "unknown",
		target: int64(n-1) * 2,
	}
	if cw != nil {
		m.dropped = cw.Dropped
	}
	for i := range m.cells {
		m.cells[i].resetter = i == n-1
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return waitForEvent(m.events, m.run)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "h", "?":
			m.showHelp = !m.showHelp
			return m, nil
		}
	case eventMsg:
		m.apply(msg.event)
		return m, waitForEvent(m.events, m.run)
	case runDoneMsg:
		m.finished = true
		m.result = msg.result
		m.runErr = msg.err
		m.occupant = 0
		return m, nil
	}
	return m, nil
}

// apply folds one event into the view state.
func (m *model) apply(e events.Event) {
	if e.Visit > m.visits {
		m.visits = e.Visit
	}
	c := m.cellFor(e.Agent)

	switch e.Kind {
	case events.KindEntered:
		m.occupant = e.Agent
	case events.KindAction:
		if e.State != "" {
			m.state = e.State
		}
		m.occupant = 0
	case events.KindNote:
		if c != nil && c.resetter {
			m.target = int64(len(m.cells)-1)*2 - 1
		}
	case events.KindDeclared:
		m.declared = e.Label
	}

	if c != nil {
		c.label = e.Label
		if e.Entered > c.entered {
			c.entered = e.Entered
		}
		if e.Flips > c.flips {
			c.flips = e.Flips
		}
	}

	if line := describe(e); line != "" {
		m.recent = append(m.recent, line)
		if len(m.recent) > recentLines {
			m.recent = m.recent[len(m.recent)-recentLines:]
		}
	}
}

func (m *model) cellFor(id int) *cell {
	if id < 1 || id > len(m.cells) {
		return nil
	}
	return &m.cells[id-1]
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Switch Room"))
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%d agents | warden %s | strategy %s | seed %d",
		m.cfg.Agents, m.cfg.Warden, m.cfg.Strategy, m.cfg.Seed)))
	b.WriteString("\n\n")

	if m.showHelp {
		b.WriteString(sectionStyle.Render(helpText()))
		b.WriteString("\n")
		b.WriteString(m.footer())
		return b.String()
	}

	b.WriteString(sectionStyle.Render(m.statusView()))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(m.gridView()))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(m.recentView()))
	b.WriteString("\n")
	if m.finished {
		b.WriteString(m.outcomeView())
		b.WriteString("\n")
	}
	b.WriteString(m.footer())
	return b.String()
}

func (m *model) statusView() string {
	sw := switchOffStyle.Render("OFF")
	if m.state == "set" {
		sw = switchOnStyle.Render("ON")
	} else if m.state == "unknown" {
		sw = subtitleStyle.Render("?")
	}

	var resetterFlips int64
	if n := len(m.cells); n > 0 {
		resetterFlips = m.cells[n-1].flips
	}

	occupant := "empty"
	if c := m.cellFor(m.occupant); c != nil && c.label != "" {
		occupant = occupantStyle.Render(c.label)
	}

	lines := []string{
		fmt.Sprintf("Switch:   %s", sw),
		fmt.Sprintf("Room:     %s", occupant),
		fmt.Sprintf("Visits:   %d", m.visits),
		fmt.Sprintf("Resetter: %d / %d", resetterFlips, m.target),
	}
	if m.declared != "" {
		lines = append(lines, fmt.Sprintf("Declared: %s", occupantStyle.Render(m.declared)))
	}
	if m.dropped != nil {
		if d := m.dropped(); d > 0 {
			lines = append(lines, subtitleStyle.Render(fmt.Sprintf("(%d events not shown)", d)))
		}
	}
	return strings.Join(lines, "\n")
}

func (m *model) gridView() string {
	var b strings.Builder
	shown := min(len(m.cells), maxCells)
	for i := 0; i < shown; i++ {
		if i > 0 && i%gridWidth == 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.glyph(i + 1))
	}
	if extra := len(m.cells) - shown; extra > 0 {
		b.WriteString(subtitleStyle.Render(fmt.Sprintf("\n+%d more agents", extra)))
	}
	return b.String()
}

// glyph renders one agent: "." never entered, "o" entered, "1" one flip,
// "#" done, "R" the Resetter. The current occupant is highlighted.
func (m *model) glyph(id int) string {
	c := m.cellFor(id)
	var g string
	var style lipgloss.Style
	switch {
	case c.resetter:
		g, style = "R", resetterStyle
	case c.entered == 0:
		g, style = ".", subtitleStyle
	case c.flips >= 2:
		g, style = "#", doneStyle
	case c.flips == 1:
		g, style = "1", lipgloss.NewStyle()
	default:
		g, style = "o", lipgloss.NewStyle()
	}
	if id == m.occupant {
		style = occupantStyle
	}
	return style.Render(g) + " "
}

func (m *model) recentView() string {
	if len(m.recent) == 0 {
		return subtitleStyle.Render("Waiting for the first visit...")
	}
	return strings.Join(m.recent, "\n")
}

func (m *model) outcomeView() string {
	if m.runErr != nil {
		return failureStyle.Render("Run aborted: " + m.runErr.Error())
	}
	if m.result == nil {
		return ""
	}
	style := failureStyle
	if m.result.Success {
		style = successStyle
	}
	return style.Render(m.result.Verdict()) + "\n" + style.Render(m.result.Fate())
}

func (m *model) footer() string {
	if m.finished {
		return helpStyle.Render("Run finished | h for help | q to quit")
	}
	return helpStyle.Render("Running... | h for help | q to abort")
}

func helpText() string {
	return strings.Join([]string{
		"Keyboard Shortcuts",
		"",
		"  q, ctrl+c    Quit (aborts a running challenge)",
		"  h, ?         Toggle this help screen",
		"",
		"Grid",
		"",
		"  .  never entered    o  entered",
		"  1  one flip         #  done (two flips)",
		"  R  the Resetter",
	}, "\n")
}

// describe turns an event into one line for the recent-activity list.
func describe(e events.Event) string {
	switch e.Kind {
	case events.KindAction:
		return fmt.Sprintf("%s %s", e.Label, e.Action)
	case events.KindNote, events.KindStart:
		return e.Message
	case events.KindDeclared:
		return occupantStyle.Render(fmt.Sprintf("%s declares that the challenge is complete!", e.Label))
	default:
		return ""
	}
}

func waitForEvent(ch <-chan events.Event, run *runState) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			<-run.done
			return runDoneMsg{result: run.result, err: run.err}
		}
		return eventMsg{event: e}
	}
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
