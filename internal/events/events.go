// Package events defines the event stream emitted during a challenge run
// and the writers that consume it.
package events

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Kind identifies an event.
type Kind string

const (
	KindStart    Kind = "challenge.start"
	KindEntered  Kind = "visit.entered"
	KindAction   Kind = "visit.action"
	KindNote     Kind = "visit.note"
	KindSkipped  Kind = "visit.skipped"
	KindDeclared Kind = "challenge.declared"
	KindFinished Kind = "challenge.finished"
	KindDebug    Kind = "debug"
)

// Event is a single entry in the event stream.
type Event struct {
	// Kind is the event kind.
	Kind Kind `json:"kind"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// RunID identifies the run that produced the event.
	RunID string `json:"run_id,omitempty"`

	// Agent is the agent identity (1..N) for visit events.
	Agent int `json:"agent,omitempty"`

	// Label is the display name of the agent, e.g. "Agent #07 (Setter)".
	Label string `json:"label,omitempty"`

	// Role is "setter" or "resetter".
	Role string `json:"role,omitempty"`

	// Action describes what the agent did during the visit.
	Action string `json:"action,omitempty"`

	// State is the switch position after the visit.
	State string `json:"state,omitempty"`

	// Entered and Flips are the agent's running counts.
	Entered int64 `json:"entered,omitempty"`
	Flips   int64 `json:"flips,omitempty"`

	// Visit is the room-wide entry count at the time of the event.
	Visit int64 `json:"visit,omitempty"`

	// Success is set on the finished event.
	Success *bool `json:"success,omitempty"`

	// Elapsed is set on the finished event.
	Elapsed time.Duration `json:"elapsed,omitempty"`

	// Message is free-form text.
	Message string `json:"message,omitempty"`
}

// Writer consumes events.
type Writer interface {
	Write(event Event) error
}

// IOStreamWriter writes events as JSON lines to an io.Writer.
type IOStreamWriter struct {
	w io.Writer
}

// NewIOStreamWriter creates a writer that emits one JSON object per line.
func NewIOStreamWriter(w io.Writer) *IOStreamWriter {
	return &IOStreamWriter{w: w}
}

// Write writes a single event.
func (l *IOStreamWriter) Write(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	data = append(data, '\n')
	_, err = l.w.Write(data)
	return err
}

// MultiWriter fans events out to several writers.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a writer that writes to every non-nil writer.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	filtered := make([]Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			filtered = append(filtered, w)
		}
	}
	return &MultiWriter{writers: filtered}
}

// Write writes the event to all underlying writers.
func (m *MultiWriter) Write(event Event) error {
	var errs []error
	for _, w := range m.writers {
		if err := w.Write(event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("multi-writer errors: %v", errs)
	}
	return nil
}

// NullWriter discards events.
type NullWriter struct{}

// Write does nothing.
func (NullWriter) Write(event Event) error {
	return nil
}

// SyncWriter serializes writes to another writer and keeps the first
// error it returned, so that callers can discard per-event errors.
type SyncWriter struct {
	mu     sync.Mutex
	writer Writer
	err    error
}

// Write forwards the event.
func (l *SyncWriter) Write(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.writer.Write(event)
	if err != nil && l.err == nil {
		l.err = err
	}
	return err
}

// Err returns the first write error, or nil.
func (l *SyncWriter) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Synchronized returns a writer safe for concurrent use.
// A nil writer discards events.
func Synchronized(writer Writer) *SyncWriter {
	if writer == nil {
		writer = NullWriter{}
	}
	if sw, ok := writer.(*SyncWriter); ok {
		return sw
	}
	return &SyncWriter{writer: writer}
}

// ChannelWriter forwards events to a channel. Visit events are dropped when
// the channel is full; start, declared and finished events always block
// until delivered.
type ChannelWriter struct {
	ch      chan<- Event
	mu      sync.Mutex
	dropped int
}

// NewChannelWriter creates a writer feeding ch.
func NewChannelWriter(ch chan<- Event) *ChannelWriter {
	return &ChannelWriter{ch: ch}
}

// Write forwards the event.
func (c *ChannelWriter) Write(event Event) error {
	switch event.Kind {
	case KindStart, KindDeclared, KindFinished:
		c.ch <- event
		return nil
	}
	select {
	case c.ch <- event:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
	}
	return nil
}

// Dropped returns the number of events discarded because the channel was full.
func (c *ChannelWriter) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
