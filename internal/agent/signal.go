package agent

import (
	"sync"
	"sync/atomic"
)

// Signal is the shared termination flag. It moves from unset to set exactly
// once per run; later declarations are ignored.
type Signal struct {
	set  atomic.Bool
	by   atomic.Int64
	once sync.Once
	done chan struct{}
}

// NewSignal creates an unset signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Declare sets the signal on behalf of agent id. It returns true only for
// the call that actually set it.
func (s *Signal) Declare(id int) bool {
	won := false
	s.once.Do(func() {
		s.by.Store(int64(id))
		s.set.Store(true)
		close(s.done)
		won = true
	})
	return won
}

// IsSet reports whether the signal has been set. It never blocks.
func (s *Signal) IsSet() bool {
	return s.set.Load()
}

// Done returns a channel closed when the signal is set.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// DeclaredBy returns the id of the declaring agent, or 0 if unset.
func (s *Signal) DeclaredBy() int {
	if !s.IsSet() {
		return 0
	}
	return int(s.by.Load())
}
