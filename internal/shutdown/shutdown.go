// Package shutdown implements the single-use stop notification handed to
// each background task.
package shutdown

import "sync"

// Signal carries exactly one value from one sender to one receiver. Sending
// is idempotent and never blocks, even when the receiver has already exited.
type Signal struct {
	once sync.Once
	ch   chan struct{}
}

func New() *Signal {
	return &Signal{ch: make(chan struct{}, 1)}
}

// Send delivers the stop value. Only the first call has an effect.
func (s *Signal) Send() {
	s.once.Do(func() {
		s.ch <- struct{}{}
	})
}

// Received reports, without blocking, whether the stop value was delivered.
// It consumes the value, so at most one call ever returns true.
func (s *Signal) Received() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done exposes the receive end for tasks that park between iterations.
// A receive from it consumes the value just like Received.
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}
