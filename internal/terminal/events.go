package terminal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/san-kum/asynctui/internal/event"
)

// ErrSourceStopped is returned by Next once the source has been stopped.
var ErrSourceStopped = errors.New("terminal: event source stopped")

// EventSource merges a tick timer with forwarded input into one stream.
// Ticks bound how long Next can block, so a caller that checks for
// shutdown between events observes it within one tick interval.
type EventSource struct {
	ticker  *time.Ticker
	input   <-chan event.Event
	stopped chan struct{}
	once    sync.Once
	onStop  func()
}

// NewEventSource starts the tick timer. A nil input yields ticks only.
func NewEventSource(tickRate time.Duration, input <-chan event.Event) *EventSource {
	return &EventSource{
		ticker:  time.NewTicker(tickRate),
		input:   input,
		stopped: make(chan struct{}),
	}
}

func (s *EventSource) Next(ctx context.Context) (event.Event, error) {
	select {
	case <-ctx.Done():
		return event.Event{}, ctx.Err()
	case <-s.stopped:
		return event.Event{}, ErrSourceStopped
	case t := <-s.ticker.C:
		return event.Tick(t), nil
	case ev, ok := <-s.input:
		if !ok {
			s.input = nil
			return s.Next(ctx)
		}
		return ev, nil
	}
}

// Stop releases the timer and detaches input forwarding. It is safe to call
// more than once.
func (s *EventSource) Stop() error {
	s.once.Do(func() {
		s.ticker.Stop()
		close(s.stopped)
		if s.onStop != nil {
			s.onStop()
		}
	})
	return nil
}
