package app

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/san-kum/asynctui/internal/action"
	"github.com/san-kum/asynctui/internal/event"
	"github.com/san-kum/asynctui/internal/terminal"
)

type fakeTerminal struct {
	mu       sync.Mutex
	entered  int
	exited   int
	draws    int
	enterErr error
	drawErr  error
}

func (t *fakeTerminal) Enter() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entered++
	return t.enterErr
}

func (t *fakeTerminal) Exit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exited++
	return nil
}

func (t *fakeTerminal) Size() (int, int) { return 80, 24 }

func (t *fakeTerminal) Draw(*terminal.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draws++
	return t.drawErr
}

func (t *fakeTerminal) counts() (entered, exited, draws int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entered, t.exited, t.draws
}

// fakeSource replays scripted events and ticks every tickRate in between.
type fakeSource struct {
	mu       sync.Mutex
	script   chan event.Event
	ticker   *time.Ticker
	stops    int
	stopped  chan struct{}
	stopOnce sync.Once
}

func newFakeSource(tickRate time.Duration, script ...event.Event) *fakeSource {
	ch := make(chan event.Event, len(script))
	for _, ev := range script {
		ch <- ev
	}
	return &fakeSource{script: ch, ticker: time.NewTicker(tickRate), stopped: make(chan struct{})}
}

func (s *fakeSource) Next(ctx context.Context) (event.Event, error) {
	select {
	case ev := <-s.script:
		return ev, nil
	default:
	}
	select {
	case <-ctx.Done():
		return event.Event{}, ctx.Err()
	case <-s.stopped:
		return event.Event{}, errors.New("stopped")
	case ev := <-s.script:
		return ev, nil
	case t := <-s.ticker.C:
		return event.Tick(t), nil
	}
}

func (s *fakeSource) Stop() error {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.stopped)
	})
	return nil
}

func (s *fakeSource) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

// recordingModel keys are "q" for Quit, "+N" and "-N" for counter deltas and
// anything else for Noop. Its counter is split over two fields updated in
// separate steps so a render that ran mid-dispatch would see them differ.
type recordingModel struct {
	tx         action.Sender
	initErr    error
	follow     map[action.Action]action.Action
	panicOn    bool
	quit       bool
	dispatched []action.Action
	// quitAfterTicks makes the model quit on its own after that many ticks.
	quitAfterTicks int
	ticks          int

	left, right int
	renders     int
	torn        int
}

func newRecordingModel() *recordingModel {
	return &recordingModel{follow: map[action.Action]action.Action{}}
}

func (m *recordingModel) SetSender(tx action.Sender) { m.tx = tx }
func (m *recordingModel) Init() error                 { return m.initErr }
func (m *recordingModel) ShouldQuit() bool            { return m.quit }

func (m *recordingModel) Render(*terminal.Frame) {
	if m.panicOn {
		panic("render exploded")
	}
	m.renders++
	if m.left != m.right {
		m.torn++
	}
}

func (m *recordingModel) Translate(ev event.Event) action.Action {
	switch {
	case ev.Kind == event.KindTick:
		return action.Tick()
	case ev.Kind != event.KindKey:
		return action.Noop()
	case ev.Key == "q":
		return action.Quit()
	case len(ev.Key) > 1 && (ev.Key[0] == '+' || ev.Key[0] == '-'):
		n, err := strconv.Atoi(ev.Key[1:])
		if err != nil {
			return action.Noop()
		}
		if ev.Key[0] == '+' {
			return action.AddToCounter(uint(n))
		}
		return action.SubtractFromCounter(uint(n))
	}
	return action.Noop()
}

func (m *recordingModel) Dispatch(a action.Action) (action.Action, bool) {
	m.dispatched = append(m.dispatched, a)
	switch a.Kind {
	case action.KindQuit:
		m.quit = true
	case action.KindTick:
		m.ticks++
		if m.quitAfterTicks > 0 && m.ticks >= m.quitAfterTicks {
			m.quit = true
		}
	case action.KindAddToCounter:
		m.left += int(a.N)
		runtime.Gosched()
		m.right += int(a.N)
	case action.KindSubtractFromCounter:
		m.left -= int(a.N)
		runtime.Gosched()
		m.right -= int(a.N)
	}
	follow, ok := m.follow[a]
	return follow, ok
}

// nonTicks returns dispatched actions other than ticks. Only call it after
// Run has returned.
func (m *recordingModel) nonTicks() []action.Action {
	var out []action.Action
	for _, a := range m.dispatched {
		if !a.IsTick() {
			out = append(out, a)
		}
	}
	return out
}

type recordingTracer struct {
	mu      sync.Mutex
	actions []action.Action
}

func (t *recordingTracer) Record(a action.Action) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actions = append(t.actions, a)
	return nil
}

func (t *recordingTracer) recorded() []action.Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]action.Action(nil), t.actions...)
}

func keys(names ...string) []event.Event {
	evs := make([]event.Event, len(names))
	for i, n := range names {
		evs[i] = event.Key(n)
	}
	return evs
}
