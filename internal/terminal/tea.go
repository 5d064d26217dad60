package terminal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/asynctui/internal/event"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	inputBuffer   = 256
)

var errNotEntered = errors.New("terminal: program not started")

// frameMsg asks the program to repaint with the latest frame.
type frameMsg struct{}

// Tea drives the terminal through a bubbletea program. The program only
// mirrors frames and forwards input; all application state lives in the
// shared model.
type Tea struct {
	opts []tea.ProgramOption

	mu      sync.Mutex
	content string
	width   int
	height  int
	program *tea.Program
	done    chan struct{}
	runErr  error

	input      chan event.Event
	detached   chan struct{}
	detachOnce sync.Once
}

// NewTea prepares an adapter. Options are passed to tea.NewProgram on Enter.
func NewTea(opts ...tea.ProgramOption) *Tea {
	return &Tea{
		opts:     opts,
		width:    defaultWidth,
		height:   defaultHeight,
		input:    make(chan event.Event, inputBuffer),
		detached: make(chan struct{}),
	}
}

// Enter starts the program, which switches the terminal to raw mode.
func (t *Tea) Enter() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.program != nil {
		return fmt.Errorf("terminal: already entered")
	}
	t.program = tea.NewProgram(bridge{t: t}, t.opts...)
	t.done = make(chan struct{})
	go func(p *tea.Program, done chan struct{}) {
		_, err := p.Run()
		t.mu.Lock()
		t.runErr = err
		t.mu.Unlock()
		close(done)
	}(t.program, t.done)
	return nil
}

// Exit stops the program and waits for the terminal to be restored.
func (t *Tea) Exit() error {
	t.mu.Lock()
	p, done := t.program, t.done
	t.mu.Unlock()
	if p == nil {
		return errNotEntered
	}
	p.Quit()
	<-done

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.runErr != nil {
		return fmt.Errorf("terminal: program exited: %w", t.runErr)
	}
	return nil
}

func (t *Tea) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width, t.height
}

// Draw publishes the frame and wakes the program to repaint it.
func (t *Tea) Draw(f *Frame) error {
	t.mu.Lock()
	t.content = f.Content()
	p, done := t.program, t.done
	t.mu.Unlock()
	if p == nil {
		return errNotEntered
	}
	select {
	case <-done:
		return fmt.Errorf("terminal: draw after program exit")
	default:
	}
	p.Send(frameMsg{})
	return nil
}

// Events returns an event source that merges a ticker firing every
// tickRate with the input this program receives.
func (t *Tea) Events(tickRate time.Duration) *EventSource {
	src := NewEventSource(tickRate, t.input)
	src.onStop = t.detach
	return src
}

func (t *Tea) detach() {
	t.detachOnce.Do(func() { close(t.detached) })
}

func (t *Tea) forward(ev event.Event) {
	select {
	case t.input <- ev:
	case <-t.detached:
	}
}

func (t *Tea) view() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.content
}

func (t *Tea) resize(width, height int) {
	t.mu.Lock()
	t.width, t.height = width, height
	t.mu.Unlock()
}

type bridge struct {
	t *Tea
}

func (b bridge) Init() tea.Cmd { return nil }

func (b bridge) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		b.t.forward(keyEvent(msg))
	case tea.MouseMsg:
		b.t.forward(event.Mouse(msg.X, msg.Y))
	case tea.WindowSizeMsg:
		b.t.resize(msg.Width, msg.Height)
		b.t.forward(event.Resize(msg.Width, msg.Height))
	}
	return b, nil
}

func (b bridge) View() string { return b.t.view() }

func keyEvent(msg tea.KeyMsg) event.Event {
	if msg.Paste {
		return event.Paste(string(msg.Runes))
	}
	ev := event.Key(msg.String())
	if msg.Type == tea.KeyRunes {
		ev.Runes = msg.Runes
	}
	return ev
}
