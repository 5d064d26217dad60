// Package event defines the raw events produced by an event source and the
// contract the event task consumes.
package event

import (
	"context"
	"fmt"
	"time"
)

type Kind uint8

const (
	KindTick Kind = iota
	KindKey
	KindMouse
	KindResize
	KindPaste
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindKey:
		return "key"
	case KindMouse:
		return "mouse"
	case KindResize:
		return "resize"
	case KindPaste:
		return "paste"
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Event is one item of the unified timer and input stream.
type Event struct {
	Kind Kind
	// Key holds the key name for KindKey, formatted like bubbletea key
	// strings ("q", "ctrl+c", "enter", "up").
	Key string
	// Runes carries typed text for printable keys.
	Runes []rune
	// X, Y locate a mouse event.
	X, Y int
	// Width, Height carry the new size for KindResize.
	Width, Height int
	// Text is the pasted payload for KindPaste.
	Text string
	Time time.Time
}

// String returns the key name for key events so events can be matched
// against key bindings directly.
func (e Event) String() string {
	switch e.Kind {
	case KindKey:
		return e.Key
	case KindResize:
		return fmt.Sprintf("resize(%d, %d)", e.Width, e.Height)
	case KindMouse:
		return fmt.Sprintf("mouse(%d, %d)", e.X, e.Y)
	}
	return e.Kind.String()
}

func Tick(t time.Time) Event { return Event{Kind: KindTick, Time: t} }

func Key(name string) Event {
	e := Event{Kind: KindKey, Key: name, Time: time.Now()}
	if r := []rune(name); len(r) == 1 {
		e.Runes = r
	}
	return e
}

func Resize(width, height int) Event {
	return Event{Kind: KindResize, Width: width, Height: height, Time: time.Now()}
}

func Paste(text string) Event {
	return Event{Kind: KindPaste, Text: text, Time: time.Now()}
}

func Mouse(x, y int) Event {
	return Event{Kind: KindMouse, X: x, Y: y, Time: time.Now()}
}

// Source produces the ordered event stream. Next is the event task's only
// suspension point; it must return when ctx is done.
type Source interface {
	Next(ctx context.Context) (Event, error)
	Stop() error
}
