// Package terminal holds the terminal adapter contract used by the render
// task, the frame surface a model renders into, and the bubbletea-backed
// implementations of both the adapter and the event source.
package terminal

import "strings"

// Terminal owns the raw-mode lifecycle and accepts finished frames.
type Terminal interface {
	Enter() error
	Exit() error
	Size() (width, height int)
	Draw(f *Frame) error
}

// Frame is the surface a model renders into. A frame is built while the
// model lock is held and flushed to the terminal after it is released.
type Frame struct {
	Width  int
	Height int

	content string
}

func NewFrame(width, height int) *Frame {
	return &Frame{Width: width, Height: height}
}

// SetContent replaces the frame body. Lines beyond Height are dropped.
func (f *Frame) SetContent(s string) {
	if f.Height > 0 {
		lines := strings.Split(s, "\n")
		if len(lines) > f.Height {
			s = strings.Join(lines[:f.Height], "\n")
		}
	}
	f.content = s
}

func (f *Frame) Content() string {
	return f.content
}
