// Package home is the application model shared by the render task, the
// event task and the dispatch loop. Home is not safe for concurrent use;
// callers serialize access through the runtime's model lock.
package home

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/asynctui/internal/action"
	"github.com/san-kum/asynctui/internal/event"
)

const historyLen = 64

var errNoSender = errors.New("home: action sender not installed")

type Mode int

const (
	ModeNormal Mode = iota
	ModeInsert
	ModeProcessing
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeInsert:
		return "insert"
	case ModeProcessing:
		return "processing"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// LogView supplies the recent log lines shown in the logger panel.
type LogView interface {
	Lines(n int) []string
}

type Home struct {
	tx     action.Sender
	delay  time.Duration
	logs   LogView
	logger *log.Logger
	keys   keyMap

	counter    uint
	history    []float64
	mode       Mode
	resume     Mode
	processing int
	input      []rune
	submit     uint
	ticks      uint64
	width      int
	height     int
	showLogger bool
	shouldQuit bool
}

type Option func(*Home)

// WithScheduleDelay sets how long a scheduled counter change stays in
// processing before its delta is sent.
func WithScheduleDelay(d time.Duration) Option {
	return func(h *Home) { h.delay = d }
}

func WithLogView(v LogView) Option {
	return func(h *Home) {
		if v != nil {
			h.logs = v
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(h *Home) {
		if l != nil {
			h.logger = l
		}
	}
}

func New(opts ...Option) (*Home, error) {
	h := &Home{
		delay:   time.Second,
		logger:  log.New(io.Discard),
		keys:    defaultKeyMap(),
		history: []float64{0},
		width:   80,
		height:  24,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.delay < 0 {
		return nil, fmt.Errorf("home: negative schedule delay %s", h.delay)
	}
	return h, nil
}

// SetSender installs the producer used for self-scheduled actions. It must
// be called before Init.
func (h *Home) SetSender(tx action.Sender) {
	h.tx = tx
}

func (h *Home) Init() error {
	if h.tx == nil {
		return errNoSender
	}
	h.logger.Info("home initialized", "delay", h.delay)
	return nil
}

func (h *Home) ShouldQuit() bool { return h.shouldQuit }
func (h *Home) Counter() uint    { return h.counter }
func (h *Home) Mode() Mode       { return h.mode }
func (h *Home) Ticks() uint64    { return h.ticks }
func (h *Home) Input() string    { return string(h.input) }
func (h *Home) ShowLogger() bool { return h.showLogger }

// Dispatch applies a to the model. The returned action, if any, is queued
// again by the caller.
func (h *Home) Dispatch(a action.Action) (action.Action, bool) {
	switch a.Kind {
	case action.KindQuit:
		h.shouldQuit = true
	case action.KindTick:
		h.ticks++
	case action.KindResize:
		h.width, h.height = int(a.Width), int(a.Height)
		return action.Update(), true
	case action.KindToggleShowLogger:
		h.showLogger = !h.showLogger
	case action.KindScheduleIncrementCounter:
		h.schedule(action.AddToCounter(1))
	case action.KindScheduleDecrementCounter:
		h.schedule(action.SubtractFromCounter(1))
	case action.KindAddToCounter:
		h.add(a.N)
	case action.KindSubtractFromCounter:
		h.subtract(a.N)
	case action.KindEnterNormal:
		h.mode = ModeNormal
		if h.submit > 0 {
			n := h.submit
			h.submit = 0
			return action.AddToCounter(n), true
		}
	case action.KindEnterInsert:
		h.mode = ModeInsert
	case action.KindEnterProcessing:
		if h.processing == 0 {
			h.resume = h.mode
		}
		h.processing++
		h.mode = ModeProcessing
	case action.KindExitProcessing:
		if h.processing > 0 {
			h.processing--
		}
		if h.processing == 0 && h.mode == ModeProcessing {
			h.mode = h.resume
		}
	}
	return action.Action{}, false
}

func (h *Home) add(n uint) {
	if h.counter > math.MaxUint-n {
		h.counter = math.MaxUint
	} else {
		h.counter += n
	}
	h.record()
}

func (h *Home) subtract(n uint) {
	if n > h.counter {
		h.counter = 0
	} else {
		h.counter -= n
	}
	h.record()
}

func (h *Home) record() {
	h.history = append(h.history, float64(h.counter))
	if len(h.history) > historyLen {
		h.history = h.history[len(h.history)-historyLen:]
	}
}

// schedule sends follow in the background after the configured delay,
// bracketed by EnterProcessing and ExitProcessing.
func (h *Home) schedule(follow action.Action) {
	tx, delay, logger := h.tx, h.delay, h.logger
	if tx == nil {
		logger.Warn("dropping scheduled action", "action", follow, "err", errNoSender)
		return
	}
	go func() {
		if err := tx.Send(action.EnterProcessing()); err != nil {
			logger.Warn("scheduled action not sent", "action", follow, "err", err)
			return
		}
		time.Sleep(delay)
		if err := tx.Send(follow); err != nil {
			logger.Warn("scheduled action not sent", "action", follow, "err", err)
		}
		if err := tx.Send(action.ExitProcessing()); err != nil {
			logger.Warn("scheduled action not sent", "action", action.ExitProcessing(), "err", err)
		}
	}()
}

// Translate maps a raw event to an action according to the current mode.
// Insert-mode editing happens here since it never needs to go through the
// queue.
func (h *Home) Translate(ev event.Event) action.Action {
	switch ev.Kind {
	case event.KindTick:
		return action.Tick()
	case event.KindResize:
		return action.Resize(clamp16(ev.Width), clamp16(ev.Height))
	case event.KindPaste:
		if h.mode == ModeInsert {
			h.input = append(h.input, []rune(ev.Text)...)
			return action.Update()
		}
	case event.KindKey:
		return h.translateKey(ev)
	}
	return action.Noop()
}

func (h *Home) translateKey(ev event.Event) action.Action {
	if matches(ev, h.keys.ForceQuit) {
		return action.Quit()
	}

	switch h.mode {
	case ModeNormal:
		switch {
		case matches(ev, h.keys.Quit):
			return action.Quit()
		case matches(ev, h.keys.Increment):
			return action.ScheduleIncrementCounter()
		case matches(ev, h.keys.Decrement):
			return action.ScheduleDecrementCounter()
		case matches(ev, h.keys.ToggleLogger):
			return action.ToggleShowLogger()
		case matches(ev, h.keys.Insert):
			return action.EnterInsert()
		}
	case ModeInsert:
		switch {
		case matches(ev, h.keys.Normal):
			return action.EnterNormal()
		case matches(ev, h.keys.Submit):
			text := strings.TrimSpace(string(h.input))
			h.input = h.input[:0]
			if text != "" {
				n, err := strconv.ParseUint(text, 10, 0)
				if err != nil {
					h.logger.Warn("ignoring input", "input", text, "err", err)
				} else {
					h.submit = uint(n)
				}
			}
			return action.EnterNormal()
		case matches(ev, h.keys.Backspace):
			if len(h.input) > 0 {
				h.input = h.input[:len(h.input)-1]
			}
			return action.Update()
		case len(ev.Runes) > 0:
			h.input = append(h.input, ev.Runes...)
			return action.Update()
		}
	}
	return action.Noop()
}

func clamp16(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	}
	return uint16(v)
}
