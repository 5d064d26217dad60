// Package action defines the closed set of values that drive state
// transitions in the runtime.
//
// An [Action] is a small comparable value. Two actions are equal when their
// kind and payload are equal, so the runtime can filter out ticks with a
// plain == comparison.
package action

import "fmt"

// Kind identifies the variant of an Action.
type Kind uint8

const (
	KindNoop Kind = iota
	KindQuit
	KindTick
	KindResize
	KindToggleShowLogger
	KindScheduleIncrementCounter
	KindScheduleDecrementCounter
	KindAddToCounter
	KindSubtractFromCounter
	KindEnterNormal
	KindEnterInsert
	KindEnterProcessing
	KindExitProcessing
	KindUpdate
)

var kindNames = [...]string{
	KindNoop:                     "Noop",
	KindQuit:                     "Quit",
	KindTick:                     "Tick",
	KindResize:                   "Resize",
	KindToggleShowLogger:         "ToggleShowLogger",
	KindScheduleIncrementCounter: "ScheduleIncrementCounter",
	KindScheduleDecrementCounter: "ScheduleDecrementCounter",
	KindAddToCounter:             "AddToCounter",
	KindSubtractFromCounter:      "SubtractFromCounter",
	KindEnterNormal:              "EnterNormal",
	KindEnterInsert:              "EnterInsert",
	KindEnterProcessing:          "EnterProcessing",
	KindExitProcessing:           "ExitProcessing",
	KindUpdate:                   "Update",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Action is an immutable event or command. Only the payload fields that
// belong to Kind are set; the rest stay zero so equality stays meaningful.
type Action struct {
	Kind   Kind
	Width  uint16
	Height uint16
	N      uint
}

func Noop() Action                     { return Action{Kind: KindNoop} }
func Quit() Action                     { return Action{Kind: KindQuit} }
func Tick() Action                     { return Action{Kind: KindTick} }
func ToggleShowLogger() Action         { return Action{Kind: KindToggleShowLogger} }
func ScheduleIncrementCounter() Action { return Action{Kind: KindScheduleIncrementCounter} }
func ScheduleDecrementCounter() Action { return Action{Kind: KindScheduleDecrementCounter} }
func EnterNormal() Action              { return Action{Kind: KindEnterNormal} }
func EnterInsert() Action              { return Action{Kind: KindEnterInsert} }
func EnterProcessing() Action          { return Action{Kind: KindEnterProcessing} }
func ExitProcessing() Action           { return Action{Kind: KindExitProcessing} }
func Update() Action                   { return Action{Kind: KindUpdate} }

// Resize reports a new terminal size.
func Resize(width, height uint16) Action {
	return Action{Kind: KindResize, Width: width, Height: height}
}

// AddToCounter asks the model to add n to its counter.
func AddToCounter(n uint) Action {
	return Action{Kind: KindAddToCounter, N: n}
}

// SubtractFromCounter asks the model to subtract n from its counter.
func SubtractFromCounter(n uint) Action {
	return Action{Kind: KindSubtractFromCounter, N: n}
}

// IsTick reports whether a is the timer tick. Ticks are excluded from the
// action trace.
func (a Action) IsTick() bool { return a == Tick() }

func (a Action) String() string {
	switch a.Kind {
	case KindResize:
		return fmt.Sprintf("Resize(%d, %d)", a.Width, a.Height)
	case KindAddToCounter, KindSubtractFromCounter:
		return fmt.Sprintf("%s(%d)", a.Kind, a.N)
	default:
		return a.Kind.String()
	}
}

// Sender is the producer end of the action queue. The model keeps one to
// schedule deferred actions for itself.
type Sender interface {
	Send(Action) error
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(Action) error

func (f SenderFunc) Send(a Action) error { return f(a) }
