package action

import (
	"errors"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		action   Action
		expected string
	}{
		{Quit(), "Quit"},
		{Tick(), "Tick"},
		{Resize(80, 24), "Resize(80, 24)"},
		{AddToCounter(5), "AddToCounter(5)"},
		{SubtractFromCounter(2), "SubtractFromCounter(2)"},
		{ExitProcessing(), "ExitProcessing"},
		{Action{Kind: Kind(200)}, "Kind(200)"},
	}

	for _, tt := range tests {
		if got := tt.action.String(); got != tt.expected {
			t.Errorf("expected %q, got %q", tt.expected, got)
		}
	}
}

func TestEquality(t *testing.T) {
	if AddToCounter(1) != AddToCounter(1) {
		t.Error("identical actions should be equal")
	}
	if AddToCounter(1) == AddToCounter(2) {
		t.Error("payload should take part in equality")
	}
	if AddToCounter(1) == SubtractFromCounter(1) {
		t.Error("kind should take part in equality")
	}
}

func TestIsTick(t *testing.T) {
	if !Tick().IsTick() {
		t.Error("Tick should be a tick")
	}
	for _, a := range []Action{Noop(), Quit(), Update(), Resize(1, 1), AddToCounter(0)} {
		if a.IsTick() {
			t.Errorf("%s should not be a tick", a)
		}
	}
}

func TestSenderFunc(t *testing.T) {
	var got []Action
	s := SenderFunc(func(a Action) error {
		got = append(got, a)
		return nil
	})
	if err := s.Send(Quit()); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(got) != 1 || got[0] != Quit() {
		t.Errorf("expected [Quit], got %v", got)
	}

	boom := errors.New("closed")
	failing := SenderFunc(func(Action) error { return boom })
	if err := failing.Send(Tick()); !errors.Is(err, boom) {
		t.Errorf("expected error to pass through, got %v", err)
	}
}
