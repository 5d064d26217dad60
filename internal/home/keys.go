package home

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/san-kum/asynctui/internal/event"
)

type keyMap struct {
	ForceQuit    key.Binding
	Quit         key.Binding
	Increment    key.Binding
	Decrement    key.Binding
	ToggleLogger key.Binding
	Insert       key.Binding
	Normal       key.Binding
	Submit       key.Binding
	Backspace    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		ForceQuit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		Quit:         key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		Increment:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "increment")),
		Decrement:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "decrement")),
		ToggleLogger: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logs")),
		Insert:       key.NewBinding(key.WithKeys("i", "/"), key.WithHelp("i", "insert")),
		Normal:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "normal")),
		Submit:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "add")),
		Backspace:    key.NewBinding(key.WithKeys("backspace")),
	}
}

func (k keyMap) help(m Mode) []key.Binding {
	switch m {
	case ModeInsert:
		return []key.Binding{k.Submit, k.Normal, k.ForceQuit}
	case ModeProcessing:
		return []key.Binding{k.ForceQuit}
	default:
		return []key.Binding{k.Increment, k.Decrement, k.Insert, k.ToggleLogger, k.Quit}
	}
}

func matches(ev event.Event, b key.Binding) bool {
	return key.Matches(ev, b)
}
