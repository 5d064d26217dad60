package home

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/asynctui/internal/terminal"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238")).Italic(true)
	inputStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(0, 1)
	loggerStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)

	modeStyles = map[Mode]lipgloss.Style{
		ModeNormal:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82")),
		ModeInsert:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		ModeProcessing: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
	}
)

const (
	graphHeight = 6
	loggerLines = 8
)

// Render draws the current state into f.
func (h *Home) Render(f *terminal.Frame) {
	width := f.Width
	if width <= 0 {
		width = h.width
	}
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	sections := []string{
		titleStyle.Render("asynctui"),
		field("counter", fmt.Sprint(h.counter)) + "  " +
			field("mode", modeStyles[h.mode].Render(h.mode.String())) + "  " +
			field("ticks", fmt.Sprint(h.ticks)) + "  " +
			field("size", fmt.Sprintf("%dx%d", h.width, h.height)),
	}

	if len(h.history) > 1 {
		sections = append(sections, asciigraph.Plot(h.history,
			asciigraph.Height(graphHeight),
			asciigraph.Width(inner-8),
			asciigraph.Caption("counter history"),
		))
	}

	if h.mode == ModeInsert {
		sections = append(sections, labelStyle.Render("add> ")+inputStyle.Render(string(h.input)+"_"))
	}

	sections = append(sections, h.helpLine())
	body := panelStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, sections...))

	if h.showLogger && h.logs != nil {
		lines := h.logs.Lines(loggerLines)
		for i, l := range lines {
			if len(l) > inner {
				lines[i] = l[:inner]
			}
		}
		logger := loggerStyle.Width(inner).Render(strings.Join(lines, "\n"))
		body = lipgloss.JoinVertical(lipgloss.Left, body, logger)
	}

	f.SetContent(body)
}

func field(label, value string) string {
	return labelStyle.Render(label+" ") + valueStyle.Render(value)
}

func (h *Home) helpLine() string {
	bindings := h.keys.help(h.mode)
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hl := b.Help()
		parts = append(parts, hl.Key+" "+hl.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " • "))
}
