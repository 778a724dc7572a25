package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#E8663D", "#04B575", "#FF5F57", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	label  lipgloss.Style
	player lipgloss.Style
}

// NewPalette builds a palette from the accent, success, error, warning and muted colors.
func NewPalette(accent, success, failure, warning, muted string) *Palette {
	return &Palette{
		title: NewBold(accent).MarginBottom(1),
		ok:    NewBold(success),
		err:   NewBold(failure),
		warn:  NewStyle(warning),
		help:  NewEm(muted),
		label: NewStyle(muted),
		player: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(accent)).
			Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
