package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	back     key.Binding
	playAll  key.Binding
	toggle   key.Binding
	next     key.Binding
	previous key.Binding
	stop     key.Binding
	visible  key.Binding
	open     key.Binding
	switchTo key.Binding
	logout   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play/open")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		playAll:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "play all")),
		toggle:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		next:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		previous: key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "previous")),
		stop:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		visible:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "player")),
		open:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open audio")),
		switchTo: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "songs/playlists")),
		logout:   key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logout")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.toggle, k.switchTo, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.playAll, k.toggle, k.next, k.previous, k.stop},
		{k.visible, k.open, k.switchTo, k.logout, k.quit},
	}
}
