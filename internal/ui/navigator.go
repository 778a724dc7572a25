package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cadence/internal/session"
)

var _ session.Navigator = (*Navigator)(nil)

// Navigator carries login redirects from the session manager into the TUI.
//
// RedirectToLogin may be called from any goroutine, including a request in flight; it never blocks.
// Redirects arriving while one is already pending are dropped.
type Navigator struct {
	redirects chan error
}

// NewNavigator returns a Navigator ready to be passed to session.ManagerOpts.
func NewNavigator() *Navigator {
	return &Navigator{redirects: make(chan error, 1)}
}

func (n *Navigator) RedirectToLogin(cause error) {
	select {
	case n.redirects <- cause:
	default:
	}
}

// listen waits for the next redirect. The command returns nil once ctx is done.
func (n *Navigator) listen(ctx context.Context) tea.Cmd {
	if n == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case cause := <-n.redirects:
			return redirectMsg(cause)
		case <-ctx.Done():
			return nil
		}
	}
}
