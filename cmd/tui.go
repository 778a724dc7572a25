package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cadence/internal/playback"
	"github.com/desertthunder/cadence/internal/shared"
	"github.com/desertthunder/cadence/internal/ui"
	"github.com/urfave/cli/v3"
)

// Player launches the interactive terminal player.
//
// Logs go to the rotated log file while the player owns the terminal. The cache is optional: without it the
// player works online only and undelivered plays are dropped.
func (r *Runner) Player(ctx context.Context, cmd *cli.Command) error {
	previous := r.logger
	if fileLogger, closer, err := shared.NewFileLogger(r.config.Log); err == nil {
		r.SetLogger(fileLogger)
		defer func() {
			r.SetLogger(previous)
			closer.Close()
		}()
	} else {
		previous.Warn("logging to a file is unavailable, logs may garble the player", "error", err)
	}

	if _, err := r.manager.Restore(ctx); err != nil {
		r.logger.Warn("stored session could not be resumed", "error", err)
	}

	navigator := ui.NewNavigator()
	r.setNavigator(navigator)
	defer r.setNavigator(nil)

	opts := ui.Opts{
		Auth:      r.manager,
		Library:   r.library,
		Player:    playback.NewPlayer(),
		Navigator: navigator,
		Logger:    r.logger,
	}
	if adapter, plays, err := r.cache(); err == nil {
		opts.Cache = adapter
		opts.Plays = plays
	} else {
		r.logger.Warn("cache unavailable, browsing online only", "error", err)
	}

	p := tea.NewProgram(ui.NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running player: %w", err)
	}
	return nil
}
