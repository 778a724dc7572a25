package main

import (
	"context"

	"github.com/desertthunder/cadence/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CacheSync mirrors the catalog into the local cache and delivers queued plays.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine(true)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := engine.Sync(ctx, progress, tasks.SyncOpts{
		NumWorkers:  cmd.Int("workers"),
		RateLimit:   cmd.Float("rate"),
		SkipDetails: cmd.Bool("skip-details"),
	})
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("✓ Cache synced")
	r.writePlain("  Songs:     %d\n", result.Songs)
	r.writePlain("  Playlists: %d (%d with songs)\n", result.Playlists, result.Details)
	if result.PlaysFlushed > 0 || result.PlaysRemained > 0 {
		r.writePlain("  Plays:     %d sent, %d still queued\n", result.PlaysFlushed, result.PlaysRemained)
	}
	if len(result.Failures) > 0 {
		r.writePlainln("%d playlists could not be cached:", len(result.Failures))
		for _, f := range result.Failures {
			r.writePlain("  %d %s: %v\n", f.ID, f.Name, f.Err)
		}
	}
	return nil
}

// CacheSongs lists cached songs.
func (r *Runner) CacheSongs(ctx context.Context, cmd *cli.Command) error {
	adapter, _, err := r.cache()
	if err != nil {
		return err
	}

	songs, err := adapter.CachedSongs(map[string]any{
		"search": cmd.String("search"),
		"genre":  cmd.String("genre"),
		"artist": cmd.String("artist"),
	})
	if err != nil {
		return err
	}

	return r.writeResult(cmd, songs, func() error {
		r.writeSongs(songs)
		return r.writePlain("\n%d cached songs\n", len(songs))
	})
}

// CachePlaylists lists cached playlists.
func (r *Runner) CachePlaylists(ctx context.Context, cmd *cli.Command) error {
	adapter, _, err := r.cache()
	if err != nil {
		return err
	}

	criteria := map[string]any{"search": cmd.String("search")}
	if public := optionalBool(cmd, "public"); public != nil {
		criteria["is_public"] = *public
	}

	playlists, err := adapter.CachedPlaylists(criteria)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, playlists, func() error {
		r.writePlaylists(playlists)
		return r.writePlain("\n%d cached playlists\n", len(playlists))
	})
}
