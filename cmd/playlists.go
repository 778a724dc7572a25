package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/shared"
	"github.com/desertthunder/cadence/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistsList lists playlists from the backend, or from the cache with --offline.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("offline") {
		return r.CachePlaylists(ctx, cmd)
	}
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	q := services.PlaylistQuery{
		ListQuery: services.ListQuery{Ordering: cmd.String("ordering"), Page: cmd.Int("page")},
		Search:    cmd.String("search"),
		IsPublic:  optionalBool(cmd, "public"),
	}

	var playlists []models.Playlist
	total := 0
	if cmd.Bool("all") {
		all, err := r.library.AllPlaylists(ctx, q, nil)
		if err != nil {
			return err
		}
		playlists, total = all, len(all)
	} else {
		page, err := r.library.ListPlaylists(ctx, q)
		if err != nil {
			return err
		}
		playlists, total = page.Results, page.Count
	}

	return r.writeResult(cmd, playlists, func() error {
		r.writePlaylists(playlists)
		return r.writePlain("\n%d of %d playlists\n", len(playlists), total)
	})
}

// PlaylistsGet shows a playlist with its songs in order.
func (r *Runner) PlaylistsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	var playlist *models.Playlist
	if cmd.Bool("offline") {
		adapter, _, err := r.cache()
		if err != nil {
			return err
		}
		if playlist, err = adapter.CachedPlaylist(id); err != nil {
			return err
		}
	} else {
		if err := r.ensureSession(ctx, cmd); err != nil {
			return err
		}
		if playlist, err = r.library.GetPlaylist(ctx, id); err != nil {
			return err
		}
	}

	return r.writeResult(cmd, playlist, func() error {
		return r.writePlaylist(playlist)
	})
}

// PlaylistsCreate creates a playlist and adds the --song IDs in order.
func (r *Runner) PlaylistsCreate(ctx context.Context, cmd *cli.Command) error {
	in := models.PlaylistInput{
		Name:        cmd.StringArg("name"),
		Description: cmd.String("description"),
		IsPublic:    cmd.Bool("public"),
		SongIDs:     cmd.Int64Slice("song"),
	}

	playlist, err := r.library.CreatePlaylist(ctx, in)
	if err != nil {
		if playlist != nil {
			r.writePlain("Playlist %d was created but is incomplete.\n", playlist.ID)
		}
		return err
	}

	return r.writeResult(cmd, playlist, func() error {
		r.writePlain("✓ Created playlist %q (id %d, %d songs)\n", playlist.Name, playlist.ID, len(playlist.Songs))
		return nil
	})
}

// PlaylistsUpdate changes the flags that were given.
func (r *Runner) PlaylistsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	patch := models.PlaylistPatch{
		Name:        optional(cmd, "name"),
		Description: optional(cmd, "description"),
		IsPublic:    optionalBool(cmd, "public"),
	}

	playlist, err := r.library.UpdatePlaylist(ctx, id, patch)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, playlist, func() error {
		r.writePlain("✓ Updated playlist %d\n", playlist.ID)
		return nil
	})
}

// PlaylistsDelete deletes a playlist.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.library.DeletePlaylist(ctx, id); err != nil {
		return err
	}
	r.writePlain("✓ Deleted playlist %d\n", id)
	return nil
}

// PlaylistsAddSong appends a song to a playlist.
func (r *Runner) PlaylistsAddSong(ctx context.Context, cmd *cli.Command) error {
	playlistID, songID, err := membershipArgs(cmd)
	if err != nil {
		return err
	}
	if err := r.library.AddSong(ctx, playlistID, songID); err != nil {
		return err
	}
	r.writePlain("✓ Added song %d to playlist %d\n", songID, playlistID)
	return nil
}

// PlaylistsRemoveSong removes a song from a playlist.
func (r *Runner) PlaylistsRemoveSong(ctx context.Context, cmd *cli.Command) error {
	playlistID, songID, err := membershipArgs(cmd)
	if err != nil {
		return err
	}
	if err := r.library.RemoveSong(ctx, playlistID, songID); err != nil {
		return err
	}
	r.writePlain("✓ Removed song %d from playlist %d\n", songID, playlistID)
	return nil
}

// PlaylistsExport writes one playlist to disk, or runs a bulk export with --ids or --all.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")
	ids := cmd.Int64Slice("ids")

	if cmd.Bool("all") || len(ids) > 0 {
		if cmd.Bool("all") {
			ids = nil
		}
		return r.bulkExport(ctx, ids, tasks.BulkExportOpts{
			Format:     format,
			OutputDir:  output,
			NumWorkers: cmd.Int("workers"),
			RateLimit:  cmd.Float("rate"),
		})
	}

	id, err := idArg(cmd, "id")
	if err != nil {
		return fmt.Errorf("%w (or use --ids/--all)", err)
	}

	playlist, err := r.library.GetPlaylist(ctx, id)
	if err != nil {
		return err
	}

	export := models.NewPlaylistExport(*playlist)
	if output == "" {
		output = formatter.DefaultPath(export, format)
	}

	files, err := formatter.WriteExport(export, format, output)
	if err != nil {
		return err
	}

	r.writePlain("✓ Exported %q (%d songs)\n", playlist.Name, len(export.Songs))
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

func (r *Runner) bulkExport(ctx context.Context, ids []int64, opts tasks.BulkExportOpts) error {
	engine, err := r.engine(false)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	manifest, manifestPath, err := engine.BulkExport(ctx, progress, ids, opts)
	close(progress)
	<-done

	if err != nil && manifest == nil {
		return err
	}

	r.writePlainln("Exported %d of %d playlists to %s", manifest.Succeeded, manifest.Total, manifest.OutputDirectory)
	if manifestPath != "" {
		r.writePlain("Manifest: %s\n", manifestPath)
	}
	if err != nil {
		return err
	}
	if manifest.Failed > 0 {
		return fmt.Errorf("%w: %d playlists failed to export", shared.ErrAPIRequest, manifest.Failed)
	}
	return nil
}

func membershipArgs(cmd *cli.Command) (int64, int64, error) {
	playlistID, err := idArg(cmd, "playlist")
	if err != nil {
		return 0, 0, err
	}
	songID, err := idArg(cmd, "song")
	if err != nil {
		return 0, 0, err
	}
	return playlistID, songID, nil
}

func (r *Runner) writePlaylists(playlists []models.Playlist) {
	for _, p := range playlists {
		visibility := "private"
		if p.IsPublic {
			visibility = "public"
		}
		r.writePlain("%6d  %-32s %4d songs  %-7s %s\n", p.ID, truncate(p.Name, 32), p.SongCount, visibility, p.CreatedByName)
	}
}

func (r *Runner) writePlaylist(p *models.Playlist) error {
	r.writePlainHeader(p.Name)
	if p.Description != "" {
		r.writePlain("%s\n\n", p.Description)
	}
	for i, s := range p.OrderedSongs() {
		r.writePlain("%3s. %-32s %-24s %s\n", strconv.Itoa(i+1), truncate(s.Title, 32), truncate(s.Artist, 24), models.FormatDuration(s.Duration))
	}
	return r.writePlain("\n%d songs\n", len(p.Songs))
}
