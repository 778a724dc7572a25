package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/urfave/cli/v3"
)

// SongsList lists songs from the backend, or from the cache with --offline.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("offline") {
		return r.CacheSongs(ctx, cmd)
	}
	if err := r.ensureSession(ctx, cmd); err != nil {
		return err
	}

	q := services.SongQuery{
		ListQuery: services.ListQuery{Ordering: cmd.String("ordering"), Page: cmd.Int("page")},
		Search:    cmd.String("search"),
		Genre:     cmd.String("genre"),
		Artist:    cmd.String("artist"),
	}

	var songs []models.Song
	total := 0
	if cmd.Bool("all") {
		all, err := r.library.AllSongs(ctx, q, nil)
		if err != nil {
			return err
		}
		songs, total = all, len(all)
	} else {
		page, err := r.library.ListSongs(ctx, q)
		if err != nil {
			return err
		}
		songs, total = page.Results, page.Count
	}

	return r.writeResult(cmd, songs, func() error {
		r.writeSongs(songs)
		return r.writePlain("\n%d of %d songs\n", len(songs), total)
	})
}

// SongsGet shows one song.
func (r *Runner) SongsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	song, err := r.library.GetSong(ctx, id)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, song, func() error {
		return r.writeSong(song)
	})
}

// SongsUpload uploads an audio file with its metadata.
func (r *Runner) SongsUpload(ctx context.Context, cmd *cli.Command) error {
	up := models.SongUpload{
		Title:       cmd.String("title"),
		Artist:      cmd.String("artist"),
		Genre:       cmd.String("genre"),
		Description: cmd.String("description"),
		AudioPath:   cmd.String("file"),
	}

	r.logger.Info("uploading song", "file", up.AudioPath)

	song, err := r.library.CreateSong(ctx, up)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, song, func() error {
		r.writePlain("✓ Uploaded %q (id %d)\n", song.Title, song.ID)
		return nil
	})
}

// SongsUpdate changes the metadata flags that were given.
func (r *Runner) SongsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}

	patch := models.SongPatch{
		Title:       optional(cmd, "title"),
		Artist:      optional(cmd, "artist"),
		Genre:       optional(cmd, "genre"),
		Description: optional(cmd, "description"),
	}

	song, err := r.library.UpdateSong(ctx, id, patch)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, song, func() error {
		r.writePlain("✓ Updated song %d\n", song.ID)
		return r.writeSong(song)
	})
}

// SongsDelete deletes a song.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.library.DeleteSong(ctx, id); err != nil {
		return err
	}
	r.writePlain("✓ Deleted song %d\n", id)
	return nil
}

func (r *Runner) writeSongs(songs []models.Song) {
	for _, s := range songs {
		r.writePlain("%6d  %-32s %-24s %-10s %s\n", s.ID, truncate(s.Title, 32), truncate(s.Artist, 24), s.Genre, models.FormatDuration(s.Duration))
	}
}

func (r *Runner) writeSong(s *models.Song) error {
	r.writePlainHeader(s.Title)
	r.writePlain("ID:       %d\n", s.ID)
	r.writePlain("Artist:   %s\n", s.Artist)
	r.writePlain("Genre:    %s\n", s.Genre)
	r.writePlain("Duration: %s\n", models.FormatDuration(s.Duration))
	if s.UploadedByName != "" {
		r.writePlain("Uploader: %s\n", s.UploadedByName)
	}
	if s.Description != "" {
		r.writePlain("About:    %s\n", s.Description)
	}
	if s.FileURL != "" {
		r.writePlain("Audio:    %s\n", s.FileURL)
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return fmt.Sprintf("%s…", string(runes[:n-1]))
}
