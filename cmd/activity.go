package main

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlayLogsLog records a play. With --queue a play that cannot reach the backend is kept for the next cache sync.
func (r *Runner) PlayLogsLog(ctx context.Context, cmd *cli.Command) error {
	songID, err := idArg(cmd, "song")
	if err != nil {
		return err
	}

	playedAt := time.Now().UTC()
	receipt, err := r.library.LogPlay(ctx, songID)
	if err != nil {
		if !cmd.Bool("queue") || !shared.IsUndelivered(err) {
			return err
		}

		_, plays, cerr := r.cache()
		if cerr != nil {
			return errors.Join(err, cerr)
		}
		if qerr := plays.Enqueue(songID, playedAt); qerr != nil {
			return errors.Join(err, qerr)
		}

		r.logger.Warn("play queued for later delivery", "song", songID, "error", err)
		return r.writePlain("Play of song %d queued; it will be sent on the next 'cadence cache sync'\n", songID)
	}

	return r.writeResult(cmd, receipt, func() error {
		return r.writePlain("✓ Logged play of song %d at %s\n", songID, receipt.PlayedAt.Local().Format(time.DateTime))
	})
}

// PlayLogsList lists recent plays.
func (r *Runner) PlayLogsList(ctx context.Context, cmd *cli.Command) error {
	q := services.PlayLogQuery{
		ListQuery: services.ListQuery{Ordering: cmd.String("ordering"), Page: cmd.Int("page")},
		Song:      cmd.Int64("song"),
	}

	page, err := r.library.ListPlayLogs(ctx, q)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, page.Results, func() error {
		for _, p := range page.Results {
			r.writePlain("%s  %-32s %s\n", p.PlayedAt.Local().Format(time.DateTime), truncate(p.SongTitle, 32), p.SongArtist)
		}
		return r.writePlain("\n%d of %d plays\n", len(page.Results), page.Count)
	})
}

// PlayLogsStats shows the current user's listening summary.
func (r *Runner) PlayLogsStats(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.library.PlayStats(ctx)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, stats, func() error {
		r.writePlainHeader("Listening stats")
		r.writePlain("Total plays:  %d\n", stats.TotalPlays)
		r.writePlain("This week:    %d\n", stats.WeeklyPlays)

		if len(stats.MostPlayedSongs) > 0 {
			r.writePlainln("Most played")
			for i, s := range stats.MostPlayedSongs {
				r.writePlain("%3d. %-32s %-24s %d\n", i+1, truncate(s.Title, 32), truncate(s.Artist, 24), s.PlayCount)
			}
		}
		if len(stats.GenrePreferences) > 0 {
			r.writePlainln("Genres")
			for _, g := range stats.GenrePreferences {
				r.writePlain("  %-12s %d\n", g.Genre, g.PlayCount)
			}
		}
		return nil
	})
}

// NotificationsList lists notifications, optionally unread only or of one type.
func (r *Runner) NotificationsList(ctx context.Context, cmd *cli.Command) error {
	q := services.NotificationQuery{
		ListQuery: services.ListQuery{Ordering: cmd.String("ordering"), Page: cmd.Int("page")},
		Type:      cmd.String("type"),
	}
	if cmd.Bool("unread") {
		unread := false
		q.IsRead = &unread
	}

	page, err := r.library.ListNotifications(ctx, q)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, page.Results, func() error {
		for _, n := range page.Results {
			mark := " "
			if !n.IsRead {
				mark = "•"
			}
			r.writePlain("%s %5d  %s  %s\n", mark, n.ID, n.CreatedAt.Local().Format(time.DateOnly), n.Title)
			if n.Message != "" {
				r.writePlain("         %s\n", n.Message)
			}
		}
		return r.writePlain("\n%d of %d notifications\n", len(page.Results), page.Count)
	})
}

// NotificationsRead marks one notification as read.
func (r *Runner) NotificationsRead(ctx context.Context, cmd *cli.Command) error {
	id, err := idArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.library.MarkRead(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Notification %d marked as read\n", id)
}

// NotificationsReadAll marks every notification as read.
func (r *Runner) NotificationsReadAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.library.MarkAllRead(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ All notifications marked as read\n")
}

// NotificationsUnread prints the unread count.
func (r *Runner) NotificationsUnread(ctx context.Context, cmd *cli.Command) error {
	count, err := r.library.UnreadCount(ctx)
	if err != nil {
		return err
	}
	return r.writeResult(cmd, models.UnreadCount{UnreadCount: count}, func() error {
		return r.writePlain("%d unread\n", count)
	})
}

// NotificationsClear deletes every notification.
func (r *Runner) NotificationsClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.library.ClearNotifications(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Notifications cleared\n")
}

// Dashboard shows catalog and activity counters.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	stats, err := r.library.DashboardStats(ctx)
	if err != nil {
		return err
	}

	return r.writeResult(cmd, stats, func() error {
		r.writePlainHeader("Dashboard")
		r.writePlain("Songs:       %d\n", stats.TotalSongs)
		r.writePlain("Playlists:   %d\n", stats.TotalPlaylists)
		r.writePlain("Users:       %d\n", stats.TotalUsers)
		r.writePlain("Plays today: %d\n", stats.PlaysToday)

		if len(stats.RecentPlays) > 0 {
			r.writePlainln("Recent plays")
			for _, p := range stats.RecentPlays {
				r.writePlain("  %-32s %s\n", truncate(p.SongTitle, 32), p.SongArtist)
			}
		}
		if len(stats.TopPlaylists) > 0 {
			r.writePlainln("Top playlists")
			for _, p := range stats.TopPlaylists {
				r.writePlain("  %-32s %d songs\n", truncate(p.Name, 32), p.SongCount)
			}
		}
		if len(stats.GenreStats) > 0 {
			r.writePlainln("Genres")
			for _, g := range stats.GenreStats {
				r.writePlain("  %-12s %5.1f%%\n", g.Genre, g.Percentage)
			}
		}
		return nil
	})
}
