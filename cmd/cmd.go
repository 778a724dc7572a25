// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// credentialFlags lets authenticated commands log in on the fly.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "email",
			Usage: "Account email (or CADENCE_EMAIL)",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "Account password (or CADENCE_PASSWORD)",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number to fetch",
			Value: 1,
		},
		&cli.StringFlag{
			Name:  "ordering",
			Usage: "Sort field, prefix with - for descending",
		},
	}
}

func flags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// setupCommand handles setup operations for configuration and the cache database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a default config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the cache database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "migrations",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupMigrations,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the session",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Log in with email and password",
				Flags:  credentialFlags(),
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account (does not log in)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "password-confirm", Usage: "Defaults to --password"},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
					&cli.StringFlag{Name: "user-type", Usage: "regular or admin"},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Invalidate the refresh token and clear the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session without contacting the backend",
				Flags:  outputFlags(),
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the stored refresh token for a new access token",
				Action: r.AuthRefresh,
			},
			{
				Name:   "whoami",
				Usage:  "Fetch the current user's profile",
				Flags:  flags(credentialFlags(), outputFlags()),
				Action: r.authed(r.AuthWhoami),
			},
			{
				Name:  "profile",
				Usage: "Update the current user's name",
				Flags: flags(credentialFlags(), outputFlags(), []cli.Flag{
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
				}),
				Action: r.authed(r.AuthProfile),
			},
			{
				Name:  "password",
				Usage: "Change the current user's password",
				Flags: flags(credentialFlags(), []cli.Flag{
					&cli.StringFlag{Name: "current", Required: true},
					&cli.StringFlag{Name: "new", Required: true},
					&cli.StringFlag{Name: "confirm", Usage: "Defaults to --new"},
				}),
				Action: r.authed(r.AuthPassword),
			},
		},
	}
}

func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Browse and manage the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs",
				Flags: flags(credentialFlags(), outputFlags(), pageFlags(), []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Match title or artist"},
					&cli.StringFlag{Name: "genre"},
					&cli.StringFlag{Name: "artist"},
					&cli.BoolFlag{Name: "all", Usage: "Fetch every page"},
					&cli.BoolFlag{Name: "offline", Usage: "Read from the local cache"},
				}),
				Action: r.SongsList,
			},
			{
				Name:      "get",
				Usage:     "Show one song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     flags(credentialFlags(), outputFlags()),
				Action:    r.authed(r.SongsGet),
			},
			{
				Name:  "upload",
				Usage: "Upload an audio file",
				Flags: flags(credentialFlags(), outputFlags(), []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Audio file (mp3, wav, m4a, ogg)", Required: true},
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "artist", Required: true},
					&cli.StringFlag{Name: "genre", Value: "other"},
					&cli.StringFlag{Name: "description"},
				}),
				Action: r.authed(r.SongsUpload),
			},
			{
				Name:      "update",
				Usage:     "Change a song's metadata",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: flags(credentialFlags(), outputFlags(), []cli.Flag{
					&cli.StringFlag{Name: "title"},
					&cli.StringFlag{Name: "artist"},
					&cli.StringFlag{Name: "genre"},
					&cli.StringFlag{Name: "description"},
				}),
				Action: r.authed(r.SongsUpdate),
			},
			{
				Name:      "delete",
				Usage:     "Delete a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     credentialFlags(),
				Action:    r.authed(r.SongsDelete),
			},
		},
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse and manage playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists",
				Flags: flags(credentialFlags(), outputFlags(), pageFlags(), []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
					&cli.BoolFlag{Name: "public", Usage: "Filter on visibility (--public or --public=false)"},
					&cli.BoolFlag{Name: "all", Usage: "Fetch every page"},
					&cli.BoolFlag{Name: "offline", Usage: "Read from the local cache"},
				}),
				Action: r.PlaylistsList,
			},
			{
				Name:      "get",
				Usage:     "Show a playlist and its songs",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: flags(credentialFlags(), outputFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "offline", Usage: "Read from the local cache"},
				}),
				Action: r.PlaylistsGet,
			},
			{
				Name:      "create",
				Usage:     "Create a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags: flags(credentialFlags(), outputFlags(), []cli.Flag{
					&cli.StringFlag{Name: "description"},
					&cli.BoolFlag{Name: "public"},
					&cli.Int64SliceFlag{Name: "song", Usage: "Song ID to add, in order (repeatable)"},
				}),
				Action: r.authed(r.PlaylistsCreate),
			},
			{
				Name:      "update",
				Usage:     "Change a playlist's name, description or visibility",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: flags(credentialFlags(), outputFlags(), []cli.Flag{
					&cli.StringFlag{Name: "name"},
					&cli.StringFlag{Name: "description"},
					&cli.BoolFlag{Name: "public"},
				}),
				Action: r.authed(r.PlaylistsUpdate),
			},
			{
				Name:      "delete",
				Usage:     "Delete a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     credentialFlags(),
				Action:    r.authed(r.PlaylistsDelete),
			},
			{
				Name:      "add-song",
				Usage:     "Append a song to a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}, &cli.StringArg{Name: "song"}},
				Flags:     credentialFlags(),
				Action:    r.authed(r.PlaylistsAddSong),
			},
			{
				Name:      "remove-song",
				Usage:     "Remove a song from a playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "playlist"}, &cli.StringArg{Name: "song"}},
				Flags:     credentialFlags(),
				Action:    r.authed(r.PlaylistsRemoveSong),
			},
			{
				Name:      "export",
				Usage:     "Export one playlist, or several with --id/--all",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: flags(credentialFlags(), []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json, csv, markdown or txt", Value: "json"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path (directory for bulk exports)"},
					&cli.Int64SliceFlag{Name: "ids", Usage: "Playlist IDs for a bulk export (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "Export every playlist"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent exports", Value: 5},
					&cli.FloatFlag{Name: "rate", Usage: "Requests per second", Value: 5},
				}),
				Action: r.authed(r.PlaylistsExport),
			},
		},
	}
}

func playLogsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlogs",
		Usage: "Record and review plays",
		Commands: []*cli.Command{
			{
				Name:      "log",
				Usage:     "Record a play of a song",
				Arguments: []cli.Argument{&cli.StringArg{Name: "song"}},
				Flags: flags(credentialFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "queue", Usage: "Queue the play locally when the backend is unreachable"},
				}),
				Action: r.authed(r.PlayLogsLog),
			},
			{
				Name:  "list",
				Usage: "List plays",
				Flags: flags(credentialFlags(), outputFlags(), pageFlags(), []cli.Flag{
					&cli.Int64Flag{Name: "song", Usage: "Only plays of this song"},
				}),
				Action: r.authed(r.PlayLogsList),
			},
			{
				Name:   "stats",
				Usage:  "Summarize your listening",
				Flags:  flags(credentialFlags(), outputFlags()),
				Action: r.authed(r.PlayLogsStats),
			},
		},
	}
}

func notificationsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notifications",
		Aliases: []string{"inbox"},
		Usage:   "Read notifications",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List notifications",
				Flags: flags(credentialFlags(), outputFlags(), pageFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "unread", Usage: "Only unread notifications"},
					&cli.StringFlag{Name: "type", Usage: "playlist_update, new_song, welcome or general"},
				}),
				Action: r.authed(r.NotificationsList),
			},
			{
				Name:      "read",
				Usage:     "Mark a notification as read",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     credentialFlags(),
				Action:    r.authed(r.NotificationsRead),
			},
			{
				Name:   "read-all",
				Usage:  "Mark every notification as read",
				Flags:  credentialFlags(),
				Action: r.authed(r.NotificationsReadAll),
			},
			{
				Name:   "unread",
				Usage:  "Show the unread count",
				Flags:  flags(credentialFlags(), outputFlags()),
				Action: r.authed(r.NotificationsUnread),
			},
			{
				Name:   "clear",
				Usage:  "Delete every notification",
				Flags:  credentialFlags(),
				Action: r.authed(r.NotificationsClear),
			},
		},
	}
}

func dashboardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "dashboard",
		Usage:  "Show catalog and activity statistics",
		Flags:  flags(credentialFlags(), outputFlags()),
		Action: r.authed(r.Dashboard),
	}
}

// apiCommand handles raw authenticated API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct authenticated API calls",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a path relative to api.base_url, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: flags(credentialFlags(), []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				}),
				Action: r.authed(r.APIGet),
			},
			{
				Name:  "post",
				Usage: "POST a JSON body to a path relative to api.base_url",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: flags(credentialFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				}),
				Action: r.authed(r.APIPost),
			},
		},
	}
}

// cacheCommand handles the local catalog cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Sync and read the local catalog cache",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Fetch songs and playlists into the cache and send queued plays",
				Flags: flags(credentialFlags(), []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent playlist detail fetches", Value: 4},
					&cli.FloatFlag{Name: "rate", Usage: "Playlist detail requests per second", Value: 5},
					&cli.BoolFlag{Name: "skip-details", Usage: "Only cache playlist summaries"},
				}),
				Action: r.authed(r.CacheSync),
			},
			{
				Name:  "songs",
				Usage: "List cached songs",
				Flags: flags(outputFlags(), []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
					&cli.StringFlag{Name: "genre"},
					&cli.StringFlag{Name: "artist"},
				}),
				Action: r.CacheSongs,
			},
			{
				Name:  "playlists",
				Usage: "List cached playlists",
				Flags: flags(outputFlags(), []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}},
				}),
				Action: r.CachePlaylists,
			},
		},
	}
}

// playerCommand returns the top-level command for the interactive player.
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.Player,
	}
}
