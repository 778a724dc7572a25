// Package ui implements the interactive player using bubbletea's Elm architecture.
//
// The TUI has four views:
//  1. [LoginView] : Email and password form
//  2. [SongListView] : Browse the catalog and play songs
//  3. [PlaylistListView] : Browse playlists
//  4. [TrackListView] : A playlist's songs in order
//
// A player bar below the list shows the current track while the player is visible. Playback state lives in a
// playback.Player; the model only calls its methods and renders snapshots.
//
// Network calls run as tea.Cmd goroutines and come back as [Msg] values. Login redirects from the session
// manager arrive through a [Navigator] channel, so an expired session anywhere moves the UI to the login form.
package ui
