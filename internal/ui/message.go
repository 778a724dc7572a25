package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cadence/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLoggedIn MsgKind = iota
	MsgSongsFetched
	MsgPlaylistsFetched
	MsgPlaylistFetched
	MsgPlayLogged
	MsgRedirect
	MsgOpened
)

// Kind reports which message this is.
func (m Msg) Kind() MsgKind { return m.kind }

// Err is the failure carried by the message, if any.
func (m Msg) Err() error { return m.err }

type songsPayload struct {
	songs   []models.Song
	offline bool
}

type playlistsPayload struct {
	playlists []models.Playlist
	offline   bool
}

type playlistPayload struct {
	playlist *models.Playlist
	offline  bool
}

type playPayload struct {
	track  models.Track
	queued bool
}

// loggedInMsg is the constructor for [MsgLoggedIn]
func loggedInMsg(user *models.Profile, err error) Msg {
	return Msg{kind: MsgLoggedIn, data: user, err: err}
}

// songsFetchedMsg is the constructor for [MsgSongsFetched]
func songsFetchedMsg(songs []models.Song, offline bool, err error) Msg {
	return Msg{kind: MsgSongsFetched, data: songsPayload{songs, offline}, err: err}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, offline bool, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsPayload{playlists, offline}, err: err}
}

// playlistFetchedMsg is the constructor for [MsgPlaylistFetched]
func playlistFetchedMsg(playlist *models.Playlist, offline bool, err error) Msg {
	return Msg{kind: MsgPlaylistFetched, data: playlistPayload{playlist, offline}, err: err}
}

// playLoggedMsg is the constructor for [MsgPlayLogged]
func playLoggedMsg(track models.Track, queued bool, err error) Msg {
	return Msg{kind: MsgPlayLogged, data: playPayload{track, queued}, err: err}
}

// redirectMsg is the constructor for [MsgRedirect]. cause is nil for a deliberate logout.
func redirectMsg(cause error) Msg {
	return Msg{kind: MsgRedirect, err: cause}
}

// openedMsg is the constructor for [MsgOpened]
func openedMsg(url string, err error) Msg {
	return Msg{kind: MsgOpened, data: url, err: err}
}
