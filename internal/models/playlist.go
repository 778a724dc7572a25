package models

import (
	"sort"
	"time"
)

// Playlist is a named, ordered collection of songs.
//
// List endpoints omit Songs; the detail endpoint includes them.
type Playlist struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	CreatedByName string         `json:"created_by_name,omitempty"`
	IsPublic      bool           `json:"is_public"`
	SongCount     int            `json:"song_count"`
	Songs         []PlaylistSong `json:"playlist_songs,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PlaylistSong is a playlist membership row.
type PlaylistSong struct {
	Song    Song      `json:"song"`
	Order   int       `json:"order"`
	AddedAt time.Time `json:"added_at,omitzero"`
}

// OrderedSongs returns the playlist's songs sorted by their order field, ties kept in response order.
func (p Playlist) OrderedSongs() []Song {
	entries := make([]PlaylistSong, len(p.Songs))
	copy(entries, p.Songs)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Order < entries[j].Order })

	songs := make([]Song, 0, len(entries))
	for _, e := range entries {
		songs = append(songs, e.Song)
	}
	return songs
}

// Tracks returns the playlist's songs as playable tracks, in order.
func (p Playlist) Tracks() []Track {
	return Tracks(p.OrderedSongs())
}

// PlaylistInput creates a playlist. SongIDs are added one at a time after creation, in order.
type PlaylistInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	IsPublic    bool    `json:"is_public"`
	SongIDs     []int64 `json:"-"`
}

// PlaylistPatch holds the fields of a partial playlist update.
type PlaylistPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p PlaylistPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.IsPublic == nil
}

// PlaylistExport is a playlist with its complete track listing, used by the exporters.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Songs    []Song   `json:"songs"`
}

// NewPlaylistExport builds an export from a playlist detail response.
func NewPlaylistExport(p Playlist) *PlaylistExport {
	return &PlaylistExport{Playlist: p, Songs: p.OrderedSongs()}
}
