package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// PlaylistQuery filters the playlist list.
type PlaylistQuery struct {
	ListQuery
	Search   string
	IsPublic *bool
}

func (q PlaylistQuery) values() url.Values {
	v := q.ListQuery.values()
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.IsPublic != nil {
		v.Set("is_public", strconv.FormatBool(*q.IsPublic))
	}
	return v
}

type songRef struct {
	SongID int64 `json:"song_id"`
	Order  *int  `json:"order,omitempty"`
}

// ListPlaylists fetches one page of playlists (without their songs).
func (s *LibraryService) ListPlaylists(ctx context.Context, q PlaylistQuery) (*models.Page[models.Playlist], error) {
	return getPage[models.Playlist](ctx, s.api, "playlists/", q.values())
}

// AllPlaylists fetches every page of playlists matching q. onPage may be nil.
func (s *LibraryService) AllPlaylists(ctx context.Context, q PlaylistQuery, onPage func(page, total int)) ([]models.Playlist, error) {
	q.Page = 0
	return collect[models.Playlist](ctx, s.api, "playlists/", q.values(), onPage)
}

// GetPlaylist fetches a playlist with its songs. A 404 wraps [shared.ErrPlaylistNotFound].
func (s *LibraryService) GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error) {
	var p models.Playlist
	if err := s.api.DoJSON(ctx, http.MethodGet, idPath("playlists/", id, ""), nil, nil, &p); err != nil {
		return nil, notFound(err, shared.ErrPlaylistNotFound)
	}
	return &p, nil
}

// CreatePlaylist creates the playlist and then adds in.SongIDs one at a time, in order.
//
// If adding a song fails the playlist is left in place and the error names the song; the returned
// playlist reflects the songs added so far.
func (s *LibraryService) CreatePlaylist(ctx context.Context, in models.PlaylistInput) (*models.Playlist, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: playlist name is required", shared.ErrValidation)
	}

	var created models.Playlist
	if err := s.api.DoJSON(ctx, http.MethodPost, "playlists/", nil, in, &created); err != nil {
		if shared.IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		return nil, err
	}

	for i, songID := range in.SongIDs {
		order := i
		if err := s.addSong(ctx, created.ID, songRef{SongID: songID, Order: &order}); err != nil {
			partial, gerr := s.GetPlaylist(ctx, created.ID)
			if gerr != nil {
				partial = &created
			}
			return partial, fmt.Errorf("playlist %d created but adding song %d failed: %w", created.ID, songID, err)
		}
	}

	if len(in.SongIDs) == 0 {
		return &created, nil
	}
	return s.GetPlaylist(ctx, created.ID)
}

// UpdatePlaylist applies a partial update.
func (s *LibraryService) UpdatePlaylist(ctx context.Context, id int64, patch models.PlaylistPatch) (*models.Playlist, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}

	var p models.Playlist
	if err := s.api.DoJSON(ctx, http.MethodPatch, idPath("playlists/", id, ""), nil, patch, &p); err != nil {
		return nil, notFound(err, shared.ErrPlaylistNotFound)
	}
	return &p, nil
}

// DeletePlaylist removes a playlist.
func (s *LibraryService) DeletePlaylist(ctx context.Context, id int64) error {
	err := s.api.DoJSON(ctx, http.MethodDelete, idPath("playlists/", id, ""), nil, nil, nil)
	return notFound(err, shared.ErrPlaylistNotFound)
}

// AddSong appends a song to a playlist.
func (s *LibraryService) AddSong(ctx context.Context, playlistID, songID int64) error {
	return s.addSong(ctx, playlistID, songRef{SongID: songID})
}

func (s *LibraryService) addSong(ctx context.Context, playlistID int64, ref songRef) error {
	err := s.api.DoJSON(ctx, http.MethodPost, idPath("playlists/", playlistID, "add_song/"), nil, ref, nil)
	if shared.IsStatus(err, http.StatusBadRequest) {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	return notFound(err, shared.ErrPlaylistNotFound)
}

// RemoveSong removes a song from a playlist. The song id travels in the DELETE request body.
func (s *LibraryService) RemoveSong(ctx context.Context, playlistID, songID int64) error {
	err := s.api.DoJSON(ctx, http.MethodDelete, idPath("playlists/", playlistID, "remove_song/"), nil, songRef{SongID: songID}, nil)
	if shared.IsStatus(err, http.StatusBadRequest) {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	return notFound(err, shared.ErrPlaylistNotFound)
}
