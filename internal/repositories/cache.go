package repositories

import (
	"fmt"

	"github.com/desertthunder/cadence/internal/models"
)

// CacheAdapter writes backend responses into the cache. It satisfies tasks.Cache.
type CacheAdapter struct {
	songs     *SongRepository
	playlists *PlaylistRepository
}

// NewCacheAdapter creates a new CacheAdapter over the given repositories
func NewCacheAdapter(songs *SongRepository, playlists *PlaylistRepository) *CacheAdapter {
	return &CacheAdapter{songs: songs, playlists: playlists}
}

// CacheSongs upserts every song and returns how many were written.
// It stops at the first failure.
func (a *CacheAdapter) CacheSongs(songs []models.Song) (int, error) {
	for i := range songs {
		if err := a.songs.Upsert(&songs[i]); err != nil {
			return i, fmt.Errorf("failed to cache songs: %w", err)
		}
	}
	return len(songs), nil
}

// CachePlaylist upserts a playlist, replacing its membership when it carries songs.
func (a *CacheAdapter) CachePlaylist(playlist models.Playlist) error {
	if err := a.playlists.Upsert(&playlist); err != nil {
		return fmt.Errorf("failed to cache playlist: %w", err)
	}
	return nil
}

// CachedSongs returns cached songs matching criteria as values.
func (a *CacheAdapter) CachedSongs(criteria map[string]any) ([]models.Song, error) {
	cached, err := a.songs.List(criteria)
	if err != nil {
		return nil, err
	}

	songs := make([]models.Song, 0, len(cached))
	for _, s := range cached {
		songs = append(songs, *s)
	}
	return songs, nil
}

// CachedPlaylists returns cached playlists matching criteria as values.
func (a *CacheAdapter) CachedPlaylists(criteria map[string]any) ([]models.Playlist, error) {
	cached, err := a.playlists.List(criteria)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(cached))
	for _, p := range cached {
		playlists = append(playlists, *p)
	}
	return playlists, nil
}

// CachedPlaylist returns a cached playlist with its songs.
func (a *CacheAdapter) CachedPlaylist(id int64) (*models.Playlist, error) {
	return a.playlists.Get(id)
}
