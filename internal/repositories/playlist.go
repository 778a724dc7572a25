package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

const playlistColumns = `id, name, description, created_by_name, is_public, song_count, created_at, updated_at`

// PlaylistRepository implements models.Repository[*models.Playlist] for the playlist cache.
//
// A playlist cached from a detail response carries its songs; caching it replaces the membership
// rows and upserts the songs in one transaction. A playlist from a list response (Songs == nil)
// keeps whatever membership was cached before.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Upsert inserts the playlist or replaces the cached copy.
func (r *PlaylistRepository) Upsert(playlist *models.Playlist) error {
	if playlist == nil || playlist.ID <= 0 {
		return fmt.Errorf("%w: playlist must have a backend id", shared.ErrInvalidInput)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO playlists (` + playlistColumns + `, cached_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, NULL)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			created_by_name = excluded.created_by_name,
			is_public = excluded.is_public,
			song_count = excluded.song_count,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			cached_at = CURRENT_TIMESTAMP,
			deleted_at = NULL
	`

	_, err = tx.Exec(query,
		playlist.ID,
		playlist.Name,
		playlist.Description,
		playlist.CreatedByName,
		playlist.IsPublic,
		playlist.SongCount,
		nullTime(playlist.CreatedAt),
		nullTime(playlist.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert playlist %d: %w", playlist.ID, err)
	}

	if playlist.Songs != nil {
		if err := replaceMembers(tx, playlist); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit playlist %d: %w", playlist.ID, err)
	}
	return nil
}

func replaceMembers(tx *sql.Tx, playlist *models.Playlist) error {
	if _, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, playlist.ID); err != nil {
		return fmt.Errorf("failed to clear playlist songs: %w", err)
	}

	for _, entry := range playlist.Songs {
		song := entry.Song
		if err := upsertSong(tx, &song); err != nil {
			return err
		}

		_, err := tx.Exec(
			`INSERT OR REPLACE INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)`,
			playlist.ID, song.ID, entry.Order,
		)
		if err != nil {
			return fmt.Errorf("failed to add song %d to playlist %d: %w", song.ID, playlist.ID, err)
		}
	}

	_, err := tx.Exec(`UPDATE playlists SET song_count = ? WHERE id = ?`, len(playlist.Songs), playlist.ID)
	if err != nil {
		return fmt.Errorf("failed to update song count: %w", err)
	}
	return nil
}

// Get retrieves a playlist by ID with its cached songs in playlist order, excluding soft-deleted rows
func (r *PlaylistRepository) Get(id int64) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ? AND deleted_at IS NULL`

	playlist, err := scanPlaylist(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrPlaylistNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	songs, err := r.members(id)
	if err != nil {
		return nil, err
	}
	playlist.Songs = songs
	return playlist, nil
}

func (r *PlaylistRepository) members(playlistID int64) ([]models.PlaylistSong, error) {
	query := `
		SELECT ps.position, s.id, s.title, s.artist, s.genre, s.description, s.duration, s.uploaded_by_name, s.file_url, s.created_at
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = ? AND s.deleted_at IS NULL
		ORDER BY ps.position ASC, s.id ASC
	`

	rows, err := r.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist songs: %w", err)
	}
	defer rows.Close()

	entries := []models.PlaylistSong{}
	for rows.Next() {
		var position int
		song, err := scanSong(positionScanner{rows, &position})
		if err != nil {
			return nil, err
		}
		entries = append(entries, models.PlaylistSong{Song: *song, Order: position})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}

// positionScanner prepends the position column to a song scan.
type positionScanner struct {
	rows     *sql.Rows
	position *int
}

func (p positionScanner) Scan(dest ...any) error {
	return p.rows.Scan(append([]any{p.position}, dest...)...)
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(id int64) error {
	return softDelete(r.db, "playlists", id, shared.ErrPlaylistNotFound)
}

// List retrieves all cached playlists matching the given criteria, without their songs.
//
// Supported criteria: "is_public" (bool) and "search" (substring of name or description).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE deleted_at IS NULL`
	args := []any{}

	if public, ok := criteria["is_public"].(bool); ok {
		query += " AND is_public = ?"
		args = append(args, public)
	}

	if search, ok := criteria["search"].(string); ok && search != "" {
		query += " AND (name LIKE ? OR description LIKE ?)"
		args = append(args, likePattern(search), likePattern(search))
	}

	query += " ORDER BY name COLLATE NOCASE ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// scanPlaylist scans the playlistColumns of a row into a [models.Playlist]
func scanPlaylist(row rowScanner) (*models.Playlist, error) {
	var (
		p         models.Playlist
		createdAt sql.NullTime
		updatedAt sql.NullTime
	)

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedByName, &p.IsPublic, &p.SongCount, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	if createdAt.Valid {
		p.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return &p, nil
}
