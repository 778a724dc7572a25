package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

const songColumns = `id, title, artist, genre, description, duration, uploaded_by_name, file_url, created_at`

// SongRepository implements models.Repository[*models.Song] for the song cache.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

// Upsert inserts the song or replaces the cached copy, clearing any soft delete.
func (r *SongRepository) Upsert(song *models.Song) error {
	return upsertSong(r.db, song)
}

func upsertSong(db execer, song *models.Song) error {
	if song == nil || song.ID <= 0 {
		return fmt.Errorf("%w: song must have a backend id", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO songs (` + songColumns + `, cached_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, NULL)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			genre = excluded.genre,
			description = excluded.description,
			duration = excluded.duration,
			uploaded_by_name = excluded.uploaded_by_name,
			file_url = excluded.file_url,
			created_at = excluded.created_at,
			cached_at = CURRENT_TIMESTAMP,
			deleted_at = NULL
	`

	_, err := db.Exec(query,
		song.ID,
		song.Title,
		song.Artist,
		song.Genre,
		song.Description,
		nullInt(song.Duration),
		song.UploadedByName,
		song.FileURL,
		nullTime(song.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert song %d: %w", song.ID, err)
	}
	return nil
}

// Get retrieves a song by ID, excluding soft-deleted songs
func (r *SongRepository) Get(id int64) (*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ? AND deleted_at IS NULL`

	song, err := scanSong(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrSongNotFound, id)
	}
	return song, err
}

// Delete soft-deletes a song by ID
func (r *SongRepository) Delete(id int64) error {
	return softDelete(r.db, "songs", id, shared.ErrSongNotFound)
}

// List retrieves all cached songs matching the given criteria, excluding soft-deleted songs.
//
// Supported criteria: "artist" and "genre" (exact, case-insensitive) and "search" (substring of title or artist).
func (r *SongRepository) List(criteria map[string]any) ([]*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE deleted_at IS NULL`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, artist)
	}

	if genre, ok := criteria["genre"].(string); ok && genre != "" {
		query += " AND genre = ? COLLATE NOCASE"
		args = append(args, strings.ToLower(genre))
	}

	if search, ok := criteria["search"].(string); ok && search != "" {
		query += " AND (title LIKE ? OR artist LIKE ?)"
		args = append(args, likePattern(search), likePattern(search))
	}

	query += " ORDER BY title COLLATE NOCASE ASC, id ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// scanSong scans the songColumns of a row into a [models.Song]
func scanSong(row rowScanner) (*models.Song, error) {
	var (
		song      models.Song
		duration  sql.NullInt64
		createdAt sql.NullTime
	)

	err := row.Scan(
		&song.ID,
		&song.Title,
		&song.Artist,
		&song.Genre,
		&song.Description,
		&duration,
		&song.UploadedByName,
		&song.FileURL,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}

	song.Duration = intPtr(duration)
	if createdAt.Valid {
		song.CreatedAt = createdAt.Time
	}
	return &song, nil
}
