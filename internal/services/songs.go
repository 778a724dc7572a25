package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// SongQuery filters the song list.
type SongQuery struct {
	ListQuery
	Search string
	Genre  string
	Artist string
}

// ListSongs fetches one page of songs.
func (s *LibraryService) ListSongs(ctx context.Context, q SongQuery) (*models.Page[models.Song], error) {
	return getPage[models.Song](ctx, s.api, "songs/", q.values())
}

// AllSongs fetches every page of songs matching q. onPage may be nil.
func (s *LibraryService) AllSongs(ctx context.Context, q SongQuery, onPage func(page, total int)) ([]models.Song, error) {
	q.Page = 0
	return collect[models.Song](ctx, s.api, "songs/", q.values(), onPage)
}

func (q SongQuery) values() url.Values {
	v := q.ListQuery.values()
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Genre != "" {
		v.Set("genre", q.Genre)
	}
	if q.Artist != "" {
		v.Set("artist", q.Artist)
	}
	return v
}

// GetSong fetches a song by ID. A 404 wraps [shared.ErrSongNotFound].
func (s *LibraryService) GetSong(ctx context.Context, id int64) (*models.Song, error) {
	var song models.Song
	if err := s.api.DoJSON(ctx, http.MethodGet, idPath("songs/", id, ""), nil, nil, &song); err != nil {
		return nil, notFound(err, shared.ErrSongNotFound)
	}
	return &song, nil
}

// CreateSong uploads an audio file with its metadata as multipart form data.
func (s *LibraryService) CreateSong(ctx context.Context, up models.SongUpload) (*models.Song, error) {
	if err := up.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}

	body, contentType, err := songForm(up)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.Do(ctx, http.MethodPost, "songs/", body, contentType)
	if err != nil {
		return nil, err
	}

	var song models.Song
	if err := decodeResponse(http.MethodPost, "songs/", resp, &song); err != nil {
		if shared.IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		return nil, err
	}
	return &song, nil
}

func songForm(up models.SongUpload) ([]byte, string, error) {
	f, err := os.Open(up.AudioPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"title", up.Title},
		{"artist", up.Artist},
		{"genre", up.Genre},
		{"description", up.Description},
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", kv[0], err)
		}
	}

	part, err := w.CreateFormFile("audio_file", filepath.Base(up.AudioPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read audio file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// UpdateSong applies a partial update.
func (s *LibraryService) UpdateSong(ctx context.Context, id int64, patch models.SongPatch) (*models.Song, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", shared.ErrInvalidInput)
	}
	if patch.Genre != nil && !models.ValidGenre(*patch.Genre) {
		return nil, fmt.Errorf("%w: unknown genre %q", shared.ErrValidation, *patch.Genre)
	}

	var song models.Song
	if err := s.api.DoJSON(ctx, http.MethodPatch, idPath("songs/", id, ""), nil, patch, &song); err != nil {
		return nil, notFound(err, shared.ErrSongNotFound)
	}
	return &song, nil
}

// DeleteSong removes a song.
func (s *LibraryService) DeleteSong(ctx context.Context, id int64) error {
	err := s.api.DoJSON(ctx, http.MethodDelete, idPath("songs/", id, ""), nil, nil, nil)
	return notFound(err, shared.ErrSongNotFound)
}

// notFound wraps sentinel around err when err is a 404.
func notFound(err, sentinel error) error {
	if err == nil {
		return nil
	}
	if shared.IsStatus(err, http.StatusNotFound) && !errors.Is(err, sentinel) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}
