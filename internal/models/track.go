package models

import (
	"fmt"
	"path"
	"slices"
	"strings"
	"time"
)

// Genres accepted by the song endpoints.
var Genres = []string{
	"rock", "pop", "jazz", "classical", "electronic", "hip_hop",
	"country", "blues", "reggae", "folk", "other",
}

// AudioExtensions lists the upload formats the backend accepts.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg"}

// ValidGenre reports whether g is one of [Genres].
func ValidGenre(g string) bool {
	return slices.Contains(Genres, g)
}

// ValidAudioFile reports whether the filename has an accepted audio extension.
func ValidAudioFile(name string) bool {
	return slices.Contains(AudioExtensions, strings.ToLower(path.Ext(name)))
}

// Track is the unit the player works with.
//
// AudioURL may be empty, in which case the track cannot be rendered. DurationSeconds is nil when unknown.
type Track struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds *int   `json:"duration,omitempty"`
	AudioURL        string `json:"file_url,omitempty"`
}

// Playable reports whether the track has an audio source.
func (t Track) Playable() bool {
	return t.AudioURL != ""
}

// DurationString formats the duration as m:ss, or "--:--" when unknown.
func (t Track) DurationString() string {
	return FormatDuration(t.DurationSeconds)
}

func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Title, t.Artist)
}

// FormatDuration formats seconds as m:ss.
func FormatDuration(seconds *int) string {
	if seconds == nil || *seconds < 0 {
		return "--:--"
	}
	return fmt.Sprintf("%d:%02d", *seconds/60, *seconds%60)
}

// Song is a catalog entry as returned by the song endpoints.
type Song struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Artist         string    `json:"artist"`
	Genre          string    `json:"genre"`
	Description    string    `json:"description,omitempty"`
	Duration       *int      `json:"duration,omitempty"`
	FileSize       *int64    `json:"file_size,omitempty"`
	UploadedByName string    `json:"uploaded_by_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at,omitzero"`
	FileURL        string    `json:"file_url,omitempty"`
	Filename       string    `json:"filename,omitempty"`
}

// Track converts the catalog entry into a playable [Track].
func (s Song) Track() Track {
	return Track{
		ID:              s.ID,
		Title:           s.Title,
		Artist:          s.Artist,
		DurationSeconds: s.Duration,
		AudioURL:        s.FileURL,
	}
}

// Tracks converts a slice of songs, preserving order.
func Tracks(songs []Song) []Track {
	tracks := make([]Track, 0, len(songs))
	for _, s := range songs {
		tracks = append(tracks, s.Track())
	}
	return tracks
}

// SongUpload describes a new song. AudioPath points at the local file sent as the multipart audio_file field.
type SongUpload struct {
	Title       string
	Artist      string
	Genre       string
	Description string
	AudioPath   string
}

// Validate checks required fields, the genre and the audio file extension.
func (u SongUpload) Validate() error {
	if strings.TrimSpace(u.Title) == "" || strings.TrimSpace(u.Artist) == "" {
		return fmt.Errorf("title and artist are required")
	}
	if !ValidGenre(u.Genre) {
		return fmt.Errorf("unknown genre %q", u.Genre)
	}
	if u.AudioPath == "" {
		return fmt.Errorf("audio file is required")
	}
	if !ValidAudioFile(u.AudioPath) {
		return fmt.Errorf("unsupported audio format %q (want one of %s)", path.Ext(u.AudioPath), strings.Join(AudioExtensions, ", "))
	}
	return nil
}

// SongPatch holds the fields of a partial song update. Nil fields are left unchanged.
type SongPatch struct {
	Title       *string `json:"title,omitempty"`
	Artist      *string `json:"artist,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SongPatch) Empty() bool {
	return p.Title == nil && p.Artist == nil && p.Genre == nil && p.Description == nil
}
