package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/desertthunder/cadence/internal/shared"
)

func TestPage(t *testing.T) {
	t.Run("decodes paginated object", func(t *testing.T) {
		data := `{"count": 3, "next": "http://localhost:8000/api/songs/?page=2", "previous": null, "results": [{"id": 1, "title": "A"}, {"id": 2, "title": "B"}]}`

		var page Page[Song]
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if page.Count != 3 {
			t.Errorf("expected count 3, got %d", page.Count)
		}
		if !page.HasNext() {
			t.Error("expected next page")
		}
		if page.Previous != "" {
			t.Errorf("expected empty previous, got %q", page.Previous)
		}
		if len(page.Results) != 2 || page.Results[1].Title != "B" {
			t.Errorf("unexpected results: %+v", page.Results)
		}
	})

	t.Run("decodes bare array", func(t *testing.T) {
		var page Page[Notification]
		if err := json.Unmarshal([]byte(` [{"id": 7, "title": "hi"}]`), &page); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if page.Count != 1 || page.HasNext() {
			t.Errorf("expected a single unpaginated result, got %+v", page)
		}
		if page.Results[0].ID != 7 {
			t.Errorf("expected id 7, got %d", page.Results[0].ID)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		var page Page[Song]
		if err := json.Unmarshal([]byte(`{"results": "nope"}`), &page); err == nil {
			t.Error("expected error for malformed results")
		}
	})
}

func TestRegistrationValidate(t *testing.T) {
	valid := Registration{
		Username:        "ada",
		Email:           "ada@example.com",
		Password:        "secret123",
		PasswordConfirm: "secret123",
	}

	tc := []struct {
		name    string
		mutate  func(r *Registration)
		wantErr bool
	}{
		{name: "valid", mutate: func(r *Registration) {}},
		{name: "missing username", mutate: func(r *Registration) { r.Username = " " }, wantErr: true},
		{name: "missing email", mutate: func(r *Registration) { r.Email = "" }, wantErr: true},
		{name: "malformed email", mutate: func(r *Registration) { r.Email = "not-an-email" }, wantErr: true},
		{name: "password mismatch", mutate: func(r *Registration) { r.PasswordConfirm = "other" }, wantErr: true},
		{name: "unknown user type", mutate: func(r *Registration) { r.UserType = "superuser" }, wantErr: true},
		{name: "admin user type", mutate: func(r *Registration) { r.UserType = UserTypeAdmin }},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				if !errors.Is(err, shared.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestTrack(t *testing.T) {
	t.Run("Playable", func(t *testing.T) {
		if (Track{ID: 1, Title: "x"}).Playable() {
			t.Error("track without audio URL should not be playable")
		}
		if !(Track{ID: 1, AudioURL: "http://localhost/a.mp3"}).Playable() {
			t.Error("track with audio URL should be playable")
		}
	})

	t.Run("DurationString", func(t *testing.T) {
		d := 185
		if got := (Track{DurationSeconds: &d}).DurationString(); got != "3:05" {
			t.Errorf("expected 3:05, got %s", got)
		}
		if got := (Track{}).DurationString(); got != "--:--" {
			t.Errorf("expected --:--, got %s", got)
		}
	})

	t.Run("Song conversion", func(t *testing.T) {
		d := 90
		s := Song{ID: 4, Title: "Song", Artist: "Artist", Duration: &d, FileURL: "http://localhost/media/s.mp3"}
		tr := s.Track()
		if tr.ID != 4 || tr.AudioURL != s.FileURL || *tr.DurationSeconds != 90 {
			t.Errorf("unexpected track: %+v", tr)
		}
	})
}

func TestPlaylistOrderedSongs(t *testing.T) {
	p := Playlist{
		Songs: []PlaylistSong{
			{Song: Song{ID: 3, Title: "third"}, Order: 2},
			{Song: Song{ID: 1, Title: "first"}, Order: 0},
			{Song: Song{ID: 2, Title: "second"}, Order: 1},
		},
	}

	tracks := p.Tracks()
	for i, want := range []int64{1, 2, 3} {
		if tracks[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, tracks[i].ID)
		}
	}

	if p.Songs[0].Song.ID != 3 {
		t.Error("OrderedSongs should not reorder the playlist in place")
	}
}

func TestSongUploadValidate(t *testing.T) {
	tc := []struct {
		name    string
		upload  SongUpload
		wantErr bool
	}{
		{name: "valid", upload: SongUpload{Title: "t", Artist: "a", Genre: "jazz", AudioPath: "/tmp/song.MP3"}},
		{name: "bad genre", upload: SongUpload{Title: "t", Artist: "a", Genre: "polka", AudioPath: "/tmp/song.mp3"}, wantErr: true},
		{name: "bad extension", upload: SongUpload{Title: "t", Artist: "a", Genre: "rock", AudioPath: "/tmp/song.flac"}, wantErr: true},
		{name: "missing file", upload: SongUpload{Title: "t", Artist: "a", Genre: "rock"}, wantErr: true},
		{name: "missing title", upload: SongUpload{Artist: "a", Genre: "rock", AudioPath: "a.ogg"}, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.upload.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
