package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
	th "github.com/desertthunder/cadence/internal/testing"
)

func sampleExport() *models.PlaylistExport {
	one, two := 180, 240
	return models.NewPlaylistExport(models.Playlist{
		ID:            12,
		Name:          "Test Playlist",
		Description:   "A test playlist",
		CreatedByName: "ada",
		IsPublic:      true,
		SongCount:     2,
		Songs: []models.PlaylistSong{
			{Song: models.Song{ID: 2, Title: "Song Two", Artist: "Artist Two", Duration: &two}, Order: 1},
			{Song: models.Song{ID: 1, Title: "Song One", Artist: "Artist One", Genre: "jazz", Duration: &one, FileURL: "http://localhost/one.mp3"}, Order: 0},
		},
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Position,ID,Title,Artist,Genre,Duration,URL" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[1] != "1,1,Song One,Artist One,jazz,180,http://localhost/one.mp3" {
			t.Errorf("unexpected first record: %s", lines[1])
		}
		if !strings.HasPrefix(lines[2], "2,2,Song Two") {
			t.Errorf("songs should follow playlist order, got: %s", lines[2])
		}
	})

	t.Run("ExportToCSV unknown duration", func(t *testing.T) {
		export := &models.PlaylistExport{Songs: []models.Song{{ID: 3, Title: "x", Artist: "y"}}}
		data, err := ExportToCSV(export)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if !strings.Contains(string(data), "1,3,x,y,,,") {
			t.Errorf("expected empty duration column, got %s", data)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Test Playlist",
			"**Description**: A test playlist",
			"**Created by**: ada",
			"**Tracks**: 2",
			"**Visibility**: Public",
			"## Tracks",
			"1. Artist One - Song One (jazz) [3:00]",
			"2. Artist Two - Song Two [4:00]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		export := sampleExport()
		export.Playlist.Description = ""

		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Test Playlist") || !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing header, got: %s", output)
		}
		if strings.Contains(output, "Description:") {
			t.Error("empty description should be omitted")
		}
		if !strings.Contains(output, "1. Artist One - Song One\n2. Artist Two - Song Two") {
			t.Errorf("Text missing tracks, got: %s", output)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(sampleExport().Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["name"] != "Test Playlist" {
			t.Errorf("JSON missing name, got %v", decoded)
		}
		if _, ok := decoded["playlist_songs"]; ok {
			t.Error("metadata should not include songs")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded models.PlaylistExport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Playlist.ID != 12 || len(decoded.Songs) != 2 || decoded.Songs[0].Title != "Song One" {
			t.Errorf("unexpected export: %+v", decoded)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport csv", func(t *testing.T) {
		dir := t.TempDir()
		files, err := WriteExport(sampleExport(), FormatCSV, filepath.Join(dir, "mix.csv"))
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		if len(files) != 2 {
			t.Fatalf("expected 2 files, got %v", files)
		}
		th.AssertFileExists(t, filepath.Join(dir, "mix_tracks.csv"))
		th.AssertFileExists(t, filepath.Join(dir, "mix_metadata.json"))
	})

	t.Run("WriteExport markdown", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "mix")
		files, err := WriteExport(sampleExport(), FormatMarkdown, dir)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertDirExists(t, dir)
		if len(files) != 1 || !strings.Contains(th.MustReadFile(t, files[0]), "# Test Playlist") {
			t.Errorf("unexpected markdown output: %v", files)
		}
	})

	t.Run("WriteExport txt creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "mix.txt")
		if _, err := WriteExport(sampleExport(), FormatText, path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, path), "Playlist: Test Playlist") {
			t.Error("unexpected text output")
		}
	})

	t.Run("WriteExport json default path", func(t *testing.T) {
		wd := th.MustGetwd(t)
		th.MustChdir(t, t.TempDir())
		defer th.MustChdir(t, wd)

		files, err := WriteExport(sampleExport(), FormatJSON, "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if len(files) != 1 || files[0] != "playlist_12.json" {
			t.Errorf("expected default filename, got %v", files)
		}
		th.AssertFileExists(t, "playlist_12.json")
	})

	t.Run("WriteExport unknown format", func(t *testing.T) {
		_, err := WriteExport(sampleExport(), "xml", filepath.Join(t.TempDir(), "x"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "export_manifest.json")
		m := &Manifest{
			Format:    FormatJSON,
			Total:     2,
			Succeeded: 1,
			Failed:    1,
			Entries: []ManifestEntry{
				{PlaylistID: 1, Name: "ok", Files: []string{"playlist_1.json"}},
				{PlaylistID: 2, Name: "bad", Error: "boom"},
			},
		}
		if err := WriteManifest(m, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}

		var decoded Manifest
		data, _ := os.ReadFile(path)
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if decoded.Failed != 1 || decoded.Entries[1].Error != "boom" {
			t.Errorf("unexpected manifest: %+v", decoded)
		}
	})

	t.Run("write into a file path fails", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		th.MustWriteFile(t, blocker, "x")

		if _, err := WriteTextExport(sampleExport(), filepath.Join(blocker, "out.txt")); err == nil {
			t.Error("expected error writing beneath a regular file")
		}
	})
}
