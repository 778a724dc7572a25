// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the values accepted by [WriteExport].
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ExportToCSV converts a PlaylistExport to CSV format with columns: Position, ID, Title, Artist, Genre, Duration, URL
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Genre", "Duration", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range export.Songs {
		duration := ""
		if song.Duration != nil {
			duration = strconv.Itoa(*song.Duration)
		}
		record := []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(song.ID, 10),
			song.Title,
			song.Artist,
			song.Genre,
			duration,
			song.FileURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	p := export.Playlist

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}
	if p.CreatedByName != "" {
		fmt.Fprintf(&buf, "**Created by**: %s\n", p.CreatedByName)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", len(export.Songs))
	fmt.Fprintf(&buf, "**Visibility**: %s\n\n", visibility(p.IsPublic))

	buf.WriteString("## Tracks\n\n")
	for i, song := range export.Songs {
		genre := ""
		if song.Genre != "" {
			genre = fmt.Sprintf(" (%s)", song.Genre)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, song.Artist, song.Title, genre, models.FormatDuration(song.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name)
	if export.Playlist.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", export.Playlist.Description)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Songs))

	for i, song := range export.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the export as indented JSON
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without songs)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	playlist.Songs = nil
	return json.MarshalIndent(playlist, "", "  ")
}

// WriteExport renders export in format and writes it to path. It returns the files written.
//
// csv writes {base}_tracks.csv and {base}_metadata.json where base is path without its extension;
// markdown treats path as a directory and writes README.md inside it; json and txt write path itself.
func WriteExport(export *models.PlaylistExport, format, path string) ([]string, error) {
	if path == "" {
		path = DefaultPath(export, format)
	}

	switch format {
	case FormatCSV:
		res, err := WriteCSVExport(export, trimExt(path))
		if err != nil {
			return nil, err
		}
		return []string{res.TracksFile, res.MetadataFile}, nil
	case FormatMarkdown:
		res, err := WriteMarkdownExport(export, path)
		if err != nil {
			return nil, err
		}
		return res.Files, nil
	case FormatText:
		file, err := WriteTextExport(export, path)
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	case FormatJSON, "":
		data, err := ExportToJSON(export)
		if err != nil {
			return nil, err
		}
		if err := writeFile(path, data); err != nil {
			return nil, fmt.Errorf("failed to write JSON file: %w", err)
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// DefaultPath names the output for a playlist when none is given.
func DefaultPath(export *models.PlaylistExport, format string) string {
	base := fmt.Sprintf("playlist_%d", export.Playlist.ID)
	switch format {
	case FormatCSV:
		return base
	case FormatMarkdown:
		return base
	case FormatText:
		return base + "_tracks.txt"
	default:
		return base + ".json"
	}
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = DefaultPath(export, FormatCSV)
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := writeFile(tracksFile, csvData); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := writeFile(metadataFile, metadataJSON); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory: {dir}/README.md
func WriteMarkdownExport(export *models.PlaylistExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = DefaultPath(export, FormatMarkdown)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{Directory: outputDir, Files: []string{mdFile}}, nil
}

// WriteTextExport exports a playlist to plain text format.
func WriteTextExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = DefaultPath(export, FormatText)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := writeFile(path, textData); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// ManifestEntry records the outcome of exporting one playlist.
type ManifestEntry struct {
	PlaylistID int64    `json:"playlist_id"`
	Name       string   `json:"name"`
	Files      []string `json:"files,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Manifest summarizes a bulk export.
type Manifest struct {
	Format          string          `json:"format"`
	OutputDirectory string          `json:"output_directory"`
	CreatedAt       time.Time       `json:"created_at"`
	Total           int             `json:"total"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	Entries         []ManifestEntry `json:"entries"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func trimExt(path string) string {
	return path[:len(path)-len(filepath.Ext(path))]
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}
