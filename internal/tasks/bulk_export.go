package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: playlist_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
}

// BulkExport exports playlists concurrently with rate limiting and progress tracking.
//
// An empty ids exports every playlist visible to the user. Each playlist is fetched, rendered and written
// independently; failures are recorded in the manifest, which is written to {OutputDir}/export_manifest.json.
func (e *SyncEngine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []int64, opts BulkExportOpts) (*formatter.Manifest, string, error) {
	if e.library == nil {
		return nil, "", fmt.Errorf("%w: export needs a library client", shared.ErrMissingConfig)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !slices.Contains(formatter.Formats, opts.Format) {
		return nil, "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("playlist_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if len(ids) == 0 {
		playlists, err := e.library.AllPlaylists(ctx, services.PlaylistQuery{}, nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list playlists: %w", err)
		}
		for _, p := range playlists {
			ids = append(ids, p.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create output directory: %w", err)
	}

	manifest := &formatter.Manifest{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		CreatedAt:       time.Now().UTC(),
		Total:           len(ids),
		Entries:         make([]formatter.ManifestEntry, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	completed := 0

	fanOut(ctx, opts.NumWorkers, limiter, ids,
		func(ctx context.Context, id int64) formatter.ManifestEntry {
			return e.exportSinglePlaylist(ctx, prog, id, len(ids), opts)
		},
		func(entry formatter.ManifestEntry) {
			completed++
			manifest.Entries = append(manifest.Entries, entry)
			if entry.Error == "" {
				manifest.Succeeded++
				e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), entry.Name, len(entry.Files)))
				return
			}
			manifest.Failed++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), entry.Name, fmt.Errorf("%s", entry.Error)))
		},
	)

	slices.SortFunc(manifest.Entries, func(a, b formatter.ManifestEntry) int {
		return slices.Index(ids, a.PlaylistID) - slices.Index(ids, b.PlaylistID)
	})

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return manifest, "", fmt.Errorf("export completed but failed to write manifest: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return manifest, manifestPath, err
	}
	return manifest, manifestPath, nil
}

// exportSinglePlaylist fetches one playlist and writes it in the requested format.
func (e *SyncEngine) exportSinglePlaylist(ctx context.Context, prog chan<- ProgressUpdate, id int64, total int, opts BulkExportOpts) formatter.ManifestEntry {
	entry := formatter.ManifestEntry{PlaylistID: id, Name: fmt.Sprintf("Unknown (%d)", id)}

	playlist, err := e.library.GetPlaylist(ctx, id)
	if err != nil {
		entry.Error = fmt.Sprintf("failed to fetch playlist: %v", err)
		return entry
	}
	entry.Name = playlist.Name
	e.sendProgress(prog, exportingPlaylistUpdate(0, total, playlist.Name))

	export := models.NewPlaylistExport(*playlist)
	target := filepath.Join(opts.OutputDir, filepath.Base(formatter.DefaultPath(export, opts.Format)))

	files, err := formatter.WriteExport(export, opts.Format, target)
	if err != nil {
		entry.Error = fmt.Sprintf("%s export failed: %v", opts.Format, err)
		return entry
	}
	entry.Files = files
	return entry
}
