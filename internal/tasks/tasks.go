// package tasks implements long-running catalog operations: syncing the local cache and bulk exports.
//
// The core abstraction is SyncEngine, which orchestrates the backend calls and cache writes.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/shared"
	"golang.org/x/time/rate"
)

// Library is the part of the backend API the engine uses. [services.LibraryService] satisfies it.
type Library interface {
	AllSongs(ctx context.Context, q services.SongQuery, onPage func(page, total int)) ([]models.Song, error)
	AllPlaylists(ctx context.Context, q services.PlaylistQuery, onPage func(page, total int)) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error)
	LogPlay(ctx context.Context, songID int64) (*models.PlayLogReceipt, error)
}

// Cache receives fetched records. repositories.CacheAdapter satisfies it.
type Cache interface {
	CacheSongs(songs []models.Song) (int, error)
	CachePlaylist(playlist models.Playlist) error
}

// PlayQueue holds plays recorded while offline. repositories.PendingPlayRepository satisfies it.
type PlayQueue interface {
	List() ([]models.PendingPlay, error)
	Remove(id int64) error
}

// SyncOpts configures [SyncEngine.Sync].
type SyncOpts struct {
	NumWorkers  int     // Concurrent playlist detail fetches (default: 4, max: 10)
	RateLimit   float64 // Detail requests per second (default: 5)
	SkipDetails bool    // Cache playlist summaries only
}

// PlaylistFailure records a playlist whose detail could not be fetched or cached.
type PlaylistFailure struct {
	ID   int64
	Name string
	Err  error
}

// SyncResult summarizes a sync run.
type SyncResult struct {
	Songs         int               // Songs cached
	Playlists     int               // Playlist summaries cached
	Details       int               // Playlist details (with membership) cached
	PlaysFlushed  int               // Offline plays delivered
	PlaysRemained int               // Offline plays still queued
	Failures      []PlaylistFailure // Partial failures; the sync still succeeds
}

// SyncEngine runs cache syncs and bulk exports against the backend.
type SyncEngine struct {
	library Library
	cache   Cache
	plays   PlayQueue
	logger  *log.Logger
}

// NewSyncEngine creates a new SyncEngine. cache and plays may be nil for exports only.
func NewSyncEngine(library Library, cache Cache, plays PlayQueue, logger *log.Logger) *SyncEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SyncEngine{
		library: library,
		cache:   cache,
		plays:   plays,
		logger:  shared.WithLogger(logger, "component", "sync"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SyncEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Sync refreshes the local cache: every song, then every playlist summary, then each playlist's
// detail through a rate-limited worker pool, then any plays queued while offline.
//
// Failing to fetch or cache songs or the playlist list is fatal. Individual playlist details that
// fail are recorded in [SyncResult.Failures].
func (e *SyncEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOpts) (*SyncResult, error) {
	if e.library == nil || e.cache == nil {
		return nil, fmt.Errorf("%w: sync needs a library client and a cache", shared.ErrMissingConfig)
	}
	opts = opts.withDefaults()
	result := &SyncResult{}

	songs, err := e.library.AllSongs(ctx, services.SongQuery{}, func(page, total int) {
		e.sendProgress(progress, pageUpdate(FetchSongs, "songs", page, total))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch songs: %w", err)
	}

	e.sendProgress(progress, cacheSongsUpdate(len(songs)))
	if result.Songs, err = e.cache.CacheSongs(songs); err != nil {
		return result, err
	}

	playlists, err := e.library.AllPlaylists(ctx, services.PlaylistQuery{}, func(page, total int) {
		e.sendProgress(progress, pageUpdate(FetchPlaylists, "playlists", page, total))
	})
	if err != nil {
		return result, fmt.Errorf("failed to fetch playlists: %w", err)
	}

	for _, p := range playlists {
		p.Songs = nil
		if err := e.cache.CachePlaylist(p); err != nil {
			return result, err
		}
		result.Playlists++
	}

	if !opts.SkipDetails {
		e.syncDetails(ctx, progress, playlists, opts, result)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.flushPlays(ctx, progress, result)

	e.logger.Info("sync finished",
		"songs", result.Songs,
		"playlists", result.Playlists,
		"details", result.Details,
		"failures", len(result.Failures),
		"plays_flushed", result.PlaysFlushed,
	)
	return result, nil
}

func (e *SyncEngine) syncDetails(ctx context.Context, progress chan<- ProgressUpdate, playlists []models.Playlist, opts SyncOpts, result *SyncResult) {
	type outcome struct {
		playlist models.Playlist
		err      error
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	total := len(playlists)
	completed := 0

	fanOut(ctx, opts.NumWorkers, limiter, playlists,
		func(ctx context.Context, p models.Playlist) outcome {
			detail, err := e.library.GetPlaylist(ctx, p.ID)
			if err != nil {
				return outcome{playlist: p, err: err}
			}
			return outcome{playlist: *detail, err: e.cache.CachePlaylist(*detail)}
		},
		func(o outcome) {
			completed++
			e.sendProgress(progress, detailUpdate(completed, total, o.playlist.Name, o.err))
			if o.err != nil {
				e.logger.Warn("playlist detail failed", "playlist", o.playlist.ID, "error", o.err)
				result.Failures = append(result.Failures, PlaylistFailure{ID: o.playlist.ID, Name: o.playlist.Name, Err: o.err})
				return
			}
			result.Details++
		},
	)
}

// flushPlays delivers queued plays oldest first and stops at the first failure.
func (e *SyncEngine) flushPlays(ctx context.Context, progress chan<- ProgressUpdate, result *SyncResult) {
	if e.plays == nil {
		return
	}

	pending, err := e.plays.List()
	if err != nil {
		e.logger.Warn("could not read offline plays", "error", err)
		return
	}

	for i, play := range pending {
		e.sendProgress(progress, flushUpdate(i+1, len(pending)))

		if _, err := e.library.LogPlay(ctx, play.SongID); err != nil {
			e.logger.Warn("offline play not delivered", "song", play.SongID, "error", err)
			result.PlaysRemained = len(pending) - i
			return
		}
		if err := e.plays.Remove(play.ID); err != nil {
			e.logger.Error("delivered play could not be dequeued", "id", play.ID, "error", err)
		}
		result.PlaysFlushed++
	}
}

func (o SyncOpts) withDefaults() SyncOpts {
	if o.NumWorkers <= 0 {
		o.NumWorkers = 4
	}
	if o.NumWorkers > 10 {
		o.NumWorkers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5
	}
	return o
}

// fanOut runs work for each job on a pool of workers, each job waiting on limiter first.
// collect is called from the calling goroutine, one result at a time, in completion order.
// Jobs not yet started when ctx ends are skipped.
func fanOut[J, R any](ctx context.Context, workers int, limiter *rate.Limiter, jobs []J, work func(context.Context, J) R, collect func(R)) {
	queue := make(chan J)
	results := make(chan R, len(jobs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				results <- work(ctx, job)
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, job := range jobs {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			select {
			case queue <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		collect(r)
	}
}
