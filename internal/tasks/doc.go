// Package tasks runs long catalog operations with real-time progress reporting.
//
// # Core Operations
//
//  1. [SyncEngine.Sync] : Refresh the local cache
//     - Fetches every page of songs and caches them
//     - Fetches every page of playlists and caches the summaries
//     - Fetches each playlist's detail through a rate-limited worker pool and caches its membership
//     - Delivers plays that were queued while the backend was unreachable
//
//  2. [SyncEngine.BulkExport] : Export many playlists at once
//     - Fetches each playlist concurrently, writes it with the formatter package
//     - Writes a manifest recording per-playlist success or failure
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Implementation
//
// [SyncEngine] depends on small interfaces rather than concrete types:
//   - [Library] : services.LibraryService
//   - [Cache] : repositories.CacheAdapter
//   - [PlayQueue] : repositories.PendingPlayRepository
package tasks
