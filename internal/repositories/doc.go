// Package repositories implements the SQLite catalog cache.
//
// Songs and playlists fetched from the backend are written here so the CLI can list them offline
// and the player can fall back to them when the backend is unreachable. Records keep the backend's
// integer IDs; an upsert of a record that was soft-deleted brings it back.
//
// Key Implementations:
//   - [SongRepository] : cached songs, filterable by artist, genre and a title/artist search
//   - [PlaylistRepository] : cached playlists; membership rows are replaced whenever a playlist detail is cached
//   - [PendingPlayRepository] : plays recorded offline, flushed by the next sync
//   - [CacheAdapter] : bulk caching used by the sync engine and the player
//
// Deletes are soft: deleted_at is set and queries exclude the row.
package repositories
