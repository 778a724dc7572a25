// Package models defines the data shapes shared by the cadence client.
//
// The package contains three groups of types:
//
// 1. Session types: the authenticated user and the payloads exchanged with the auth endpoints
//   - [Profile] : the user record returned at login and by the profile endpoint
//   - [Credentials], [Registration] : login and sign-up inputs
//   - [AuthResult] : tokens plus profile returned by a successful login
//
// 2. Catalog types: backend records for songs, playlists and activity
//   - [Song], [Playlist], [PlaylistSong] : library entries
//   - [PlayLog], [Notification], [DashboardStats] : activity and reporting
//   - [Page] : a paginated list response
//
// 3. Playback types
//   - [Track] : the minimal playable unit consumed by the player
//
// The Repository[T] interface describes the local SQLite cache of catalog records.
package models
