// Package services implements the backend REST API client.
//
// # Layers
//
// [APIService] is the raw client: it joins paths onto the base URL, sends JSON or multipart bodies and turns
// non-2xx responses into a [*shared.RequestError] carrying the backend's detail message and field errors.
// Request bodies are always held in memory so a request can be replayed after a token refresh.
//
// [AuthService] wraps the auth endpoints (login, register, logout, refresh) and satisfies session.AuthAPI.
// It must be built on a client without the retry-on-401 policy.
//
// [LibraryService] covers everything else: songs, playlists, play logs, notifications, the dashboard
// and the user's profile. Its client is built with transport.NewClient so bearer credentials and the
// retry-once policy apply to every call.
//
// # Pagination
//
// List endpoints return [models.Page]. The List* methods fetch a single page; the All* methods follow
// next links until the last page.
//
// # Error Handling
//
// Errors wrap sentinels from the shared package:
//   - [shared.ErrAuthFailed] : login rejected
//   - [shared.ErrRefreshFailed] : refresh token rejected
//   - [shared.ErrValidation] : the backend (or a local check) rejected the input
//   - [shared.ErrSongNotFound], [shared.ErrPlaylistNotFound] : 404 on a detail endpoint
//   - [shared.ErrAPIRequest] : any other failed request
//
// Use [shared.IsStatus] to inspect the status code.
package services
