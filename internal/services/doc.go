// Package services defines the [Service] interface for library providers and implements it for Spotify.
//
// # Service Interface
//
// The interface splits into a read side (profile, liked songs, playlists,
// playlist tracks) feeding snapshot capture and reconciliation, and a write
// side (playlist add/remove, save/remove liked tracks) consumed by the
// applier. Write methods take exactly one batch; chunking is the caller's job.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 authorization-code flow for authentication.
// The [oauth2.Config] client refreshes expired tokens automatically using the
// refresh token. All requests pass through a [rate.Limiter] so long captures
// stay under the API quota without caller-side pacing.
//
// # Error Handling
//
// Responses are mapped to typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : 401, reauthorization needed
//   - [shared.ErrTrackNotFound] : mutation payload references an ID no longer in the catalog
//   - [shared.ErrPlaylistNotFound] : playlist ID not found
//   - [shared.ErrRateLimited] : 429 from the API
//   - [shared.ErrAPIRequest] : any other HTTP failure
//
// Callers dispatch with errors.Is; the applier uses this to skip dead
// identifiers instead of aborting a restore.
package services
