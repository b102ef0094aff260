// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/spotsnap/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the operations a library provider must support for
// snapshot capture and restore. The read side feeds the serializer and the
// reconciler; the write side is consumed by the applier in batches.
type Service interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*models.User, error)

	// GetPlaylists retrieves metadata for all playlists in the user's library,
	// both owned and followed.
	GetPlaylists(ctx context.Context) ([]models.PlaylistInfo, error)

	// GetPlaylistTracks retrieves the full track listing of a playlist.
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// GetLikedSongs retrieves the user's saved tracks.
	GetLikedSongs(ctx context.Context) ([]models.Track, error)

	// AddPlaylistTracks appends tracks to a playlist. One batch per call.
	AddPlaylistTracks(ctx context.Context, playlistID string, tracks []models.Track) error

	// RemovePlaylistTracks removes all occurrences of the given tracks from a playlist.
	RemovePlaylistTracks(ctx context.Context, playlistID string, tracks []models.Track) error

	// SaveTracks adds tracks to the user's liked songs. One batch per call.
	SaveTracks(ctx context.Context, trackIDs []string) error

	// RemoveSavedTracks removes tracks from the user's liked songs.
	RemoveSavedTracks(ctx context.Context, trackIDs []string) error

	// Name returns the provider name (e.g. "Spotify")
	Name() string
}

// OAuthService extends Service for providers authenticated via OAuth2
// authorization-code flow with a local callback server.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 config for the callback handler.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs an existing token, e.g. one persisted in config.toml.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
