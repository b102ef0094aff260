package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
	tu "github.com/desertthunder/spotsnap/internal/testing"
	"golang.org/x/oauth2"
)

func newTestService(t *testing.T) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// sequencedRoundTripper returns canned responses in order and records requests.
type sequencedRoundTripper struct {
	responses []*http.Response
	requests  []*http.Request
	bodies    []string
}

func (s *sequencedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	if req.Body != nil {
		raw, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(raw))
	} else {
		s.bodies = append(s.bodies, "")
	}
	if len(s.responses) == 0 {
		return jsonResponse(http.StatusOK, `{}`), nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func authedService(t *testing.T, transport http.RoundTripper) *SpotifyService {
	t.Helper()

	srv := newTestService(t)
	srv.token = &oauth2.Token{AccessToken: "test_token"}
	srv.httpClient = &http.Client{Transport: transport}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("with valid credentials", func(t *testing.T) {
			srv := newTestService(t)

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("missing client_id", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{
				"client_secret": "test_client_secret",
			})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("missing client_secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{
				"client_id": "test_client_id",
			})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("default redirect URI", func(t *testing.T) {
			srv := newTestService(t)

			if srv.config.RedirectURL != "http://localhost:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("GetAuthURL", func(t *testing.T) {
		srv := newTestService(t)

		authURL := srv.GetAuthURL("test_state")
		if authURL == "" {
			t.Fatal("expected auth URL to be generated")
		}

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("with access token", func(t *testing.T) {
			srv := newTestService(t)

			err := srv.Authenticate(context.Background(), map[string]string{
				"access_token": "test_access_token",
			})
			if err != nil {
				t.Fatalf("expected no error with access token, got %v", err)
			}

			if srv.token == nil {
				t.Fatal("expected token to be set")
			}
			if srv.token.AccessToken != "test_access_token" {
				t.Errorf("expected access token 'test_access_token', got %s", srv.token.AccessToken)
			}
		})

		t.Run("missing credentials", func(t *testing.T) {
			srv := newTestService(t)

			err := srv.Authenticate(context.Background(), map[string]string{})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("OAuthenticate", func(t *testing.T) {
		t.Run("rejects empty token", func(t *testing.T) {
			srv := newTestService(t)

			if err := srv.OAuthenticate(context.Background(), nil); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for nil token, got %v", err)
			}
			if err := srv.OAuthenticate(context.Background(), &oauth2.Token{}); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials for empty token, got %v", err)
			}
		})

		t.Run("installs token", func(t *testing.T) {
			srv := newTestService(t)

			token := &oauth2.Token{AccessToken: "installed"}
			if err := srv.OAuthenticate(context.Background(), token); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if srv.token != token {
				t.Error("expected token to be installed")
			}
		})
	})

	t.Run("doRequest", func(t *testing.T) {
		t.Run("requires authentication", func(t *testing.T) {
			srv := newTestService(t)

			_, err := srv.UserProfile(context.Background())
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})

		t.Run("maps 401 to token expired", func(t *testing.T) {
			resp := jsonResponse(http.StatusUnauthorized, `{"error":{"status":401,"message":"The access token expired"}}`)
			srv := authedService(t, tu.NewMockRoundTripper(resp, nil))

			_, err := srv.UserProfile(context.Background())
			if !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
			if !strings.Contains(err.Error(), "The access token expired") {
				t.Errorf("expected API message in error, got %v", err)
			}
		})

		t.Run("maps 400 to track not found", func(t *testing.T) {
			resp := jsonResponse(http.StatusBadRequest, `{"error":{"status":400,"message":"Invalid track uri"}}`)
			srv := authedService(t, tu.NewMockRoundTripper(resp, nil))

			err := srv.SaveTracks(context.Background(), []string{"gone"})
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})

		t.Run("maps 429 to rate limited", func(t *testing.T) {
			resp := jsonResponse(http.StatusTooManyRequests, `{"error":{"status":429,"message":"rate limit exceeded"}}`)
			srv := authedService(t, tu.NewMockRoundTripper(resp, nil))

			_, err := srv.UserProfile(context.Background())
			if !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected ErrRateLimited, got %v", err)
			}
		})

		t.Run("propagates transport errors", func(t *testing.T) {
			srv := authedService(t, tu.NewMockRoundTripper(nil, errors.New("connection refused")))

			_, err := srv.UserProfile(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("PlaylistItems", func(t *testing.T) {
		t.Run("maps 404 to playlist not found", func(t *testing.T) {
			resp := jsonResponse(http.StatusNotFound, `{"error":{"status":404,"message":"Not found"}}`)
			srv := authedService(t, tu.NewMockRoundTripper(resp, nil))

			_, err := srv.PlaylistItems(context.Background(), "missing", 100, 0)
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})
	})

	t.Run("GetLikedSongs", func(t *testing.T) {
		t.Run("follows pagination and skips empty IDs", func(t *testing.T) {
			page1 := `{
				"items": [
					{"added_at": "2024-01-01T00:00:00Z", "track": {"id": "t1", "name": "One", "artists": [{"name": "Artist A"}], "type": "track"}},
					{"added_at": "2024-01-02T00:00:00Z", "track": {"id": "", "name": "Local File"}}
				],
				"total": 3, "limit": 50, "offset": 0, "next": "https://api.spotify.com/v1/me/tracks?offset=50"
			}`
			page2 := `{
				"items": [
					{"added_at": "2024-01-03T00:00:00Z", "track": {"id": "e1", "name": "Episode", "type": "episode"}}
				],
				"total": 3, "limit": 50, "offset": 50, "next": null
			}`

			transport := &sequencedRoundTripper{responses: []*http.Response{
				jsonResponse(http.StatusOK, page1),
				jsonResponse(http.StatusOK, page2),
			}}
			srv := authedService(t, transport)

			tracks, err := srv.GetLikedSongs(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(tracks) != 2 {
				t.Fatalf("expected 2 tracks, got %d", len(tracks))
			}
			if tracks[0].ID != "t1" || tracks[0].AddedAt != "2024-01-01T00:00:00Z" {
				t.Errorf("unexpected first track: %+v", tracks[0])
			}
			if tracks[0].Artists[0] != "Artist A" {
				t.Errorf("expected artist name carried over, got %v", tracks[0].Artists)
			}
			if tracks[1].URI() != "spotify:episode:e1" {
				t.Errorf("expected episode URI, got %s", tracks[1].URI())
			}
			if len(transport.requests) != 2 {
				t.Errorf("expected 2 requests, got %d", len(transport.requests))
			}
		})
	})

	t.Run("AddPlaylistTracks", func(t *testing.T) {
		t.Run("no-op on empty batch", func(t *testing.T) {
			transport := &sequencedRoundTripper{}
			srv := authedService(t, transport)

			if err := srv.AddPlaylistTracks(context.Background(), "pl1", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(transport.requests) != 0 {
				t.Errorf("expected no requests, got %d", len(transport.requests))
			}
		})

		t.Run("rejects oversized batch", func(t *testing.T) {
			srv := authedService(t, &sequencedRoundTripper{})

			tracks := make([]models.Track, PlaylistBatchLimit+1)
			for i := range tracks {
				tracks[i] = models.Track{ID: "t", Kind: models.KindTrack}
			}

			err := srv.AddPlaylistTracks(context.Background(), "pl1", tracks)
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("posts track URIs", func(t *testing.T) {
			transport := &sequencedRoundTripper{responses: []*http.Response{
				jsonResponse(http.StatusCreated, `{"snapshot_id":"abc"}`),
			}}
			srv := authedService(t, transport)

			tracks := []models.Track{
				{ID: "t1", Kind: models.KindTrack},
				{ID: "e1", Kind: models.KindEpisode},
			}
			if err := srv.AddPlaylistTracks(context.Background(), "pl1", tracks); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			req := transport.requests[0]
			if req.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", req.Method)
			}
			if !strings.Contains(req.URL.Path, "/playlists/pl1/tracks") {
				t.Errorf("unexpected path %s", req.URL.Path)
			}

			var payload struct {
				URIs []string `json:"uris"`
			}
			if err := json.NewDecoder(bytes.NewReader([]byte(transport.bodies[0]))).Decode(&payload); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			want := []string{"spotify:track:t1", "spotify:episode:e1"}
			for i, uri := range want {
				if payload.URIs[i] != uri {
					t.Errorf("expected URI %s, got %s", uri, payload.URIs[i])
				}
			}
		})
	})

	t.Run("RemoveSavedTracks", func(t *testing.T) {
		t.Run("rejects oversized batch", func(t *testing.T) {
			srv := authedService(t, &sequencedRoundTripper{})

			ids := make([]string, SavedBatchLimit+1)
			for i := range ids {
				ids[i] = "t"
			}

			err := srv.RemoveSavedTracks(context.Background(), ids)
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("sends DELETE with IDs", func(t *testing.T) {
			transport := &sequencedRoundTripper{responses: []*http.Response{
				jsonResponse(http.StatusOK, `{}`),
			}}
			srv := authedService(t, transport)

			if err := srv.RemoveSavedTracks(context.Background(), []string{"t1", "t2"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			req := transport.requests[0]
			if req.Method != http.MethodDelete {
				t.Errorf("expected DELETE, got %s", req.Method)
			}
			if !strings.Contains(transport.bodies[0], `"t1"`) {
				t.Errorf("expected IDs in body, got %s", transport.bodies[0])
			}
		})
	})

	t.Run("LookupResource", func(t *testing.T) {
		t.Run("falls through to playlist", func(t *testing.T) {
			transport := &sequencedRoundTripper{responses: []*http.Response{
				jsonResponse(http.StatusNotFound, `{"error":{"status":404,"message":"Not found"}}`),
				jsonResponse(http.StatusOK, `{"id":"pl1","name":"Mix","owner":{"id":"u1","display_name":"User"},"tracks":{"total":12}}`),
			}}
			srv := authedService(t, transport)

			resource, err := srv.LookupResource(context.Background(), "pl1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resource.Kind != "playlist" {
				t.Errorf("expected kind playlist, got %s", resource.Kind)
			}
			if !strings.Contains(resource.Detail, "12 tracks") {
				t.Errorf("expected track count in detail, got %s", resource.Detail)
			}
		})

		t.Run("reports unknown IDs", func(t *testing.T) {
			notFound := func() *http.Response {
				return jsonResponse(http.StatusNotFound, `{"error":{"status":404,"message":"Not found"}}`)
			}
			transport := &sequencedRoundTripper{responses: []*http.Response{
				notFound(), notFound(), notFound(), notFound(), notFound(),
			}}
			srv := authedService(t, transport)

			_, err := srv.LookupResource(context.Background(), "nope")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("service interface", func(t *testing.T) {
		var _ OAuthService = newTestService(t)
	})
}
