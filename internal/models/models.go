// package models defines the snapshot data model for the library backup service
package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/spotsnap/internal/shared"
)

// TrackKind distinguishes regular tracks from podcast episodes in playlists.
type TrackKind string

const (
	KindTrack   TrackKind = "track"
	KindEpisode TrackKind = "episode"
)

// User is a Spotify user as captured in a snapshot.
type User struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	NumFollowers *int   `json:"numFollowers,omitempty"`
}

// Track is a single entry in a playlist or the liked-songs collection.
//
// Identity for reconciliation is the ID alone; everything else is display
// metadata. AddedAt records when the entry was added on the provider side and
// is never re-submitted for entries that survive a restore untouched.
type Track struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Artists []string  `json:"artists"`
	AddedAt string    `json:"addedAt,omitempty"`
	Kind    TrackKind `json:"type"`
}

// URI returns the Spotify URI for the track, respecting its kind.
func (t Track) URI() string {
	kind := t.Kind
	if kind == "" {
		kind = KindTrack
	}
	return fmt.Sprintf("spotify:%s:%s", kind, t.ID)
}

// Playlist is an owned playlist as captured in a snapshot.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Tracks      []Track `json:"tracks"`
}

// FollowedPlaylist is a playlist the user follows but does not own.
// Captured for reference only; restores never mutate followed playlists.
type FollowedPlaylist struct {
	Playlist
	Owner User `json:"owner"`
}

// Snapshot is an immutable point-in-time capture of a user's library.
type Snapshot struct {
	User              User               `json:"user"`
	LikedSongs        []Track            `json:"likedSongs"`
	OwnedPlaylists    []Playlist         `json:"ownedPlaylists"`
	FollowedPlaylists []FollowedPlaylist `json:"followedPlaylists"`
}

// Validate checks the snapshot against the fixed schema.
//
// A snapshot that fails validation must never reach the applier, so this is
// called before any mutation is attempted.
func (s *Snapshot) Validate() error {
	if s.User.ID == "" {
		return fmt.Errorf("%w: missing user id", shared.ErrInvalidSnapshot)
	}

	for i, track := range s.LikedSongs {
		if err := track.Validate(); err != nil {
			return fmt.Errorf("%w: likedSongs[%d]: %v", shared.ErrInvalidSnapshot, i, err)
		}
	}

	for i, playlist := range s.OwnedPlaylists {
		if err := playlist.Validate(); err != nil {
			return fmt.Errorf("%w: ownedPlaylists[%d]: %v", shared.ErrInvalidSnapshot, i, err)
		}
	}

	for i, playlist := range s.FollowedPlaylists {
		if err := playlist.Validate(); err != nil {
			return fmt.Errorf("%w: followedPlaylists[%d]: %v", shared.ErrInvalidSnapshot, i, err)
		}
	}

	return nil
}

// Validate checks required playlist fields and all contained tracks.
func (p *Playlist) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("missing playlist id")
	}
	if p.Name == "" {
		return fmt.Errorf("playlist %s: missing name", p.ID)
	}
	for i, track := range p.Tracks {
		if err := track.Validate(); err != nil {
			return fmt.Errorf("playlist %s: tracks[%d]: %w", p.ID, i, err)
		}
	}
	return nil
}

// Validate checks required track fields.
func (t *Track) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("missing track id")
	}
	if t.Name == "" {
		return fmt.Errorf("track %s: missing name", t.ID)
	}
	switch t.Kind {
	case KindTrack, KindEpisode, "":
	default:
		return fmt.Errorf("track %s: unknown type %q", t.ID, t.Kind)
	}
	return nil
}

// FindPlaylist returns the owned playlist with the given ID, or nil.
func (s *Snapshot) FindPlaylist(id string) *Playlist {
	for i := range s.OwnedPlaylists {
		if s.OwnedPlaylists[i].ID == id {
			return &s.OwnedPlaylists[i]
		}
	}
	return nil
}

// TrackIDs extracts identifiers from a track list, preserving order and duplicates.
func TrackIDs(tracks []Track) []string {
	ids := make([]string, len(tracks))
	for i, track := range tracks {
		ids[i] = track.ID
	}
	return ids
}

// IndexTracks builds an ID → Track lookup. The first occurrence wins so
// duplicate playlist entries collapse to a single logical presence.
func IndexTracks(tracks []Track) map[string]Track {
	index := make(map[string]Track, len(tracks))
	for _, track := range tracks {
		if _, ok := index[track.ID]; !ok {
			index[track.ID] = track
		}
	}
	return index
}

// PlaylistInfo is playlist metadata as returned by the live service, without tracks.
type PlaylistInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       User   `json:"owner"`
	TrackCount  int    `json:"trackCount"`
	Public      bool   `json:"public"`
}

// SnapshotRecord is a row in the snapshot capture history.
type SnapshotRecord struct {
	ID            string    `json:"id"`
	Path          string    `json:"path"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	LikedCount    int       `json:"likedCount"`
	OwnedCount    int       `json:"ownedCount"`
	FollowedCount int       `json:"followedCount"`
	Compressed    bool      `json:"compressed"`
	CreatedAt     time.Time `json:"createdAt"`
}

// RestoreRunRecord is a row in the restore run log.
type RestoreRunRecord struct {
	ID               string    `json:"id"`
	SnapshotPath     string    `json:"snapshotPath"`
	Mode             string    `json:"mode"`
	DryRun           bool      `json:"dryRun"`
	PlaylistsChanged int       `json:"playlistsChanged"`
	TracksAdded      int       `json:"tracksAdded"`
	TracksRemoved    int       `json:"tracksRemoved"`
	TracksSkipped    int       `json:"tracksSkipped"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
