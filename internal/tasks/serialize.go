package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
	"github.com/desertthunder/spotsnap/internal/snapshot"
)

// Snapshot captures the authenticated user's library into a snapshot
// document: profile, liked songs, and every playlist with full track lists.
// Playlists owned by the user and playlists merely followed are recorded
// separately; followed playlists carry their owner so restores can tell the
// two apart.
//
// The returned snapshot is validated before it is handed back, so a capture
// that raced a library edit into an inconsistent state fails here rather
// than at restore time.
func (e *LibraryEngine) Snapshot(ctx context.Context, progress chan<- ProgressUpdate) (*models.Snapshot, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchUserUpdate())
	user, err := e.service.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	e.sendProgress(progress, fetchLikedUpdate(0))
	liked, err := e.service.GetLikedSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch liked songs: %w", err)
	}
	e.sendProgress(progress, fetchLikedUpdate(len(liked)))

	e.sendProgress(progress, fetchPlaylistsUpdate(0))
	infos, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}
	e.sendProgress(progress, fetchPlaylistsUpdate(len(infos)))

	snap := &models.Snapshot{
		User:       *user,
		LikedSongs: liked,
	}

	for i, info := range infos {
		e.sendProgress(progress, fetchPlaylistTracksUpdate(i+1, len(infos), info.Name))

		tracks, err := e.service.GetPlaylistTracks(ctx, info.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist %s: %w", info.ID, err)
		}

		playlist := models.Playlist{
			ID:          info.ID,
			Name:        info.Name,
			Description: info.Description,
			Tracks:      tracks,
		}

		if info.Owner.ID == user.ID {
			snap.OwnedPlaylists = append(snap.OwnedPlaylists, playlist)
		} else {
			snap.FollowedPlaylists = append(snap.FollowedPlaylists, models.FollowedPlaylist{
				Playlist: playlist,
				Owner:    info.Owner,
			})
		}
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	return snap, nil
}

// Capture snapshots the live library and persists it through the engine's
// store in one step.
func (e *LibraryEngine) Capture(ctx context.Context, progress chan<- ProgressUpdate) (*models.Snapshot, *snapshot.WriteResult, error) {
	if e.store == nil {
		return nil, nil, fmt.Errorf("%w: snapshot store not configured", shared.ErrServiceUnavailable)
	}

	snap, err := e.Snapshot(ctx, progress)
	if err != nil {
		return nil, nil, err
	}

	written, err := e.store.Write(snap)
	if err != nil {
		return nil, nil, err
	}

	e.sendProgress(progress, writeSnapshotUpdate(written.Path))
	return snap, written, nil
}
