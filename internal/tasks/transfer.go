package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
)

// TransferResult describes an additive playlist-to-playlist copy.
type TransferResult struct {
	SourceID       string
	DestID         string
	SourceTracks   int
	AlreadyPresent int
	Transferred    int
	Apply          *ApplyResult
}

// Transfer additively copies the source playlist's tracks into the
// destination. Tracks already present in the destination are left alone and
// nothing is ever removed, so re-running a transfer is safe.
func (e *LibraryEngine) Transfer(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*TransferResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if sourceID == "" || destID == "" {
		return nil, fmt.Errorf("%w: source and destination playlist IDs required", shared.ErrMissingArgument)
	}
	if sourceID == destID {
		return nil, fmt.Errorf("%w: source and destination are the same playlist", shared.ErrInvalidArgument)
	}

	e.sendProgress(progress, fetchPlaylistTracksUpdate(1, 2, sourceID))
	sourceTracks, err := e.service.GetPlaylistTracks(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}

	e.sendProgress(progress, fetchPlaylistTracksUpdate(2, 2, destID))
	destTracks, err := e.service.GetPlaylistTracks(ctx, destID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch destination playlist: %w", err)
	}

	// Only additions matter for a transfer; the destination keeps whatever
	// else it already has.
	delta := Reconcile(models.TrackIDs(sourceTracks), models.TrackIDs(destTracks))
	change := ResolveChange(delta, sourceTracks, nil)
	e.sendProgress(progress, computeDeltaUpdate(1, 1, destID, Delta{Additions: delta.Additions}))

	result := &TransferResult{
		SourceID:       sourceID,
		DestID:         destID,
		SourceTracks:   len(sourceTracks),
		AlreadyPresent: len(sourceTracks) - len(change.ToAdd),
	}

	if len(change.ToAdd) == 0 {
		return result, nil
	}

	e.sendProgress(progress, applyUpdate(ApplyAdditions, 1, 1, destID, len(change.ToAdd)))
	result.Apply = e.applier.ApplyPlaylist(ctx, destID, PlaylistChange{ToAdd: change.ToAdd})
	result.Transferred = result.Apply.Added

	return result, nil
}
