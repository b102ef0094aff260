// package tasks implements snapshot capture and restore operations against a library service.
//
// The core abstraction is the pure Reconcile function; everything around it is
// orchestration. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/services"
	"github.com/desertthunder/spotsnap/internal/shared"
	"github.com/desertthunder/spotsnap/internal/snapshot"
)

// RestoreMode selects how much of the computed delta is applied.
type RestoreMode string

const (
	// ModeAdditive applies only additions; nothing is ever removed.
	ModeAdditive RestoreMode = "additive"
	// ModeReplace applies additions and deletions so live state converges
	// to the snapshot. Destructive; callers must confirm and a backup is
	// captured first.
	ModeReplace RestoreMode = "replace"
)

// LibraryMutator is the write side of a library service. The applier depends
// on this narrow interface rather than [services.Service] so reconciliation
// can be tested without a live network dependency.
type LibraryMutator interface {
	AddPlaylistTracks(ctx context.Context, playlistID string, tracks []models.Track) error
	RemovePlaylistTracks(ctx context.Context, playlistID string, tracks []models.Track) error
	SaveTracks(ctx context.Context, trackIDs []string) error
	RemoveSavedTracks(ctx context.Context, trackIDs []string) error
}

// LibraryReader is the read side of a library service.
type LibraryReader interface {
	CurrentUser(ctx context.Context) (*models.User, error)
	GetLikedSongs(ctx context.Context) ([]models.Track, error)
	GetPlaylists(ctx context.Context) ([]models.PlaylistInfo, error)
	GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)
}

// PlaylistChange is a Delta resolved back to full tracks: additions carry
// snapshot metadata, deletions carry live metadata.
type PlaylistChange struct {
	ToAdd    []models.Track
	ToRemove []models.Track
}

// Empty reports whether applying the change would be a no-op.
func (c PlaylistChange) Empty() bool {
	return len(c.ToAdd) == 0 && len(c.ToRemove) == 0
}

// ResolveChange maps a Delta's identifiers back to tracks using the snapshot
// side for additions and the live side for deletions.
func ResolveChange(delta Delta, snapshotTracks, liveTracks []models.Track) PlaylistChange {
	snapIndex := models.IndexTracks(snapshotTracks)
	liveIndex := models.IndexTracks(liveTracks)

	change := PlaylistChange{}
	for _, id := range delta.Additions {
		if track, ok := snapIndex[id]; ok {
			change.ToAdd = append(change.ToAdd, track)
		}
	}
	for _, id := range delta.Deletions {
		if track, ok := liveIndex[id]; ok {
			change.ToRemove = append(change.ToRemove, track)
		}
	}
	return change
}

// BatchError records a failed mutation batch. Batches are independent:
// a failure is reported and the applier moves on, with no rollback of
// batches already applied.
type BatchError struct {
	Op       string
	TrackIDs []string
	Err      error
}

func (b BatchError) Error() string {
	return fmt.Sprintf("%s batch of %d failed: %v", b.Op, len(b.TrackIDs), b.Err)
}

// ApplyResult aggregates the outcome of applying one change set.
type ApplyResult struct {
	Added   int
	Removed int
	Skipped []string // identifiers no longer in the provider's catalog
	Errors  []BatchError

	batchesOK int
}

// Err returns a single error summarizing batch failures, or nil.
func (r *ApplyResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d batches failed", shared.ErrAPIRequest, len(r.Errors), len(r.Errors)+r.batchesOK)
}

// Applier issues add/remove operations against a library service to realize
// a computed change set. No transactional guarantee exists across batches;
// users re-run reconciliation to converge after partial failures.
type Applier struct {
	mutator       LibraryMutator
	logger        *log.Logger
	playlistBatch int
	savedBatch    int
}

// NewApplier creates an Applier with provider batch limits.
func NewApplier(mutator LibraryMutator, logger *log.Logger) *Applier {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Applier{
		mutator:       mutator,
		logger:        logger,
		playlistBatch: services.PlaylistBatchLimit,
		savedBatch:    services.SavedBatchLimit,
	}
}

// ApplyPlaylist applies a change set to a live playlist. In additive mode
// callers pass a change with ToRemove already cleared.
func (a *Applier) ApplyPlaylist(ctx context.Context, playlistID string, change PlaylistChange) *ApplyResult {
	result := &ApplyResult{}

	for _, batch := range chunkTracks(change.ToAdd, a.playlistBatch) {
		if err := a.mutator.AddPlaylistTracks(ctx, playlistID, batch); err != nil {
			a.recordBatchError(result, "add", models.TrackIDs(batch), err)
			continue
		}
		result.Added += len(batch)
		result.batchesOK++
	}

	for _, batch := range chunkTracks(change.ToRemove, a.playlistBatch) {
		if err := a.mutator.RemovePlaylistTracks(ctx, playlistID, batch); err != nil {
			a.recordBatchError(result, "remove", models.TrackIDs(batch), err)
			continue
		}
		result.Removed += len(batch)
		result.batchesOK++
	}

	return result
}

// ApplyLiked applies a change set to the user's liked songs.
func (a *Applier) ApplyLiked(ctx context.Context, change PlaylistChange) *ApplyResult {
	result := &ApplyResult{}

	for _, batch := range chunkIDs(models.TrackIDs(change.ToAdd), a.savedBatch) {
		if err := a.mutator.SaveTracks(ctx, batch); err != nil {
			a.recordBatchError(result, "save", batch, err)
			continue
		}
		result.Added += len(batch)
		result.batchesOK++
	}

	for _, batch := range chunkIDs(models.TrackIDs(change.ToRemove), a.savedBatch) {
		if err := a.mutator.RemoveSavedTracks(ctx, batch); err != nil {
			a.recordBatchError(result, "unsave", batch, err)
			continue
		}
		result.Removed += len(batch)
		result.batchesOK++
	}

	return result
}

// recordBatchError classifies a batch failure. Identifiers that vanished
// from the provider's catalog are skipped with a warning, not fatal; other
// failures are reported per batch with no retry.
func (a *Applier) recordBatchError(result *ApplyResult, op string, ids []string, err error) {
	if errors.Is(err, shared.ErrTrackNotFound) {
		a.logger.Warn("skipping identifiers no longer in catalog", "op", op, "count", len(ids), "error", err)
		result.Skipped = append(result.Skipped, ids...)
		return
	}
	a.logger.Error("batch failed", "op", op, "count", len(ids), "error", err)
	result.Errors = append(result.Errors, BatchError{Op: op, TrackIDs: ids, Err: err})
}

func chunkTracks(tracks []models.Track, size int) [][]models.Track {
	var chunks [][]models.Track
	for start := 0; start < len(tracks); start += size {
		end := min(start+size, len(tracks))
		chunks = append(chunks, tracks[start:end])
	}
	return chunks
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// RestoreOpts configures a restore run.
type RestoreOpts struct {
	Mode       RestoreMode
	DryRun     bool   // compute and report deltas without mutating
	PlaylistID string // restrict the run to a single snapshot playlist
}

// PlaylistResult is the per-playlist outcome of a restore run.
type PlaylistResult struct {
	PlaylistID string
	Name       string
	Delta      Delta
	Change     PlaylistChange
	Apply      *ApplyResult // nil on dry runs and no-op deltas
}

// RestoreResult aggregates a whole restore run.
type RestoreResult struct {
	Mode             RestoreMode
	DryRun           bool
	BackupPath       string
	Liked            *PlaylistResult
	Playlists        []PlaylistResult
	MissingPlaylists []string // in the snapshot but not live; never auto-created
}

// TotalAdded sums tracks added (or, on dry runs, that would be added).
func (r *RestoreResult) TotalAdded() int {
	total := 0
	for _, pr := range r.allResults() {
		if pr.Apply != nil {
			total += pr.Apply.Added
		} else {
			total += len(pr.Change.ToAdd)
		}
	}
	return total
}

// TotalRemoved sums tracks removed (or that would be removed in replace mode).
func (r *RestoreResult) TotalRemoved() int {
	total := 0
	for _, pr := range r.allResults() {
		if pr.Apply != nil {
			total += pr.Apply.Removed
		} else if r.Mode == ModeReplace {
			total += len(pr.Change.ToRemove)
		}
	}
	return total
}

// TotalSkipped sums identifiers skipped because they left the catalog.
func (r *RestoreResult) TotalSkipped() int {
	total := 0
	for _, pr := range r.allResults() {
		if pr.Apply != nil {
			total += len(pr.Apply.Skipped)
		}
	}
	return total
}

// ChangedPlaylists counts playlists (including liked songs) with a non-empty delta.
func (r *RestoreResult) ChangedPlaylists() int {
	count := 0
	for _, pr := range r.allResults() {
		if !pr.Delta.Empty() {
			count++
		}
	}
	return count
}

// Err returns an aggregated batch error across the run, or nil.
func (r *RestoreResult) Err() error {
	var failed int
	for _, pr := range r.allResults() {
		if pr.Apply != nil {
			failed += len(pr.Apply.Errors)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d batches failed", shared.ErrAPIRequest, failed)
	}
	return nil
}

func (r *RestoreResult) allResults() []PlaylistResult {
	results := r.Playlists
	if r.Liked != nil {
		results = append([]PlaylistResult{*r.Liked}, results...)
	}
	return results
}

// Engine defines snapshot and restore operations against a library service.
type Engine interface {
	// Snapshot captures the live library into an immutable snapshot document.
	Snapshot(ctx context.Context, progress chan<- ProgressUpdate) (*models.Snapshot, error)

	// Capture runs Snapshot and persists the result to the snapshot store.
	Capture(ctx context.Context, progress chan<- ProgressUpdate) (*models.Snapshot, *snapshot.WriteResult, error)

	// Restore reconciles a snapshot against the live library and applies the
	// resulting change sets, one playlist at a time.
	Restore(ctx context.Context, progress chan<- ProgressUpdate, snap *models.Snapshot, opts RestoreOpts) (*RestoreResult, error)

	// Transfer additively copies one live playlist's tracks into another.
	Transfer(ctx context.Context, progress chan<- ProgressUpdate, sourceID, destID string) (*TransferResult, error)
}

// LibraryEngine implements [Engine] for a single library service.
type LibraryEngine struct {
	service services.Service
	applier *Applier
	store   *snapshot.Store
	logger  *log.Logger
}

var _ Engine = (*LibraryEngine)(nil)

// NewLibraryEngine creates a LibraryEngine. The store is used for
// pre-restore backups and may be nil in tests.
func NewLibraryEngine(service services.Service, store *snapshot.Store, logger *log.Logger) *LibraryEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LibraryEngine{
		service: service,
		applier: NewApplier(service, logger),
		store:   store,
		logger:  logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls execution.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Restore reconciles the snapshot against the live library.
//
// The snapshot must already be validated (the store does this on read);
// nothing is mutated before every delta is computed, so a failure while
// reading live state aborts cleanly. Mutation order is liked songs first,
// then owned playlists in snapshot order, one playlist at a time.
func (e *LibraryEngine) Restore(ctx context.Context, progress chan<- ProgressUpdate, snap *models.Snapshot, opts RestoreOpts) (*RestoreResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: library service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Mode == "" {
		opts.Mode = ModeAdditive
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	result := &RestoreResult{Mode: opts.Mode, DryRun: opts.DryRun}

	// Compute every delta before the first mutation.
	var likedChange *PlaylistResult
	if opts.PlaylistID == "" {
		e.sendProgress(progress, fetchLikedUpdate(0))
		liveLiked, err := e.service.GetLikedSongs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch liked songs: %w", err)
		}
		e.sendProgress(progress, fetchLikedUpdate(len(liveLiked)))

		delta := Reconcile(models.TrackIDs(snap.LikedSongs), models.TrackIDs(liveLiked))
		likedChange = &PlaylistResult{
			PlaylistID: "liked",
			Name:       "Liked Songs",
			Delta:      delta,
			Change:     ResolveChange(delta, snap.LikedSongs, liveLiked),
		}
		e.sendProgress(progress, computeDeltaUpdate(1, 1, likedChange.Name, delta))
	}

	e.sendProgress(progress, fetchPlaylistsUpdate(0))
	liveInfos, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlists: %w", err)
	}
	e.sendProgress(progress, fetchPlaylistsUpdate(len(liveInfos)))

	liveByID := make(map[string]models.PlaylistInfo, len(liveInfos))
	for _, info := range liveInfos {
		liveByID[info.ID] = info
	}

	targets := snap.OwnedPlaylists
	if opts.PlaylistID != "" {
		target := snap.FindPlaylist(opts.PlaylistID)
		if target == nil {
			return nil, fmt.Errorf("%w: %s not in snapshot", shared.ErrPlaylistNotFound, opts.PlaylistID)
		}
		targets = []models.Playlist{*target}
	}

	total := len(targets)
	for i, snapPlaylist := range targets {
		if _, live := liveByID[snapPlaylist.ID]; !live {
			// Deleted or unfollowed since the snapshot. Restores only
			// mutate track membership, never create playlists.
			e.logger.Warn("snapshot playlist not found live, skipping", "id", snapPlaylist.ID, "name", snapPlaylist.Name)
			result.MissingPlaylists = append(result.MissingPlaylists, snapPlaylist.Name)
			continue
		}

		e.sendProgress(progress, fetchPlaylistTracksUpdate(i+1, total, snapPlaylist.Name))
		liveTracks, err := e.service.GetPlaylistTracks(ctx, snapPlaylist.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist %s: %w", snapPlaylist.ID, err)
		}

		delta := Reconcile(models.TrackIDs(snapPlaylist.Tracks), models.TrackIDs(liveTracks))
		result.Playlists = append(result.Playlists, PlaylistResult{
			PlaylistID: snapPlaylist.ID,
			Name:       snapPlaylist.Name,
			Delta:      delta,
			Change:     ResolveChange(delta, snapPlaylist.Tracks, liveTracks),
		})
		e.sendProgress(progress, computeDeltaUpdate(i+1, total, snapPlaylist.Name, delta))
	}
	result.Liked = likedChange

	if opts.DryRun {
		return result, nil
	}

	if opts.Mode == ModeReplace {
		path, err := e.backup(ctx, progress)
		if err != nil {
			return nil, fmt.Errorf("refusing to replace without backup: %w", err)
		}
		result.BackupPath = path
	}

	if result.Liked != nil && !result.Liked.Delta.Empty() {
		change := result.Liked.Change
		if opts.Mode == ModeAdditive {
			change.ToRemove = nil
		}
		e.sendProgress(progress, applyUpdate(ApplyAdditions, 1, 1, result.Liked.Name, len(change.ToAdd)))
		result.Liked.Apply = e.applier.ApplyLiked(ctx, change)
	}

	for i := range result.Playlists {
		pr := &result.Playlists[i]
		if pr.Delta.Empty() {
			continue
		}

		change := pr.Change
		if opts.Mode == ModeAdditive {
			change.ToRemove = nil
		}
		if change.Empty() {
			continue
		}

		if len(change.ToAdd) > 0 {
			e.sendProgress(progress, applyUpdate(ApplyAdditions, i+1, len(result.Playlists), pr.Name, len(change.ToAdd)))
		}
		if len(change.ToRemove) > 0 {
			e.sendProgress(progress, applyUpdate(ApplyDeletions, i+1, len(result.Playlists), pr.Name, len(change.ToRemove)))
		}
		pr.Apply = e.applier.ApplyPlaylist(ctx, pr.PlaylistID, change)
	}

	return result, nil
}

// backup captures the current live library before a replace-mode restore.
func (e *LibraryEngine) backup(ctx context.Context, progress chan<- ProgressUpdate) (string, error) {
	if e.store == nil {
		return "", fmt.Errorf("%w: snapshot store not configured", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, createBackupUpdate(""))
	snap, err := e.Snapshot(ctx, nil)
	if err != nil {
		return "", err
	}

	written, err := e.store.WriteBackup(snap)
	if err != nil {
		return "", err
	}

	e.sendProgress(progress, createBackupUpdate(written.Path))
	return written.Path, nil
}
