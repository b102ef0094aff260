package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/spotsnap/internal/formatter"
	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/repositories"
	"github.com/desertthunder/spotsnap/internal/shared"
	"github.com/desertthunder/spotsnap/internal/snapshot"
	"github.com/desertthunder/spotsnap/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SnapshotCreate captures the live library into a snapshot file.
func (r *Runner) SnapshotCreate(ctx context.Context, cmd *cli.Command) error {
	outputPath := cmd.String("output")
	useJSON := cmd.Bool("json")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("capturing library snapshot")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go r.printProgress(progressCh, progressDone)

	var snap *models.Snapshot
	var written *snapshot.WriteResult
	var err error

	capture := func() error {
		if outputPath != "" {
			if snap, err = r.engine.Snapshot(ctx, progressCh); err != nil {
				return err
			}
			written, err = r.store.WriteFile(snap, outputPath)
			return err
		}
		snap, written, err = r.engine.Capture(ctx, progressCh)
		return err
	}

	if err = capture(); err != nil {
		if retry, authErr := r.handleAuthError(ctx, err); retry {
			if authErr != nil {
				close(progressCh)
				<-progressDone
				return authErr
			}
			err = capture()
		}
	}
	close(progressCh)
	<-progressDone
	if err != nil {
		return err
	}

	r.recordSnapshot(snap, written)

	if useJSON {
		return r.writeJSON(map[string]any{
			"path":       written.Path,
			"compressed": written.Compressed,
			"size":       written.Size,
			"liked":      len(snap.LikedSongs),
			"owned":      len(snap.OwnedPlaylists),
			"followed":   len(snap.FollowedPlaylists),
		}, true)
	}

	r.writePlainln("✓ Snapshot written to %s", written.Path)
	r.writePlain("%s", formatter.SnapshotSummary(snap))
	return nil
}

// SnapshotList lists snapshot files under the snapshot directory.
func (r *Runner) SnapshotList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")

	files, err := r.store.List()
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(files, true)
	}

	if len(files) == 0 {
		r.writePlain("No snapshots found in %s\n", r.store.Root())
		return nil
	}

	r.writePlain("Found %d snapshots:\n\n", len(files))
	for i, file := range files {
		r.writePlain("%d. %s\n", i+1, file.Name)
		r.writePlain("   Created: %s\n", file.ModTime.Format("2006-01-02 15:04:05"))
		r.writePlain("   Size: %d bytes\n", file.Size)
		if file.Compressed {
			r.writePlain("   Compressed: yes\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// SnapshotShow summarizes a snapshot file, optionally exporting a single playlist.
func (r *Runner) SnapshotShow(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	useJSON := cmd.Bool("json")
	playlistID := cmd.String("playlist")
	exportFormat := cmd.String("export")
	outputPath := cmd.String("output")

	if path == "" {
		return fmt.Errorf("%w: snapshot path required", shared.ErrMissingArgument)
	}

	snap, err := r.store.Read(path)
	if err != nil {
		return err
	}

	if playlistID == "" {
		if useJSON {
			return r.writeJSON(snap, true)
		}
		r.writePlainHeader(fmt.Sprintf("Snapshot %s", path))
		r.writePlain("%s", formatter.SnapshotSummary(snap))
		return nil
	}

	playlist := snap.FindPlaylist(playlistID)
	if playlist == nil {
		return fmt.Errorf("%w: %s not in snapshot", shared.ErrPlaylistNotFound, playlistID)
	}

	if exportFormat != "" {
		return r.exportPlaylist(*playlist, exportFormat, outputPath)
	}

	if useJSON {
		return r.writeJSON(playlist, true)
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	if playlist.Description != "" {
		r.writePlain("Description: %s\n", playlist.Description)
	}
	r.writePlain("Tracks: %d\n\n", len(playlist.Tracks))
	for i, track := range playlist.Tracks {
		r.writePlain("%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Name)
	}

	return nil
}

// exportPlaylist writes a snapshot playlist in the requested format.
func (r *Runner) exportPlaylist(playlist models.Playlist, format, outputPath string) error {
	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(playlist, outputPath)
		if err != nil {
			return err
		}
		r.writePlain("✓ Tracks exported to %s\n", result.TracksFile)
		r.writePlain("✓ Metadata exported to %s\n", result.MetadataFile)
		return nil
	case "markdown", "md":
		data, err := formatter.ExportToMarkdown(playlist)
		if err != nil {
			return err
		}
		return r.writePlain("%s", string(data))
	case "text", "txt":
		path, err := formatter.WriteTextExport(playlist, outputPath)
		if err != nil {
			return err
		}
		r.writePlain("✓ Tracks exported to %s\n", path)
		return nil
	default:
		return fmt.Errorf("%w: unknown export format '%s' (must be csv, markdown, or text)", shared.ErrInvalidArgument, format)
	}
}

// recordSnapshot logs the capture in the history database. History is
// advisory, so failures are logged and swallowed.
func (r *Runner) recordSnapshot(snap *models.Snapshot, written *snapshot.WriteResult) {
	db, err := r.openHistory()
	if err != nil {
		r.logger.Warn("skipping history record", "error", err)
		return
	}
	defer db.Close()

	record := &models.SnapshotRecord{
		Path:          written.Path,
		UserID:        snap.User.ID,
		UserName:      snap.User.DisplayName,
		LikedCount:    len(snap.LikedSongs),
		OwnedCount:    len(snap.OwnedPlaylists),
		FollowedCount: len(snap.FollowedPlaylists),
		Compressed:    written.Compressed,
	}

	if err := repositories.NewSnapshotRepository(db).Create(record); err != nil {
		r.logger.Warn("failed to record snapshot", "error", err)
	}
}

// printProgress renders progress updates to the output writer until the
// channel closes, then closes done. Callers wait on done before writing
// their summary so progress lines never interleave with it.
func (r *Runner) printProgress(progressCh <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progressCh {
		switch update.Phase {
		case tasks.FetchUser, tasks.FetchLiked, tasks.FetchPlaylists:
			r.writePlain("📥 %s\n", update.Message)
		case tasks.FetchPlaylistTracks:
			r.writePlain("   %s\n", update.Message)
		case tasks.ComputeDelta:
			r.writePlain("Δ  %s\n", update.Message)
		case tasks.CreateBackup:
			r.writePlain("💾 %s\n", update.Message)
		case tasks.ApplyAdditions, tasks.ApplyDeletions:
			r.writePlain("✎  %s\n", update.Message)
		case tasks.WriteSnapshot:
			r.writePlain("💾 %s\n", update.Message)
		}
	}
}
