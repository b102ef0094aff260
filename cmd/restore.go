package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/spotsnap/internal/formatter"
	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/repositories"
	"github.com/desertthunder/spotsnap/internal/shared"
	"github.com/desertthunder/spotsnap/internal/tasks"
	"github.com/urfave/cli/v3"
)

// RestoreRun reconciles a snapshot against the live library and applies the delta.
func (r *Runner) RestoreRun(ctx context.Context, cmd *cli.Command) error {
	snapshotPath := cmd.String("snapshot")
	playlistID := cmd.String("playlist")
	dryRun := cmd.Bool("dry-run")
	skipConfirm := cmd.Bool("yes")
	useJSON := cmd.Bool("json")

	mode, err := parseMode(cmd.String("mode"))
	if err != nil {
		return err
	}

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	snap, err := r.store.Read(snapshotPath)
	if err != nil {
		return err
	}

	if mode == tasks.ModeReplace && !dryRun && !skipConfirm {
		r.writePlain("⚠ Replace mode removes tracks that are not in the snapshot.\n")
		r.writePlain("A backup of the current library is written first.\n")
		if !r.confirm("Continue? [y/N] ") {
			r.writePlain("Aborted.\n")
			return nil
		}
	}

	r.logger.Info("starting restore", "snapshot", snapshotPath, "mode", mode, "dry_run", dryRun)

	opts := tasks.RestoreOpts{Mode: mode, DryRun: dryRun, PlaylistID: playlistID}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go r.printProgress(progressCh, progressDone)

	result, err := r.engine.Restore(ctx, progressCh, snap, opts)
	if err != nil {
		if retry, authErr := r.handleAuthError(ctx, err); retry {
			if authErr != nil {
				close(progressCh)
				<-progressDone
				return authErr
			}
			result, err = r.engine.Restore(ctx, progressCh, snap, opts)
		}
	}
	close(progressCh)
	<-progressDone
	if err != nil {
		return err
	}

	if !dryRun {
		if logErr := r.store.AppendLog(formatter.DeltaReport(result)); logErr != nil {
			r.logger.Warn("failed to append restore log", "error", logErr)
		}
		r.recordRestoreRun(snapshotPath, result)
	}

	if useJSON {
		if jsonErr := r.writeJSON(restoreResultJSON(snapshotPath, result), true); jsonErr != nil {
			return jsonErr
		}
		return result.Err()
	}

	r.writePlain("\n")
	r.writePlainHeader("Restore Complete")
	r.writePlain("%s", formatter.DeltaSummary(result))

	return result.Err()
}

// RestoreDiff computes and prints the delta a restore would apply.
func (r *Runner) RestoreDiff(ctx context.Context, cmd *cli.Command) error {
	snapshotPath := cmd.String("snapshot")
	playlistID := cmd.String("playlist")
	full := cmd.Bool("full")
	useJSON := cmd.Bool("json")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	snap, err := r.store.Read(snapshotPath)
	if err != nil {
		return err
	}

	opts := tasks.RestoreOpts{Mode: tasks.ModeReplace, DryRun: true, PlaylistID: playlistID}

	result, err := r.engine.Restore(ctx, nil, snap, opts)
	if err != nil {
		if retry, authErr := r.handleAuthError(ctx, err); retry {
			if authErr != nil {
				return authErr
			}
			if result, err = r.engine.Restore(ctx, nil, snap, opts); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	if useJSON {
		return r.writeJSON(restoreResultJSON(snapshotPath, result), true)
	}

	if full {
		r.writePlain("%s", formatter.DeltaReport(result))
		return nil
	}

	r.writePlain("%s", formatter.DeltaSummary(result))
	return nil
}

func parseMode(raw string) (tasks.RestoreMode, error) {
	switch strings.ToLower(raw) {
	case "", string(tasks.ModeAdditive):
		return tasks.ModeAdditive, nil
	case string(tasks.ModeReplace):
		return tasks.ModeReplace, nil
	default:
		return "", fmt.Errorf("%w: invalid mode '%s' (must be additive or replace)", shared.ErrInvalidArgument, raw)
	}
}

// confirm prompts on stdout and reads a y/n answer from stdin.
func (r *Runner) confirm(prompt string) bool {
	r.writePlain("%s", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// restoreResultJSON flattens a restore result for machine-readable output.
func restoreResultJSON(snapshotPath string, result *tasks.RestoreResult) map[string]any {
	playlists := []map[string]any{}
	appendRow := func(pr *tasks.PlaylistResult) {
		if pr == nil || pr.Delta.Empty() {
			return
		}
		playlists = append(playlists, map[string]any{
			"id":        pr.PlaylistID,
			"name":      pr.Name,
			"additions": pr.Delta.Additions,
			"deletions": pr.Delta.Deletions,
		})
	}
	appendRow(result.Liked)
	for i := range result.Playlists {
		appendRow(&result.Playlists[i])
	}

	return map[string]any{
		"snapshot":         snapshotPath,
		"mode":             result.Mode,
		"dryRun":           result.DryRun,
		"backupPath":       result.BackupPath,
		"tracksAdded":      result.TotalAdded(),
		"tracksRemoved":    result.TotalRemoved(),
		"tracksSkipped":    result.TotalSkipped(),
		"playlistsChanged": result.ChangedPlaylists(),
		"missingPlaylists": result.MissingPlaylists,
		"playlists":        playlists,
	}
}

// recordRestoreRun logs the run in the history database. Failures are
// logged and swallowed.
func (r *Runner) recordRestoreRun(snapshotPath string, result *tasks.RestoreResult) {
	db, err := r.openHistory()
	if err != nil {
		r.logger.Warn("skipping history record", "error", err)
		return
	}
	defer db.Close()

	record := &models.RestoreRunRecord{
		SnapshotPath:     snapshotPath,
		Mode:             string(result.Mode),
		DryRun:           result.DryRun,
		PlaylistsChanged: result.ChangedPlaylists(),
		TracksAdded:      result.TotalAdded(),
		TracksRemoved:    result.TotalRemoved(),
		TracksSkipped:    result.TotalSkipped(),
	}
	if runErr := result.Err(); runErr != nil {
		record.Error = runErr.Error()
	}

	if err := repositories.NewRestoreRunRepository(db).Create(record); err != nil {
		r.logger.Warn("failed to record restore run", "error", err)
	}
}
