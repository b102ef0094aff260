package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsnap/internal/shared"
	"github.com/desertthunder/spotsnap/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TransferRun additively copies one live playlist's tracks into another.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source-id")
	destID := cmd.String("dest-id")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("starting transfer", "source", sourceID, "dest", destID)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	progressDone := make(chan struct{})
	go r.printProgress(progressCh, progressDone)

	result, err := r.engine.Transfer(ctx, progressCh, sourceID, destID)
	if err != nil {
		if retry, authErr := r.handleAuthError(ctx, err); retry {
			if authErr != nil {
				close(progressCh)
				<-progressDone
				return authErr
			}
			result, err = r.engine.Transfer(ctx, progressCh, sourceID, destID)
		}
	}
	close(progressCh)
	<-progressDone
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Transfer Complete")
	r.writePlain("Source tracks: %d\n", result.SourceTracks)
	r.writePlain("Already present: %d\n", result.AlreadyPresent)
	r.writePlain("Transferred: %d\n", result.Transferred)

	if result.Apply != nil {
		if skipped := len(result.Apply.Skipped); skipped > 0 {
			r.writePlain("Skipped (not in catalog): %d\n", skipped)
		}
		if applyErr := result.Apply.Err(); applyErr != nil {
			return applyErr
		}
	}

	return nil
}
