package main

import (
	"context"

	"github.com/desertthunder/spotsnap/internal/repositories"
	"github.com/urfave/cli/v3"
)

// HistorySnapshots lists recorded snapshot captures, newest first.
func (r *Runner) HistorySnapshots(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	db, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repositories.NewSnapshotRepository(db).List(limit)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No snapshot captures recorded.\n")
		return nil
	}

	r.writePlain("Found %d recorded captures:\n\n", len(records))
	for i, record := range records {
		r.writePlain("%d. %s\n", i+1, record.Path)
		r.writePlain("   Captured: %s by %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"), record.UserName)
		r.writePlain("   Liked: %d, Owned: %d, Followed: %d\n", record.LikedCount, record.OwnedCount, record.FollowedCount)
		if record.Compressed {
			r.writePlain("   Compressed: yes\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// HistoryRestores lists recorded restore runs, newest first.
func (r *Runner) HistoryRestores(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")

	db, err := r.openHistory()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repositories.NewRestoreRunRepository(db).List(limit)
	if err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No restore runs recorded.\n")
		return nil
	}

	r.writePlain("Found %d recorded runs:\n\n", len(records))
	for i, record := range records {
		r.writePlain("%d. %s (%s)\n", i+1, record.SnapshotPath, record.Mode)
		r.writePlain("   Ran: %s\n", record.CreatedAt.Format("2006-01-02 15:04:05"))
		r.writePlain("   Changed %d playlists: +%d −%d (%d skipped)\n",
			record.PlaylistsChanged, record.TracksAdded, record.TracksRemoved, record.TracksSkipped)
		if record.DryRun {
			r.writePlain("   Dry run: yes\n")
		}
		if record.Error != "" {
			r.writePlain("   Error: %s\n", record.Error)
		}
		r.writePlain("\n")
	}

	return nil
}
