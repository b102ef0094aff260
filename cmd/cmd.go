// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles Spotify authentication
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Action: r.AuthStatus,
			},
		},
	}
}

// snapshotCommand handles snapshot capture and inspection
func snapshotCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Capture and inspect library snapshots",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Capture the live library into a snapshot file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the snapshot to this path instead of the snapshot directory",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the write result as JSON",
					},
				},
				Action: r.SnapshotCreate,
			},
			{
				Name:  "list",
				Usage: "List snapshot files, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SnapshotList,
			},
			{
				Name:  "show",
				Usage: "Summarize a snapshot file",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the full snapshot as JSON",
					},
					&cli.StringFlag{
						Name:  "playlist",
						Usage: "Restrict output to a single playlist ID",
					},
					&cli.StringFlag{
						Name:  "export",
						Usage: "Export the selected playlist (csv, markdown, or text)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Base path for exported files",
					},
				},
				Action: r.SnapshotShow,
			},
		},
	}
}

// restoreCommand reconciles snapshots against the live library
func restoreCommand(r *Runner) *cli.Command {
	snapshotFlag := &cli.StringFlag{
		Name:     "snapshot",
		Aliases:  []string{"s"},
		Usage:    "Path to the snapshot file",
		Required: true,
	}
	playlistFlag := &cli.StringFlag{
		Name:  "playlist",
		Usage: "Restrict the run to a single snapshot playlist ID",
	}

	return &cli.Command{
		Name:  "restore",
		Usage: "Restore the library from a snapshot",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Apply a snapshot to the live library",
				Flags: []cli.Flag{
					snapshotFlag,
					playlistFlag,
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Restore mode: additive (default) or replace",
						Value:   "additive",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Compute and print the delta without mutating anything",
					},
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the replace-mode confirmation prompt",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the result as JSON",
					},
				},
				Action: r.RestoreRun,
			},
			{
				Name:  "diff",
				Usage: "Show what a restore would change, without applying it",
				Flags: []cli.Flag{
					snapshotFlag,
					playlistFlag,
					&cli.BoolFlag{
						Name:  "full",
						Usage: "List every affected track instead of per-playlist counts",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the delta as JSON",
					},
				},
				Action: r.RestoreDiff,
			},
		},
	}
}

// transferCommand copies tracks between live playlists
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Additively copy one playlist's tracks into another",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "source-id",
				Usage:    "Source playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dest-id",
				Usage:    "Destination playlist ID",
				Required: true,
			},
		},
		Action: r.TransferRun,
	}
}

// lookupCommand resolves a bare Spotify ID to a resource
func lookupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lookup",
		Usage: "Identify what kind of resource a Spotify ID refers to",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Lookup,
	}
}

// historyCommand reads the capture and restore history database
func historyCommand(r *Runner) *cli.Command {
	limitFlag := &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of rows to return",
		Value: 20,
	}
	jsonFlag := &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}

	return &cli.Command{
		Name:  "history",
		Usage: "Show capture and restore history",
		Commands: []*cli.Command{
			{
				Name:   "snapshots",
				Usage:  "List recorded snapshot captures",
				Flags:  []cli.Flag{limitFlag, jsonFlag},
				Action: r.HistorySnapshots,
			},
			{
				Name:   "restores",
				Usage:  "List recorded restore runs",
				Flags:  []cli.Flag{limitFlag, jsonFlag},
				Action: r.HistoryRestores,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a config.toml from the bundled template",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Flags:  []cli.Flag{configFlag},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive snapshot management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for browsing and restoring snapshots",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Restore mode: additive (default) or replace",
				Value:   "additive",
			},
		},
		Action: r.TUI,
	}
}
