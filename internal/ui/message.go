package ui

import (
	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/snapshot"
	"github.com/desertthunder/spotsnap/internal/tasks"
)

type snapshotsLoadedMsg struct {
	files []snapshot.FileInfo
	err   error
}

type snapshotReadMsg struct {
	snap *models.Snapshot
	path string
	err  error
}

type diffComputedMsg struct {
	result *tasks.RestoreResult
	err    error
}

type progressUpdateMsg tasks.ProgressUpdate

type restoreCompleteMsg struct {
	result *tasks.RestoreResult
	err    error
}
