package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchUser Phase = iota
	FetchLiked
	FetchPlaylists
	FetchPlaylistTracks
	ReadSnapshot
	ComputeDelta
	CreateBackup
	ApplyAdditions
	ApplyDeletions
	WriteSnapshot
)

func (p Phase) String() string {
	switch p {
	case FetchUser:
		return "fetch_user"
	case FetchLiked:
		return "fetch_liked"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchPlaylistTracks:
		return "fetch_playlist_tracks"
	case ReadSnapshot:
		return "read_snapshot"
	case ComputeDelta:
		return "compute_delta"
	case CreateBackup:
		return "create_backup"
	case ApplyAdditions:
		return "apply_additions"
	case ApplyDeletions:
		return "apply_deletions"
	case WriteSnapshot:
		return "write_snapshot"
	default:
		return ""
	}
}

func fetchUserUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchUser,
		Step:    1,
		Total:   1,
		Message: "Fetching user profile...",
	}
}

func fetchLikedUpdate(count int) ProgressUpdate {
	message := "Fetching liked songs..."
	if count > 0 {
		message = fmt.Sprintf("Fetched %d liked songs", count)
	}
	return ProgressUpdate{
		Phase:   FetchLiked,
		Step:    1,
		Total:   1,
		Message: message,
	}
}

func fetchPlaylistsUpdate(count int) ProgressUpdate {
	message := "Fetching playlists..."
	if count > 0 {
		message = fmt.Sprintf("Found %d playlists", count)
	}
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: message,
	}
}

func fetchPlaylistTracksUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylistTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func computeDeltaUpdate(step, total int, name string, delta Delta) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ComputeDelta,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s: +%d −%d", step, total, name, len(delta.Additions), len(delta.Deletions)),
		Data:    delta,
	}
}

func createBackupUpdate(path string) ProgressUpdate {
	message := "Creating backup snapshot..."
	if path != "" {
		message = fmt.Sprintf("Backup written to %s", path)
	}
	return ProgressUpdate{
		Phase:   CreateBackup,
		Step:    1,
		Total:   1,
		Message: message,
	}
}

func applyUpdate(phase Phase, step, total int, name string, count int) ProgressUpdate {
	verb := "Adding"
	if phase == ApplyDeletions {
		verb = "Removing"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("%s %d tracks (%s)...", verb, count, name),
	}
}

func writeSnapshotUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteSnapshot,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Snapshot written to %s", path),
	}
}
