// package formatter renders snapshots and restore results as text, Markdown, and CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
	"github.com/desertthunder/spotsnap/internal/tasks"
)

// SnapshotSummary renders a one-screen overview of a snapshot.
func SnapshotSummary(snap *models.Snapshot) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s (%s)\n", snap.User.DisplayName, snap.User.ID))
	buf.WriteString(fmt.Sprintf("Liked songs: %d\n", len(snap.LikedSongs)))
	buf.WriteString(fmt.Sprintf("Owned playlists: %d\n", len(snap.OwnedPlaylists)))
	for _, playlist := range snap.OwnedPlaylists {
		buf.WriteString(fmt.Sprintf("  %s (%d tracks)\n", playlist.Name, len(playlist.Tracks)))
	}
	buf.WriteString(fmt.Sprintf("Followed playlists: %d\n", len(snap.FollowedPlaylists)))
	for _, playlist := range snap.FollowedPlaylists {
		buf.WriteString(fmt.Sprintf("  %s by %s (%d tracks)\n", playlist.Name, playlist.Owner.ID, len(playlist.Tracks)))
	}

	return buf.String()
}

// DeltaSummary renders a restore result as a short per-playlist table.
// Playlists with empty deltas are collapsed into a single count.
func DeltaSummary(result *tasks.RestoreResult) string {
	var buf bytes.Buffer

	verb := "Applied"
	if result.DryRun {
		verb = "Computed"
	}
	buf.WriteString(fmt.Sprintf("%s %s restore: +%d −%d", verb, result.Mode, result.TotalAdded(), result.TotalRemoved()))
	if skipped := result.TotalSkipped(); skipped > 0 {
		buf.WriteString(fmt.Sprintf(" (%d skipped)", skipped))
	}
	buf.WriteString("\n")

	unchanged := 0
	for _, pr := range resultRows(result) {
		if pr.Delta.Empty() {
			unchanged++
			continue
		}
		buf.WriteString(fmt.Sprintf("  %s: +%d −%d\n", pr.Name, len(pr.Delta.Additions), len(pr.Delta.Deletions)))
	}
	if unchanged > 0 {
		buf.WriteString(fmt.Sprintf("  %d playlists unchanged\n", unchanged))
	}

	for _, name := range result.MissingPlaylists {
		buf.WriteString(fmt.Sprintf("  %s: not found live, skipped\n", name))
	}
	if result.BackupPath != "" {
		buf.WriteString(fmt.Sprintf("Backup: %s\n", result.BackupPath))
	}

	return buf.String()
}

// DeltaReport renders a restore result in full, listing every affected
// track. This is the form appended to the restore log.
func DeltaReport(result *tasks.RestoreResult) string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("mode=%s dry_run=%t\n", result.Mode, result.DryRun))
	if result.BackupPath != "" {
		buf.WriteString(fmt.Sprintf("backup=%s\n", result.BackupPath))
	}

	for _, pr := range resultRows(result) {
		if pr.Delta.Empty() {
			continue
		}

		buf.WriteString(fmt.Sprintf("\n%s (%s)\n", pr.Name, pr.PlaylistID))
		for _, track := range pr.Change.ToAdd {
			buf.WriteString(fmt.Sprintf("  + %s  %s - %s\n", track.ID, strings.Join(track.Artists, ", "), track.Name))
		}
		for _, track := range pr.Change.ToRemove {
			buf.WriteString(fmt.Sprintf("  - %s  %s - %s\n", track.ID, strings.Join(track.Artists, ", "), track.Name))
		}
		if pr.Apply != nil {
			for _, id := range pr.Apply.Skipped {
				buf.WriteString(fmt.Sprintf("  ~ %s  skipped, no longer in catalog\n", id))
			}
			for _, batchErr := range pr.Apply.Errors {
				buf.WriteString(fmt.Sprintf("  ! %s\n", batchErr.Error()))
			}
		}
	}

	for _, name := range result.MissingPlaylists {
		buf.WriteString(fmt.Sprintf("\n%s: not found live, skipped\n", name))
	}

	return buf.String()
}

// ExportToCSV converts a playlist's tracks to CSV with columns: ID, Name, Artists, AddedAt, Kind
func ExportToCSV(playlist models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "AddedAt", "Kind"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range playlist.Tracks {
		kind := string(track.Kind)
		if kind == "" {
			kind = string(models.KindTrack)
		}
		record := []string{
			track.ID,
			track.Name,
			strings.Join(track.Artists, "; "),
			track.AddedAt,
			kind,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown format
func ExportToMarkdown(playlist models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Name))

	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(playlist.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range playlist.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Name))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text format
func ExportToText(playlist models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", playlist.Description))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(playlist.Tracks)))

	for i, track := range playlist.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, strings.Join(track.Artists, ", "), track.Name))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	meta := models.PlaylistInfo{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		TrackCount:  len(playlist.Tracks),
	}
	return shared.MarshalJSON(meta, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV with an accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(playlist models.Playlist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = playlist.ID
	}

	csvData, err := ExportToCSV(playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(playlist models.Playlist, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", playlist.ID)
	}

	textData, err := ExportToText(playlist)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}

func resultRows(result *tasks.RestoreResult) []tasks.PlaylistResult {
	rows := make([]tasks.PlaylistResult, 0, len(result.Playlists)+1)
	if result.Liked != nil {
		rows = append(rows, *result.Liked)
	}
	return append(rows, result.Playlists...)
}
