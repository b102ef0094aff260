package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/snapshot"
)

var (
	_ list.Item = snapshotItem{}
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// snapshotItem wraps [snapshot.FileInfo] to implement [list.Item].
type snapshotItem struct {
	file snapshot.FileInfo
}

func (i snapshotItem) FilterValue() string { return i.file.Name }
func (i snapshotItem) Title() string       { return i.file.Name }
func (i snapshotItem) Description() string {
	desc := fmt.Sprintf("%s • %d bytes", i.file.ModTime.Format("2006-01-02 15:04"), i.file.Size)
	if i.file.Compressed {
		desc += " • compressed"
	}
	return desc
}

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.playlist.Tracks))
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := strings.Join(i.track.Artists, ", ")
	if i.track.Kind == models.KindEpisode {
		desc = fmt.Sprintf("%s • episode", desc)
	}
	return desc
}
