// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for snapshot restores:
//  1. [SnapshotListView] : Browse snapshot files on disk
//  2. [PlaylistListView] : Browse a snapshot's playlists
//  3. [TrackListView] : Preview a playlist's tracks
//  4. [DiffView] : Review the computed delta against the live library
//  5. [ConfirmView] : Confirm before anything is applied
//  6. [ApplyView] : Monitor real-time progress updates
//  7. [ResultView] : Display the applied change set
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the restore engine, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
