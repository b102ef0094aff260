package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotsnap/internal/formatter"
	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/snapshot"
	"github.com/desertthunder/spotsnap/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SnapshotListView ViewState = iota
	PlaylistListView
	TrackListView
	DiffView
	ConfirmView
	ApplyView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       tasks.Engine
	store        *snapshot.Store
	opts         tasks.RestoreOpts
	width        int
	height       int
	snapshotList list.Model
	playlistList list.Model
	trackList    list.Model
	snap         *models.Snapshot
	snapPath     string
	diff         *tasks.RestoreResult
	diffPending  bool
	progressChan chan tasks.ProgressUpdate
	restoreDone  chan restoreCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.RestoreResult
	resultErr    error
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine tasks.Engine, store *snapshot.Store, opts tasks.RestoreOpts) *Model {
	return &Model{
		ctx:    ctx,
		view:   SnapshotListView,
		engine: engine,
		store:  store,
		opts:   opts,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Init initializes the TUI by listing snapshots on disk.
func (m *Model) Init() tea.Cmd {
	return m.loadSnapshots()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.snapshotList, &m.playlistList, &m.trackList} {
			if l.Width() == 0 {
				l.SetSize(msg.Width-4, msg.Height-8)
			}
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SnapshotListView:
			return m.handleSnapshotListKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case DiffView:
			return m.handleDiffKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case snapshotsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.files))
		for i, file := range msg.files {
			items[i] = snapshotItem{file: file}
		}
		m.snapshotList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.snapshotList.Title = "Snapshots"
		m.snapshotList.SetSize(m.width-4, m.height-8)
		return m, nil

	case snapshotReadMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.snap = msg.snap
		m.snapPath = msg.path
		items := make([]list.Item, 0, len(msg.snap.OwnedPlaylists)+1)
		items = append(items, playlistItem{playlist: models.Playlist{ID: "liked", Name: "Liked Songs", Tracks: msg.snap.LikedSongs}})
		for _, playlist := range msg.snap.OwnedPlaylists {
			items = append(items, playlistItem{playlist: playlist})
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = fmt.Sprintf("Playlists in %s", m.snapshotName())
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.view = PlaylistListView
		return m, nil

	case diffComputedMsg:
		m.diffPending = false
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.diff = msg.result
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case restoreCompleteMsg:
		m.result = msg.result
		m.resultErr = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view == SnapshotListView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case SnapshotListView:
		return m.renderSnapshotList()
	case PlaylistListView:
		return m.renderPlaylistList()
	case TrackListView:
		return m.renderTrackList()
	case DiffView:
		return m.renderDiff()
	case ConfirmView:
		return m.renderConfirm()
	case ApplyView:
		return m.renderApply()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSnapshotListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if selected, ok := m.snapshotList.SelectedItem().(snapshotItem); ok {
			return m, m.readSnapshot(selected.file.Path)
		}
	}

	var cmd tea.Cmd
	m.snapshotList, cmd = m.snapshotList.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SnapshotListView
		return m, nil
	case "d":
		m.view = DiffView
		m.diff = nil
		m.diffPending = true
		return m, m.computeDiff()
	case "enter":
		if selected, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			items := make([]list.Item, len(selected.playlist.Tracks))
			for i, track := range selected.playlist.Tracks {
				items[i] = trackItem{track: track}
			}
			m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
			m.trackList.Title = fmt.Sprintf("Tracks in '%s'", selected.playlist.Name)
			m.trackList.SetSize(m.width-4, m.height-8)
			m.view = TrackListView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleDiffKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PlaylistListView
		return m, nil
	case "enter":
		if m.diff != nil {
			m.view = ConfirmView
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = DiffView
		return m, nil
	case "y":
		m.view = ApplyView
		return m, m.startRestore()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = SnapshotListView
		m.snap = nil
		m.diff = nil
		m.result = nil
		m.resultErr = nil
		m.err = nil
		return m, m.loadSnapshots()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SnapshotListView:
		m.snapshotList, cmd = m.snapshotList.Update(msg)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadSnapshots() tea.Cmd {
	return func() tea.Msg {
		files, err := m.store.List()
		return snapshotsLoadedMsg{files: files, err: err}
	}
}

func (m *Model) readSnapshot(path string) tea.Cmd {
	return func() tea.Msg {
		snap, err := m.store.Read(path)
		return snapshotReadMsg{snap: snap, path: path, err: err}
	}
}

func (m *Model) computeDiff() tea.Cmd {
	return func() tea.Msg {
		opts := m.opts
		opts.DryRun = true
		result, err := m.engine.Restore(m.ctx, nil, m.snap, opts)
		return diffComputedMsg{result: result, err: err}
	}
}

func (m *Model) startRestore() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	done := make(chan restoreCompleteMsg, 1)
	progress := m.progressChan

	go func() {
		result, err := m.engine.Restore(m.ctx, progress, m.snap, m.opts)
		done <- restoreCompleteMsg{result: result, err: err}
		close(progress)
	}()

	m.restoreDone = done
	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress := m.progressChan
	done := m.restoreDone
	return func() tea.Msg {
		if progress == nil {
			return <-done
		}

		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) snapshotName() string {
	if m.snap == nil {
		return ""
	}
	return fmt.Sprintf("%s's library", m.snap.User.DisplayName)
}

func (m *Model) renderSnapshotList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.snapshotList.View(), helpView)
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.diff, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	body := m.playlistList.View()
	if m.err != nil {
		body = fmt.Sprintf("%s\n%s", styles.err.Render(fmt.Sprintf("Error: %v", m.err)), body)
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderDiff() string {
	title := styles.title.Render("Library Diff")
	if m.diffPending {
		return fmt.Sprintf("%s\n\nComputing delta against live library...", title)
	}
	if m.diff == nil {
		return title
	}

	applyKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "restore"))
	helpKeys := []key.Binding{applyKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, formatter.DeltaSummary(m.diff), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Restore snapshot in %s mode?", m.opts.Mode))
	info := fmt.Sprintf("\nSnapshot: %s\nTracks to add: %d\nTracks to remove: %d\n",
		m.snapPath, m.diff.TotalAdded(), m.diff.TotalRemoved())
	if m.opts.Mode == tasks.ModeReplace {
		info += styles.warn.Render("Replace mode removes tracks; a backup is written first.") + "\n"
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderApply() string {
	title := styles.title.Render("Restoring Library")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchLiked, tasks.FetchPlaylists, tasks.FetchPlaylistTracks:
		phase = "Reading live library..."
	case tasks.CreateBackup:
		phase = "Writing backup snapshot..."
	case tasks.ApplyAdditions:
		phase = fmt.Sprintf("Adding tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.ApplyDeletions:
		phase = fmt.Sprintf("Removing tracks (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.resultErr != nil {
		return styles.err.Render(fmt.Sprintf("Restore failed: %v\n\nPress r to start over, q to quit", m.resultErr))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to start over, q to quit")
	}

	title := styles.ok.Render("✓ Restore Complete")
	summary := formatter.DeltaSummary(m.result)

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s\n%s", title, summary, helpView)
}
