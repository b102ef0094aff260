// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/spotsnap/internal/models"
)

// MockService is a configurable test double for [services.Service].
// Zero value returns empty results everywhere; tests set the fields they
// care about and inspect the recorded mutation calls afterwards.
type MockService struct {
	User      *models.User
	Liked     []models.Track
	Playlists []models.PlaylistInfo
	Tracks    map[string][]models.Track // playlist ID -> live tracks

	AuthErr  error
	ReadErr  error
	WriteErr error

	AddedCalls   []MutationCall
	RemovedCalls []MutationCall
	SavedIDs     [][]string
	UnsavedIDs   [][]string
}

// MutationCall records one playlist mutation batch.
type MutationCall struct {
	PlaylistID string
	TrackIDs   []string
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthErr
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.User == nil {
		return &models.User{ID: "mockuser", DisplayName: "Mock User"}, nil
	}
	return m.User, nil
}

func (m *MockService) GetLikedSongs(ctx context.Context) ([]models.Track, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.Liked, nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]models.PlaylistInfo, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.Playlists, nil
}

func (m *MockService) GetPlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return m.Tracks[playlistID], nil
}

func (m *MockService) AddPlaylistTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.AddedCalls = append(m.AddedCalls, MutationCall{PlaylistID: playlistID, TrackIDs: models.TrackIDs(tracks)})
	return nil
}

func (m *MockService) RemovePlaylistTracks(ctx context.Context, playlistID string, tracks []models.Track) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.RemovedCalls = append(m.RemovedCalls, MutationCall{PlaylistID: playlistID, TrackIDs: models.TrackIDs(tracks)})
	return nil
}

func (m *MockService) SaveTracks(ctx context.Context, trackIDs []string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.SavedIDs = append(m.SavedIDs, trackIDs)
	return nil
}

func (m *MockService) RemoveSavedTracks(ctx context.Context, trackIDs []string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.UnsavedIDs = append(m.UnsavedIDs, trackIDs)
	return nil
}

func (m *MockService) Name() string { return "mock" }

// MutationCount returns the total number of mutation batches issued.
func (m *MockService) MutationCount() int {
	return len(m.AddedCalls) + len(m.RemovedCalls) + len(m.SavedIDs) + len(m.UnsavedIDs)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
