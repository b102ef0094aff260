package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		User: models.User{ID: "user1", DisplayName: "Test User"},
		LikedSongs: []models.Track{
			{ID: "t1", Name: "Song One", Artists: []string{"Artist"}, AddedAt: "2024-01-01T00:00:00Z", Kind: models.KindTrack},
		},
		OwnedPlaylists: []models.Playlist{
			{ID: "pl1", Name: "Mix", Tracks: []models.Track{
				{ID: "t2", Name: "Song Two", Artists: []string{"Artist"}, Kind: models.KindEpisode},
			}},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	t.Run("uncompressed", func(t *testing.T) {
		store := NewStore(t.TempDir(), false)

		written, err := store.Write(sampleSnapshot())
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.HasSuffix(written.Path, ".json") {
			t.Errorf("path = %s, want .json suffix", written.Path)
		}

		snap, err := store.Read(written.Path)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if snap.User.ID != "user1" || len(snap.OwnedPlaylists) != 1 {
			t.Errorf("round trip lost data: %+v", snap)
		}
		if snap.OwnedPlaylists[0].Tracks[0].Kind != models.KindEpisode {
			t.Errorf("Kind = %s, want episode", snap.OwnedPlaylists[0].Tracks[0].Kind)
		}
	})

	t.Run("compressed", func(t *testing.T) {
		store := NewStore(t.TempDir(), true)

		written, err := store.Write(sampleSnapshot())
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if !strings.HasSuffix(written.Path, ".json.z") {
			t.Errorf("path = %s, want .json.z suffix", written.Path)
		}

		data, err := os.ReadFile(written.Path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if data[0] != zlibMagic {
			t.Errorf("first byte = %#x, want zlib magic %#x", data[0], zlibMagic)
		}

		snap, err := store.Read(written.Path)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if snap.User.ID != "user1" {
			t.Errorf("round trip lost user: %+v", snap.User)
		}
	})

	t.Run("compressed payload detected regardless of extension", func(t *testing.T) {
		dir := t.TempDir()
		compressed := NewStore(dir, true)

		written, err := compressed.Write(sampleSnapshot())
		if err != nil {
			t.Fatalf("Write failed: %v", err)
		}

		renamed := filepath.Join(dir, "renamed.json")
		if err := os.Rename(written.Path, renamed); err != nil {
			t.Fatalf("Rename failed: %v", err)
		}

		if _, err := NewStore(dir, false).Read(renamed); err != nil {
			t.Errorf("Read failed on renamed compressed file: %v", err)
		}
	})
}

func TestStoreRead(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		store := NewStore(t.TempDir(), false)
		if _, err := store.Read("nope.json"); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Errorf("err = %v, want ErrSnapshotNotFound", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.json")
		os.WriteFile(path, []byte("{not json"), 0644)

		if _, err := NewStore(dir, false).Read(path); !errors.Is(err, shared.ErrInvalidSnapshot) {
			t.Errorf("err = %v, want ErrInvalidSnapshot", err)
		}
	})

	t.Run("valid json failing validation", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "invalid.json")
		os.WriteFile(path, []byte(`{"user":{"id":""},"likedSongs":[],"ownedPlaylists":[],"followedPlaylists":[]}`), 0644)

		if _, err := NewStore(dir, false).Read(path); !errors.Is(err, shared.ErrInvalidSnapshot) {
			t.Errorf("err = %v, want ErrInvalidSnapshot", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "empty.json")
		os.WriteFile(path, nil, 0644)

		if _, err := NewStore(dir, false).Read(path); !errors.Is(err, shared.ErrInvalidSnapshot) {
			t.Errorf("err = %v, want ErrInvalidSnapshot", err)
		}
	})
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, false)
	store.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	t.Run("empty directory", func(t *testing.T) {
		files, err := store.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("files = %v, want none", files)
		}
	})

	t.Run("backups are excluded", func(t *testing.T) {
		if _, err := store.Write(sampleSnapshot()); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if _, err := store.WriteBackup(sampleSnapshot()); err != nil {
			t.Fatalf("WriteBackup failed: %v", err)
		}

		files, err := store.List()
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(files) != 1 {
			t.Fatalf("files = %d, want 1", len(files))
		}
		if files[0].Name != "snapshot_20240601T120000.json" {
			t.Errorf("name = %s", files[0].Name)
		}
	})
}

func TestAppendLog(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, false)

	if err := store.AppendLog("first report"); err != nil {
		t.Fatalf("AppendLog failed: %v", err)
	}
	if err := store.AppendLog("second report"); err != nil {
		t.Fatalf("AppendLog failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "restore.log"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	text := string(content)
	if !strings.Contains(text, "first report\n[/]\n\n") || !strings.Contains(text, "second report\n[/]\n\n") {
		t.Errorf("log entries malformed:\n%s", text)
	}
}
