// package snapshot persists library snapshots as JSON files, optionally zlib-compressed
package snapshot

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
)

const (
	snapshotExt   = ".json"
	compressedExt = ".json.z"

	// zlib streams start with 0x78 (deflate, 32K window); plain snapshots with '{'
	zlibMagic = 0x78
)

// Store reads and writes snapshot files under a root directory.
//
// Layout:
//
//	<root>/snapshot_<timestamp>.json[.z]   captures
//	<root>/backups/                        pre-restore backups
//	<root>/restore.log                     full delta reports
type Store struct {
	root     string
	compress bool
	now      func() time.Time
}

// WriteResult describes a snapshot file written by the store.
type WriteResult struct {
	Path       string
	Compressed bool
	Size       int64
}

// NewStore creates a Store rooted at dir. The directory is created on first write.
func NewStore(dir string, compress bool) *Store {
	return &Store{root: dir, compress: compress, now: time.Now}
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// Write serializes a snapshot to a timestamp-named file under the store root.
func (s *Store) Write(snap *models.Snapshot) (*WriteResult, error) {
	name := fmt.Sprintf("snapshot_%s", s.now().UTC().Format("20060102T150405"))
	return s.WriteFile(snap, filepath.Join(s.root, name))
}

// WriteBackup serializes a snapshot under the backups directory. Called
// before any replace-mode restore so destructive changes can be undone by
// restoring the backup.
func (s *Store) WriteBackup(snap *models.Snapshot) (*WriteResult, error) {
	name := fmt.Sprintf("backup_%s", s.now().UTC().Format("20060102T150405"))
	return s.WriteFile(snap, filepath.Join(s.root, "backups", name))
}

// WriteFile serializes a snapshot to the given path (extension appended by
// compression mode).
func (s *Store) WriteFile(snap *models.Snapshot, path string) (*WriteResult, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if s.compress {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to compress snapshot: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("failed to finalize compression: %w", err)
		}
		payload = buf.Bytes()
		path += compressedExt
	} else {
		path += snapshotExt
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := os.WriteFile(path, payload, 0644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}

	return &WriteResult{
		Path:       path,
		Compressed: s.compress,
		Size:       int64(len(payload)),
	}, nil
}

// Read loads and validates a snapshot file, transparently decompressing
// zlib payloads regardless of extension.
func (s *Store) Read(path string) (*models.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", shared.ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", shared.ErrInvalidSnapshot, path)
	}

	if data[0] == zlibMagic {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: bad compressed payload: %v", shared.ErrInvalidSnapshot, err)
		}
		defer zr.Close()

		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("%w: bad compressed payload: %v", shared.ErrInvalidSnapshot, err)
		}
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSnapshot, err)
	}

	if err := snap.Validate(); err != nil {
		return nil, err
	}

	return &snap, nil
}

// FileInfo describes a snapshot file on disk.
type FileInfo struct {
	Path       string
	Name       string
	Size       int64
	Compressed bool
	ModTime    time.Time
}

// List returns snapshot files under the store root, newest first.
// Backups are not included.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, snapshotExt) && !strings.HasSuffix(name, ".z") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:       filepath.Join(s.root, name),
			Name:       name,
			Size:       info.Size(),
			Compressed: strings.HasSuffix(name, ".z"),
			ModTime:    info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// AppendLog appends a report to the restore log under the store root.
// Entries are delimited with a timestamp header and a closing marker so the
// log can be parsed later.
func (s *Store) AppendLog(report string) error {
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := filepath.Join(s.root, "restore.log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open restore log: %w", err)
	}
	defer f.Close()

	entry := fmt.Sprintf("[%s]\n%s\n[/]\n\n", s.now().Format(time.RFC3339), report)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("failed to write restore log: %w", err)
	}

	return nil
}
