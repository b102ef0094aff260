package repositories

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
)

func setupDB(t *testing.T) *SnapshotRepository {
	t.Helper()
	db, err := shared.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return NewSnapshotRepository(db)
}

func TestSnapshotRepository(t *testing.T) {
	repo := setupDB(t)

	t.Run("create and get", func(t *testing.T) {
		record := &models.SnapshotRecord{
			Path:          "/tmp/snapshot_a.json",
			UserID:        "user1",
			UserName:      "Test User",
			LikedCount:    42,
			OwnedCount:    3,
			FollowedCount: 1,
			Compressed:    true,
		}

		if err := repo.Create(record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if record.ID == "" {
			t.Error("expected a generated ID")
		}

		got, err := repo.GetByPath("/tmp/snapshot_a.json")
		if err != nil {
			t.Fatalf("GetByPath failed: %v", err)
		}
		if got.UserID != "user1" || got.LikedCount != 42 || !got.Compressed {
			t.Errorf("record mismatch: %+v", got)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := repo.GetByPath("/nope"); !errors.Is(err, shared.ErrSnapshotNotFound) {
			t.Errorf("err = %v, want ErrSnapshotNotFound", err)
		}
	})

	t.Run("rejects incomplete records", func(t *testing.T) {
		if err := repo.Create(&models.SnapshotRecord{Path: "/tmp/x.json"}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("list newest first with limit", func(t *testing.T) {
		// Fresh database so rows inserted by earlier subtests cannot
		// outrank the dated fixtures.
		repo := setupDB(t)

		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, path := range []string{"/tmp/s1.json", "/tmp/s2.json", "/tmp/s3.json"} {
			record := &models.SnapshotRecord{
				Path:      path,
				UserID:    "user1",
				UserName:  "Test User",
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			}
			if err := repo.Create(record); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		records, err := repo.List(2)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("len = %d, want 2", len(records))
		}
		if records[0].Path != "/tmp/s3.json" {
			t.Errorf("first = %s, want newest", records[0].Path)
		}
	})
}

func TestRestoreRunRepository(t *testing.T) {
	snapRepo := setupDB(t)
	repo := NewRestoreRunRepository(snapRepo.db)

	t.Run("create and list", func(t *testing.T) {
		record := &models.RestoreRunRecord{
			SnapshotPath:     "/tmp/snapshot_a.json",
			Mode:             "replace",
			DryRun:           false,
			PlaylistsChanged: 2,
			TracksAdded:      10,
			TracksRemoved:    4,
			TracksSkipped:    1,
		}

		if err := repo.Create(record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		runs, err := repo.List(0)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("len = %d, want 1", len(runs))
		}
		if runs[0].Mode != "replace" || runs[0].TracksAdded != 10 {
			t.Errorf("run mismatch: %+v", runs[0])
		}
	})

	t.Run("dry runs are recorded too", func(t *testing.T) {
		record := &models.RestoreRunRecord{
			SnapshotPath: "/tmp/snapshot_a.json",
			Mode:         "additive",
			DryRun:       true,
		}
		if err := repo.Create(record); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		runs, err := repo.List(1)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if !runs[0].DryRun {
			t.Error("expected newest run to be a dry run")
		}
	})

	t.Run("rejects incomplete records", func(t *testing.T) {
		if err := repo.Create(&models.RestoreRunRecord{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	})
}
