// package repositories persists capture and restore history in SQLite.
//
// History is advisory: snapshot files on disk are the source of truth, the
// database only answers "what ran when". Records are never updated or
// deleted; both tables are append-only logs.
package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotsnap/internal/models"
	"github.com/desertthunder/spotsnap/internal/shared"
)

// SnapshotRepository records captured snapshots.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a SnapshotRepository with the given database connection
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create inserts a snapshot record with a generated ID.
func (r *SnapshotRepository) Create(record *models.SnapshotRecord) error {
	if record.Path == "" || record.UserID == "" {
		return fmt.Errorf("%w: snapshot record requires path and user_id", shared.ErrInvalidInput)
	}

	record.ID = shared.GenerateID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO snapshots (id, path, user_id, user_name, liked_count, owned_count, followed_count, compressed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.Path,
		record.UserID,
		record.UserName,
		record.LikedCount,
		record.OwnedCount,
		record.FollowedCount,
		record.Compressed,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot record: %w", err)
	}

	return nil
}

// GetByPath retrieves the record for a snapshot file.
func (r *SnapshotRepository) GetByPath(path string) (*models.SnapshotRecord, error) {
	query := `
		SELECT id, path, user_id, user_name, liked_count, owned_count, followed_count, compressed, created_at
		FROM snapshots
		WHERE path = ?
	`

	record := &models.SnapshotRecord{}
	err := r.db.QueryRow(query, path).Scan(
		&record.ID,
		&record.Path,
		&record.UserID,
		&record.UserName,
		&record.LikedCount,
		&record.OwnedCount,
		&record.FollowedCount,
		&record.Compressed,
		&record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no record for %s", shared.ErrSnapshotNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan snapshot record: %w", err)
	}

	return record, nil
}

// List retrieves snapshot records, newest first. A limit of 0 returns everything.
func (r *SnapshotRepository) List(limit int) ([]*models.SnapshotRecord, error) {
	query := `
		SELECT id, path, user_id, user_name, liked_count, owned_count, followed_count, compressed, created_at
		FROM snapshots
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var records []*models.SnapshotRecord
	for rows.Next() {
		record := &models.SnapshotRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.Path,
			&record.UserID,
			&record.UserName,
			&record.LikedCount,
			&record.OwnedCount,
			&record.FollowedCount,
			&record.Compressed,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// RestoreRunRepository records restore runs, including dry runs.
type RestoreRunRepository struct {
	db *sql.DB
}

// NewRestoreRunRepository creates a RestoreRunRepository with the given database connection
func NewRestoreRunRepository(db *sql.DB) *RestoreRunRepository {
	return &RestoreRunRepository{db: db}
}

// Create inserts a restore run record with a generated ID.
func (r *RestoreRunRepository) Create(record *models.RestoreRunRecord) error {
	if record.SnapshotPath == "" || record.Mode == "" {
		return fmt.Errorf("%w: restore run record requires snapshot_path and mode", shared.ErrInvalidInput)
	}

	record.ID = shared.GenerateID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO restore_runs (id, snapshot_path, mode, dry_run, playlists_changed, tracks_added, tracks_removed, tracks_skipped, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.SnapshotPath,
		record.Mode,
		record.DryRun,
		record.PlaylistsChanged,
		record.TracksAdded,
		record.TracksRemoved,
		record.TracksSkipped,
		record.Error,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert restore run: %w", err)
	}

	return nil
}

// List retrieves restore runs, newest first. A limit of 0 returns everything.
func (r *RestoreRunRepository) List(limit int) ([]*models.RestoreRunRecord, error) {
	query := `
		SELECT id, snapshot_path, mode, dry_run, playlists_changed, tracks_added, tracks_removed, tracks_skipped, error, created_at
		FROM restore_runs
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query restore runs: %w", err)
	}
	defer rows.Close()

	var records []*models.RestoreRunRecord
	for rows.Next() {
		record := &models.RestoreRunRecord{}
		var errText sql.NullString
		if err := rows.Scan(
			&record.ID,
			&record.SnapshotPath,
			&record.Mode,
			&record.DryRun,
			&record.PlaylistsChanged,
			&record.TracksAdded,
			&record.TracksRemoved,
			&record.TracksSkipped,
			&errText,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan restore run: %w", err)
		}
		record.Error = errText.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
