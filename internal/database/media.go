package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"media-browser/internal/metrics"
)

// UpsertMedia ensures a metadata record exists for path, capturing the
// current mtime/size snapshot. The upsert is atomic on the unique path
// column: concurrent visits to the same directory cannot create duplicate
// rows or lose an mtime/size update. The title override is never touched
// here.
func (d *Database) UpsertMedia(ctx context.Context, path string, mtime time.Time, size int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_media", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
	INSERT INTO media (path, file_mtime, file_size)
	VALUES (?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		file_mtime = excluded.file_mtime,
		file_size = excluded.file_size,
		updated_at = strftime('%s', 'now')
	WHERE media.file_mtime != excluded.file_mtime
	   OR media.file_size != excluded.file_size
	`

	_, err = d.db.ExecContext(ctx, query, path, mtime.Unix(), size)
	if err != nil {
		metrics.ReconcilerUpsertsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to upsert media %s: %w", path, err)
	}
	metrics.ReconcilerUpsertsTotal.WithLabelValues("success").Inc()
	return nil
}

// GetMediaByPath retrieves a single metadata record.
// Returns sql.ErrNoRows if the path has never been reconciled.
func (d *Database) GetMediaByPath(ctx context.Context, path string) (*MediaRecord, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_media", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec MediaRecord
	var title sql.NullString
	var mtime int64

	err = d.db.QueryRowContext(ctx,
		"SELECT id, path, title, file_mtime, file_size FROM media WHERE path = ?",
		path,
	).Scan(&rec.ID, &rec.Path, &title, &mtime, &rec.FileSize)
	if err != nil {
		return nil, err
	}

	rec.Title = title.String
	rec.FileMtime = time.Unix(mtime, 0)
	return &rec, nil
}

// GetMediaByID retrieves a single metadata record by primary key.
func (d *Database) GetMediaByID(ctx context.Context, id int64) (*MediaRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec MediaRecord
	var title sql.NullString
	var mtime int64

	err := d.db.QueryRowContext(ctx,
		"SELECT id, path, title, file_mtime, file_size FROM media WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.Path, &title, &mtime, &rec.FileSize)
	if err != nil {
		return nil, err
	}

	rec.Title = title.String
	rec.FileMtime = time.Unix(mtime, 0)
	return &rec, nil
}

// GetMediaByPaths retrieves metadata records for a set of paths, keyed by
// path. Paths with no record are simply absent from the result; the caller
// merges with defaults.
func (d *Database) GetMediaByPaths(ctx context.Context, paths []string) (map[string]MediaRecord, error) {
	if len(paths) == 0 {
		return map[string]MediaRecord{}, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("get_media_batch", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, path, title, file_mtime, file_size FROM media WHERE path IN (%s)",
		placeholders(len(paths)),
	)
	args := make([]interface{}, len(paths))
	for i, p := range paths {
		args[i] = p
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query media records: %w", err)
	}
	defer rows.Close()

	result := make(map[string]MediaRecord, len(paths))
	for rows.Next() {
		var rec MediaRecord
		var title sql.NullString
		var mtime int64

		if scanErr := rows.Scan(&rec.ID, &rec.Path, &title, &mtime, &rec.FileSize); scanErr != nil {
			continue
		}
		rec.Title = title.String
		rec.FileMtime = time.Unix(mtime, 0)
		result[rec.Path] = rec
	}
	err = rows.Err()
	return result, err
}

// SetTitle sets or clears the title override for a path.
// Returns sql.ErrNoRows if no metadata record exists yet.
func (d *Database) SetTitle(ctx context.Context, path, title string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("set_title", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value interface{}
	if strings.TrimSpace(title) != "" {
		value = title
	}

	result, err := d.db.ExecContext(ctx,
		"UPDATE media SET title = ?, updated_at = strftime('%s', 'now') WHERE path = ?",
		value, path,
	)
	if err != nil {
		return fmt.Errorf("failed to set title for %s: %w", path, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}
	return nil
}

// MediaCount returns the number of metadata records.
func (d *Database) MediaCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media").Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return count, nil
}
