package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RecordVisit upserts the last-visited timestamp for a user and directory
// path. Concurrent visits to the same path resolve to the latest timestamp.
func (d *Database) RecordVisit(ctx context.Context, userID int64, path string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("record_visit", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO visits (user_id, path, visited_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, path) DO UPDATE SET
			visited_at = MAX(visits.visited_at, excluded.visited_at)
	`, userID, path, time.Now().Unix())
	return err
}

// LastVisit returns when a user last visited a directory path.
// The second return value is false if the path was never visited.
func (d *Database) LastVisit(ctx context.Context, userID int64, path string) (time.Time, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var visitedAt int64
	err := d.db.QueryRowContext(ctx,
		"SELECT visited_at FROM visits WHERE user_id = ? AND path = ?",
		userID, path,
	).Scan(&visitedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(visitedAt, 0), true, nil
}
