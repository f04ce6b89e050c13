package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SubmitJob inserts a pending job unless a live job with the same dedup key
// already exists, in which case the submission is silently absorbed.
// Returns true if a new job was enqueued.
func (d *Database) SubmitJob(ctx context.Context, job ThumbJob) (bool, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("submit_job", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	enqueuedAt := job.EnqueuedAt
	if enqueuedAt.IsZero() {
		enqueuedAt = time.Now()
	}

	// Admission is enforced by the partial unique index, not by a
	// check-then-insert: concurrent producers racing on one key net
	// exactly one live row.
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO thumb_jobs (dedup_key, kind, target_path, status, enqueued_at)
		VALUES (?, ?, ?, 'pending', ?)
		ON CONFLICT(dedup_key) WHERE status IN ('pending', 'claimed') DO NOTHING
	`, job.DedupKey, string(job.Kind), job.TargetPath, enqueuedAt.UnixNano())
	if err != nil {
		return false, fmt.Errorf("failed to submit job %s: %w", job.DedupKey, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ClaimJob atomically claims the most recently enqueued pending job (LIFO)
// and returns it. Returns nil with no error when the queue is empty or
// another consumer won the race.
func (d *Database) ClaimJob(ctx context.Context) (*ThumbJob, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("claim_job", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback()

	var job ThumbJob
	var kind string
	var enqueuedAt int64

	err = tx.QueryRowContext(ctx, `
		SELECT id, dedup_key, kind, target_path, enqueued_at
		FROM thumb_jobs
		WHERE status = 'pending'
		ORDER BY enqueued_at DESC, id DESC
		LIMIT 1
	`).Scan(&job.ID, &job.DedupKey, &kind, &job.TargetPath, &enqueuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select pending job: %w", err)
	}

	// Guard against a concurrent claimer: only the UPDATE that flips the
	// row from pending wins.
	result, err := tx.ExecContext(ctx,
		"UPDATE thumb_jobs SET status = 'claimed', claimed_at = ? WHERE id = ? AND status = 'pending'",
		time.Now().UnixNano(), job.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job %d: %w", job.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, nil
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	job.Kind = JobKind(kind)
	job.EnqueuedAt = time.Unix(0, enqueuedAt)
	return &job, nil
}

// CompleteJob marks a claimed job as done. Done rows are retained briefly
// (see PurgeDoneJobs) and then removed.
func (d *Database) CompleteJob(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("complete_job", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx,
		"UPDATE thumb_jobs SET status = 'done', finished_at = ? WHERE id = ?",
		time.Now().UnixNano(), id,
	)
	return err
}

// DropJob deletes a job immediately. Used for failed jobs, which are never
// retried: the next external submission for the same key starts fresh.
func (d *Database) DropJob(ctx context.Context, id int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("drop_job", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, "DELETE FROM thumb_jobs WHERE id = ?", id)
	return err
}

// ResetClaimedJobs flips claimed jobs back to pending. Called at startup so
// work claimed by a previous process is not stranded. Returns how many jobs
// were reset.
func (d *Database) ResetClaimedJobs(ctx context.Context) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("reset_claimed_jobs", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"UPDATE thumb_jobs SET status = 'pending', claimed_at = NULL WHERE status = 'claimed'",
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PurgeDoneJobs removes done jobs that finished before the cutoff and
// returns how many were removed.
func (d *Database) PurgeDoneJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("purge_jobs", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := d.db.ExecContext(ctx,
		"DELETE FROM thumb_jobs WHERE status = 'done' AND finished_at < ?",
		cutoff.UnixNano(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// PendingJobCount returns the number of pending jobs.
func (d *Database) PendingJobCount(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM thumb_jobs WHERE status = 'pending'",
	).Scan(&count)
	return count, err
}

// LiveJobCountByKey returns the number of live (pending or claimed) jobs for
// a dedup key. Used by tests to verify the admission invariant.
func (d *Database) LiveJobCountByKey(ctx context.Context, dedupKey string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int
	err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM thumb_jobs WHERE dedup_key = ? AND status IN ('pending', 'claimed')",
		dedupKey,
	).Scan(&count)
	return count, err
}
