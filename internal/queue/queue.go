package queue

import (
	"context"
	"sync"
	"time"

	"media-browser/internal/database"
	"media-browser/internal/logging"
	"media-browser/internal/metrics"
)

const (
	// doneRetention is how long completed jobs linger before the sweeper
	// removes them.
	doneRetention = 30 * time.Second

	// sweepInterval is how often the retention sweeper runs.
	sweepInterval = 15 * time.Second

	// claimPollInterval bounds how long an idle consumer waits before
	// re-checking for work it was not woken for.
	claimPollInterval = time.Second
)

// Queue is the durable thumbnail job queue. Submissions are deduplicated on
// the job's key while a job for that key is live; consumption is newest
// first. State lives in SQLite so queued work survives restarts.
type Queue struct {
	db   *database.Database
	wake chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a queue backed by the given database.
func New(db *database.Database) *Queue {
	return &Queue{
		db:   db,
		wake: make(chan struct{}, 1),
	}
}

// Start launches the retention sweeper. Jobs left claimed by a previous
// process are reset to pending so they get picked up again.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	if reset, err := q.db.ResetClaimedJobs(ctx); err != nil {
		logging.Error("Failed to reset claimed jobs: %v", err)
	} else if reset > 0 {
		logging.Info("Reset %d jobs left claimed by a previous run", reset)
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.done = make(chan struct{})

	go q.sweep(sweepCtx)
	q.signal()
	logging.Info("Job queue started")
}

// Stop halts the sweeper and waits for it to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.started {
		return
	}
	q.started = false

	q.cancel()
	<-q.done
	logging.Info("Job queue stopped")
}

// Submit enqueues a job unless one with the same key is already live.
// Returns true if the job was admitted.
func (q *Queue) Submit(ctx context.Context, job database.ThumbJob) (bool, error) {
	accepted, err := q.db.SubmitJob(ctx, job)
	if err != nil {
		return false, err
	}

	if accepted {
		metrics.QueueSubmissionsTotal.WithLabelValues("accepted").Inc()
		q.signal()
	} else {
		metrics.QueueSubmissionsTotal.WithLabelValues("duplicate").Inc()
	}
	return accepted, nil
}

// Claim blocks until a job is available or the context is cancelled.
// Returns nil when cancelled.
func (q *Queue) Claim(ctx context.Context) (*database.ThumbJob, error) {
	ticker := time.NewTicker(claimPollInterval)
	defer ticker.Stop()

	for {
		job, err := q.db.ClaimJob(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, err
		}
		if job != nil {
			metrics.QueueClaimsTotal.Inc()
			q.updateDepth(ctx)
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, nil
		case <-q.wake:
		case <-ticker.C:
		}
	}
}

// Complete marks a claimed job done. The done row sits under retention so
// rapid resubmissions for the same key stay deduplicated briefly.
func (q *Queue) Complete(ctx context.Context, id int64) error {
	return q.db.CompleteJob(ctx, id)
}

// Drop discards a job permanently. Used for failures, which are not retried.
func (q *Queue) Drop(ctx context.Context, id int64) error {
	return q.db.DropJob(ctx, id)
}

// Depth returns the number of pending jobs.
func (q *Queue) Depth(ctx context.Context) (int, error) {
	return q.db.PendingJobCount(ctx)
}

// signal nudges one blocked consumer. The buffer of one collapses bursts.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) updateDepth(ctx context.Context) {
	if depth, err := q.db.PendingJobCount(ctx); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}
}

func (q *Queue) sweep(ctx context.Context) {
	defer close(q.done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := q.db.PurgeDoneJobs(ctx, time.Now().Add(-doneRetention))
			if err != nil {
				if ctx.Err() == nil {
					logging.Error("Job retention sweep failed: %v", err)
				}
				continue
			}
			if purged > 0 {
				metrics.QueuePurgedTotal.WithLabelValues("done").Add(float64(purged))
				logging.Debug("Swept %d completed jobs", purged)
			}
			q.updateDepth(ctx)
		}
	}
}
