package dispatch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"media-browser/internal/database"
	"media-browser/internal/logging"
	"media-browser/internal/mediatypes"
	"media-browser/internal/scanner"
)

// Key derives the deduplication key for a normalized path: the first twelve
// hex characters of its SHA-256 digest. Directory and file jobs for the same
// path share a key, so at most one job per path is ever live.
func Key(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:])[:12]
}

// Submitter admits jobs into the queue.
type Submitter interface {
	Submit(ctx context.Context, job database.ThumbJob) (bool, error)
}

// ArtifactChecker reports whether a thumbnail artifact already exists for a
// file path.
type ArtifactChecker interface {
	Exists(path string) bool
}

// Dispatcher turns browse activity and explicit requests into queued
// thumbnail jobs. Submissions are fire-and-forget: duplicates are absorbed
// by the queue and failures are logged, never surfaced to the caller's
// request path.
type Dispatcher struct {
	queue     Submitter
	artifacts ArtifactChecker
}

// New creates a dispatcher.
func New(queue Submitter, artifacts ArtifactChecker) *Dispatcher {
	return &Dispatcher{queue: queue, artifacts: artifacts}
}

// SweepListing submits a file job for every thumbable entry in a directory
// listing that has no artifact yet. Returns the number of admitted jobs.
func (d *Dispatcher) SweepListing(ctx context.Context, nodes []scanner.Node) int {
	var admitted int
	for _, node := range nodes {
		if node.IsDir || !mediatypes.Thumbable(node.MediaType) {
			continue
		}
		if d.artifacts.Exists(node.Path) {
			continue
		}
		if d.submit(ctx, database.JobKindFile, node.Path) {
			admitted++
		}
	}
	if admitted > 0 {
		logging.Debug("Listing sweep admitted %d thumbnail jobs", admitted)
	}
	return admitted
}

// EnqueueDirectory submits a single directory job. The worker expands it to
// the directory's media files at execution time.
func (d *Dispatcher) EnqueueDirectory(ctx context.Context, dirPath string) bool {
	return d.submit(ctx, database.JobKindDirectory, dirPath)
}

// EnqueueFile submits a job for one file.
func (d *Dispatcher) EnqueueFile(ctx context.Context, filePath string) bool {
	return d.submit(ctx, database.JobKindFile, filePath)
}

func (d *Dispatcher) submit(ctx context.Context, kind database.JobKind, path string) bool {
	accepted, err := d.queue.Submit(ctx, database.ThumbJob{
		DedupKey:   Key(path),
		Kind:       kind,
		TargetPath: path,
		EnqueuedAt: time.Now(),
	})
	if err != nil {
		logging.Error("Failed to submit %s job for %s: %v", kind, path, err)
		return false
	}
	return accepted
}
