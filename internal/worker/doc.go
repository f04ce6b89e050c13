// Package worker runs the thumbnail generation pool. Workers claim queued
// jobs newest first, expand directory jobs to their media files, and
// broadcast a completion event per finished job.
package worker
