// Package queue implements the durable thumbnail job queue. Jobs are
// persisted in SQLite, deduplicated by key while live, and handed to
// consumers newest first.
package queue
