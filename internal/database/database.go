package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-browser/internal/logging"
	"media-browser/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Database manages all durable state for the media browser: metadata
// records, favorites, tags, visit history, sessions and the thumbnail job
// queue.
type Database struct {
	db     *sql.DB
	dbPath string
}

// New opens (and if necessary creates) the database at dbPath. The parent
// directory must already exist and be writable; use startup.LoadConfig to
// validate that before calling.
func New(ctx context.Context, dbPath string) (*Database, error) {
	logging.Info("Database path: %s", dbPath)

	// WAL mode so readers never block the writer; busy_timeout prevents
	// "database is locked" errors under concurrent request handling.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	d := &Database{
		db:     db,
		dbPath: dbPath,
	}

	if err := d.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Database initialized successfully at %s", dbPath)
	return d, nil
}

func (d *Database) initialize(ctx context.Context) error {
	schema := `
	-- Metadata records: one row per media file path. The filesystem owns
	-- existence; this table owns user metadata. Rows are never deleted by
	-- the reconciler.
	CREATE TABLE IF NOT EXISTS media (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		title TEXT,
		file_mtime INTEGER NOT NULL,
		file_size INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_media_path ON media(path);

	-- Favorites: existence of a row implies "favorited".
	CREATE TABLE IF NOT EXISTS favorites (
		user_id INTEGER NOT NULL,
		media_id INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (user_id, media_id),
		FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE
	);

	-- Tags and media-tag associations.
	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS media_tags (
		media_id INTEGER NOT NULL,
		tag_id INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		PRIMARY KEY (media_id, tag_id),
		FOREIGN KEY (media_id) REFERENCES media(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
	);

	-- Per-user directory visit history.
	CREATE TABLE IF NOT EXISTS visits (
		user_id INTEGER NOT NULL,
		path TEXT NOT NULL,
		visited_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, path)
	);

	-- Single-user shared-secret gate.
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		secret_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now')),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_token ON sessions(token);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);

	-- Thumbnail job queue. enqueued_at is in nanoseconds so LIFO ordering
	-- is stable even for submissions within the same second.
	CREATE TABLE IF NOT EXISTS thumb_jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dedup_key TEXT NOT NULL,
		kind TEXT NOT NULL,
		target_path TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		enqueued_at INTEGER NOT NULL,
		claimed_at INTEGER,
		finished_at INTEGER
	);

	-- At most one live (pending or claimed) job per dedup key. The queue's
	-- admission policy is this index, not any application-level check.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_thumb_jobs_live
		ON thumb_jobs(dedup_key) WHERE status IN ('pending', 'claimed');

	CREATE INDEX IF NOT EXISTS idx_thumb_jobs_claim
		ON thumb_jobs(status, enqueued_at);
	`

	_, err := d.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// recordQuery records database query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateConnMetrics refreshes database connection gauges.
func (d *Database) UpdateConnMetrics() {
	stats := d.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, '?')
	}
	return string(b)
}
