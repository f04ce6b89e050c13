package database

import "time"

// MediaRecord is the persisted metadata for one media file path.
// The filesystem is authoritative for existence; this record is
// authoritative for the title override and carries the last observed
// mtime/size snapshot.
type MediaRecord struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	FileMtime time.Time `json:"fileMtime"`
	FileSize  int64     `json:"fileSize"`
}

// JobKind discriminates thumbnail job targets.
type JobKind string

const (
	// JobKindDirectory targets every media file directly under a directory.
	JobKindDirectory JobKind = "directory"
	// JobKindFile targets exactly one file.
	JobKindFile JobKind = "file"
)

// ThumbJob is one queued thumbnail generation request.
type ThumbJob struct {
	ID         int64
	DedupKey   string
	Kind       JobKind
	TargetPath string
	EnqueuedAt time.Time
}

// Tag is a user-defined label attachable to media.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the single account behind the shared-secret gate.
type User struct {
	ID         int64     `json:"id"`
	SecretHash string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Session is an authenticated browser session.
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
