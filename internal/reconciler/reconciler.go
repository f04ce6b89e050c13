package reconciler

import (
	"context"
	"time"

	"media-browser/internal/database"
	"media-browser/internal/logging"
	"media-browser/internal/metrics"
	"media-browser/internal/scanner"
)

// Entry is one listing item as presented to clients: the live filesystem
// view merged with whatever persisted metadata exists for it.
type Entry struct {
	scanner.Node
	MediaID  int64    `json:"mediaId,omitempty"`
	Title    string   `json:"title"`
	Favorite bool     `json:"favorite"`
	Tags     []string `json:"tags,omitempty"`
}

// Reconciler merges filesystem listings with database metadata and writes
// observed filesystem state back. The filesystem is authoritative for
// existence; the database is authoritative for user metadata.
type Reconciler struct {
	db *database.Database
}

// New creates a reconciler.
func New(db *database.Database) *Reconciler {
	return &Reconciler{db: db}
}

// Merge decorates listing nodes with persisted metadata. Nodes with no
// record yet get defaults: title equal to the file name, no favorite, no
// tags. Metadata lookups are best effort; on failure the bare defaults are
// served rather than failing the listing.
func (r *Reconciler) Merge(ctx context.Context, userID int64, nodes []scanner.Node) []Entry {
	entries := make([]Entry, len(nodes))
	for i, node := range nodes {
		entries[i] = Entry{Node: node, Title: node.Name}
	}

	paths := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if !node.IsDir {
			paths = append(paths, node.Path)
		}
	}
	if len(paths) == 0 {
		return entries
	}

	records, err := r.db.GetMediaByPaths(ctx, paths)
	if err != nil {
		logging.Warn("Metadata lookup failed, serving defaults: %v", err)
		return entries
	}

	ids := make([]int64, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}

	favorites, err := r.db.FavoriteIDs(ctx, userID, ids)
	if err != nil {
		logging.Warn("Favorite lookup failed: %v", err)
		favorites = map[int64]bool{}
	}
	tags, err := r.db.TagsByMediaIDs(ctx, ids)
	if err != nil {
		logging.Warn("Tag lookup failed: %v", err)
		tags = map[int64][]string{}
	}

	for i := range entries {
		rec, ok := records[entries[i].Path]
		if !ok {
			continue
		}
		entries[i].MediaID = rec.ID
		if rec.Title != "" {
			entries[i].Title = rec.Title
		}
		entries[i].Favorite = favorites[rec.ID]
		entries[i].Tags = tags[rec.ID]
	}
	return entries
}

// Sync upserts a metadata record for every file node, capturing the current
// mtime/size snapshot. Runs after the listing response is sent; individual
// failures are logged and skipped so one bad row never aborts the pass.
func (r *Reconciler) Sync(ctx context.Context, nodes []scanner.Node) {
	start := time.Now()
	var synced int
	for _, node := range nodes {
		if node.IsDir {
			continue
		}
		if err := r.db.UpsertMedia(ctx, node.Path, node.UpdatedAt, node.Size); err != nil {
			logging.Warn("Sync upsert failed for %s: %v", node.Path, err)
			continue
		}
		synced++
	}
	metrics.ReconcilerSyncDuration.Observe(time.Since(start).Seconds())
	if synced > 0 {
		logging.Debug("Synced %d records in %v", synced, time.Since(start))
	}
}
