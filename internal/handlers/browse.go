package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"media-browser/internal/logging"
	"media-browser/internal/reconciler"
	"media-browser/internal/scanner"
)

// backgroundTimeout bounds the post-response work a browse request kicks off.
const backgroundTimeout = 30 * time.Second

// BrowseResponse is the payload for a directory listing.
type BrowseResponse struct {
	Path        string             `json:"path"`
	Entries     []reconciler.Entry `json:"entries"`
	LastVisited *time.Time         `json:"lastVisited,omitempty"`
}

// Browse serves a directory listing: the live filesystem view decorated with
// persisted metadata. The response never waits on metadata writes or
// thumbnail work; those run after the listing is sent.
func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	rel := scanner.Normalize(r.URL.Query().Get("path"))

	nodes, err := h.scanner.List(rel)
	if err != nil {
		if errors.Is(err, scanner.ErrNotFound) {
			writeJSONError(w, "Directory not found", http.StatusNotFound)
			return
		}
		logging.Error("Browse failed for %s: %v", rel, err)
		writeJSONError(w, "Failed to read directory", http.StatusInternalServerError)
		return
	}

	userID := userIDFrom(r.Context())
	entries := h.reconciler.Merge(r.Context(), userID, nodes)

	resp := BrowseResponse{Path: rel, Entries: entries}
	if visited, ok, err := h.db.LastVisit(r.Context(), userID, rel); err != nil {
		logging.Warn("Failed to load last visit for %s: %v", rel, err)
	} else if ok {
		resp.LastVisited = &visited
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)

	// Fire-and-forget: sync observed state back, record the visit, and
	// dispatch thumbnail jobs for anything uncached. The request context
	// is gone once the response is written, so these get their own.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()

		h.reconciler.Sync(ctx, nodes)
		if err := h.db.RecordVisit(ctx, userID, rel); err != nil {
			logging.Warn("Failed to record visit for %s: %v", rel, err)
		}
		h.dispatcher.SweepListing(ctx, nodes)
	}()
}
