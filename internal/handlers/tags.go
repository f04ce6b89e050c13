package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"media-browser/internal/logging"
)

// maxTagLength bounds tag names; anything longer is almost certainly junk.
const maxTagLength = 64

type tagRequest struct {
	Tag string `json:"tag"`
}

// ListTags returns all tags with usage counts.
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.db.ListTags(r.Context())
	if err != nil {
		logging.Error("Failed to list tags: %v", err)
		writeJSONError(w, "Failed to list tags", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{"tags": tags})
}

// TagMedia attaches a tag to a media record, creating the tag on first use.
func (h *Handlers) TagMedia(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := h.mediaIDFromRequest(w, r)
	if !ok {
		return
	}

	tag, ok := parseTag(w, r)
	if !ok {
		return
	}

	if err := h.db.TagMedia(r.Context(), mediaID, tag); err != nil {
		logging.Error("Failed to tag media %d: %v", mediaID, err)
		writeJSONError(w, "Failed to tag media", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "ok")
}

// UntagMedia removes a tag from a media record.
func (h *Handlers) UntagMedia(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := h.mediaIDFromRequest(w, r)
	if !ok {
		return
	}

	tag, ok := parseTag(w, r)
	if !ok {
		return
	}

	if err := h.db.UntagMedia(r.Context(), mediaID, tag); err != nil {
		logging.Error("Failed to untag media %d: %v", mediaID, err)
		writeJSONError(w, "Failed to untag media", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "ok")
}

func parseTag(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return "", false
	}

	tag := strings.TrimSpace(req.Tag)
	if tag == "" || len(tag) > maxTagLength {
		writeJSONError(w, "Invalid tag", http.StatusBadRequest)
		return "", false
	}
	return tag, true
}
