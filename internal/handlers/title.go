package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"media-browser/internal/logging"
	"media-browser/internal/scanner"
)

type titleRequest struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// SetTitle sets or clears the display title override for a media file. An
// empty title reverts to the file name.
func (h *Handlers) SetTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rel := scanner.Normalize(req.Path)
	if rel == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	err := h.db.SetTitle(r.Context(), rel, req.Title)
	if errors.Is(err, sql.ErrNoRows) {
		// No record yet means the path was never browsed. Create the
		// record from disk state, then retry.
		node, statErr := h.scanner.Stat(rel)
		if statErr != nil || node.IsDir {
			writeJSONError(w, "File not found", http.StatusNotFound)
			return
		}
		if upsertErr := h.db.UpsertMedia(r.Context(), rel, node.UpdatedAt, node.Size); upsertErr != nil {
			logging.Error("Failed to create record for %s: %v", rel, upsertErr)
			writeJSONError(w, "Failed to set title", http.StatusInternalServerError)
			return
		}
		err = h.db.SetTitle(r.Context(), rel, req.Title)
	}
	if err != nil {
		logging.Error("Failed to set title for %s: %v", rel, err)
		writeJSONError(w, "Failed to set title", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "ok")
}
