package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"media-browser/internal/logging"
	"media-browser/internal/scanner"
)

// enqueueRequest is the body for explicit thumbnail generation requests.
type enqueueRequest struct {
	Path string `json:"path"`
}

// enqueueResponse reports whether the submission was admitted or absorbed
// as a duplicate of a live job.
type enqueueResponse struct {
	Accepted bool   `json:"accepted"`
	Path     string `json:"path"`
}

// GetThumbnail serves a cached thumbnail artifact. A 404 means the artifact
// is not ready yet; clients listen on the event stream and retry.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	rel := scanner.Normalize(mux.Vars(r)["path"])
	if rel == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	if !h.thumbs.Enabled() {
		writeJSONError(w, "Thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	data, err := h.thumbs.Read(rel)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSONError(w, "Thumbnail not ready", http.StatusNotFound)
			return
		}
		logging.Error("Thumbnail read failed for %s: %v", rel, err)
		writeJSONError(w, "Failed to read thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Write(data)
}

// EnqueueDirectoryThumbnails requests generation for every media file in a
// directory. Always answers 202: the work happens in the background and
// completion is announced on the event stream.
func (h *Handlers) EnqueueDirectoryThumbnails(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rel := scanner.Normalize(req.Path)
	if _, err := h.scanner.List(rel); err != nil {
		writeJSONError(w, "Directory not found", http.StatusNotFound)
		return
	}

	accepted := h.dispatcher.EnqueueDirectory(r.Context(), rel)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, enqueueResponse{Accepted: accepted, Path: rel})
}

// EnqueueFileThumbnail requests generation for a single file.
func (h *Handlers) EnqueueFileThumbnail(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rel := scanner.Normalize(req.Path)
	node, err := h.scanner.Stat(rel)
	if err != nil || node.IsDir {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}

	accepted := h.dispatcher.EnqueueFile(r.Context(), rel)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, enqueueResponse{Accepted: accepted, Path: rel})
}
