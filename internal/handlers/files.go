package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/mux"

	"media-browser/internal/mediatypes"
	"media-browser/internal/scanner"
)

// GetFile serves a media file from the media root. http.ServeFile handles
// range requests, which video playback depends on.
func (h *Handlers) GetFile(w http.ResponseWriter, r *http.Request) {
	rel := scanner.Normalize(mux.Vars(r)["path"])
	if rel == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	abs, err := h.scanner.Resolve(rel)
	if err != nil {
		writeJSONError(w, "Invalid path", http.StatusBadRequest)
		return
	}

	node, err := h.scanner.Stat(rel)
	if err != nil {
		writeJSONError(w, "File not found", http.StatusNotFound)
		return
	}
	if node.IsDir {
		writeJSONError(w, "Path is a directory", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(strings.ToLower(path.Ext(rel))))
	http.ServeFile(w, r, abs)
}
