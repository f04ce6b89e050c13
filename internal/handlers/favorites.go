package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"media-browser/internal/logging"
)

// ListFavorites returns the caller's favorites, most recent first.
func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.db.ListFavorites(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		logging.Error("Failed to list favorites: %v", err)
		writeJSONError(w, "Failed to list favorites", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{"favorites": favorites})
}

// AddFavorite marks a media record as a favorite. Idempotent.
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := h.mediaIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.db.AddFavorite(r.Context(), userIDFrom(r.Context()), mediaID); err != nil {
		logging.Error("Failed to add favorite: %v", err)
		writeJSONError(w, "Failed to add favorite", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "ok")
}

// RemoveFavorite removes a favorite. Idempotent.
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	mediaID, ok := h.mediaIDFromRequest(w, r)
	if !ok {
		return
	}

	if err := h.db.RemoveFavorite(r.Context(), userIDFrom(r.Context()), mediaID); err != nil {
		logging.Error("Failed to remove favorite: %v", err)
		writeJSONError(w, "Failed to remove favorite", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "ok")
}

// mediaIDFromRequest parses and validates the {id} route variable against
// the media table.
func (h *Handlers) mediaIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	mediaID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeJSONError(w, "Invalid media id", http.StatusBadRequest)
		return 0, false
	}

	if _, err := h.db.GetMediaByID(r.Context(), mediaID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, "Media not found", http.StatusNotFound)
		} else {
			logging.Error("Failed to look up media %d: %v", mediaID, err)
			writeJSONError(w, "Failed to look up media", http.StatusInternalServerError)
		}
		return 0, false
	}
	return mediaID, true
}
