package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"media-browser/internal/database"
	"media-browser/internal/logging"
)

// SessionCookieName is the name of the session cookie.
const SessionCookieName = "media_browser_session"

// defaultUserID is used when the gate is open (no shared secret configured).
const defaultUserID int64 = 1

type contextKey string

const userIDKey contextKey = "userID"

// userIDFrom returns the authenticated user ID from the request context.
func userIDFrom(ctx context.Context) int64 {
	if id, ok := ctx.Value(userIDKey).(int64); ok {
		return id
	}
	return defaultUserID
}

// LoginRequest carries the shared secret.
type LoginRequest struct {
	Secret string `json:"secret"`
}

// AuthResponse is the payload for authentication endpoints.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// Login validates the shared secret and establishes a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.db.ValidateSecret(ctx, req.Secret)
	if err != nil {
		logging.Warn("Failed login attempt")
		writeJSONError(w, "Invalid secret", http.StatusUnauthorized)
		return
	}

	token, err := h.db.CreateSession(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		writeJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(database.SessionDuration),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{
		Success:   true,
		ExpiresIn: int(database.SessionDuration.Seconds()),
	})
}

// Logout destroys the current session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			logging.Warn("Failed to delete session: %v", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, AuthResponse{Success: true})
}

// CheckAuth reports whether the caller holds a valid session. When no
// secret is configured the gate is open and every caller is authenticated.
func (h *Handlers) CheckAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	w.Header().Set("Content-Type", "application/json")

	if !h.db.HasSecret(ctx) {
		writeJSON(w, map[string]bool{"authenticated": true, "gateOpen": true})
		return
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		writeJSON(w, map[string]bool{"authenticated": false})
		return
	}
	if _, err := h.db.GetSession(ctx, cookie.Value); err != nil {
		writeJSON(w, map[string]bool{"authenticated": false})
		return
	}
	writeJSON(w, map[string]bool{"authenticated": true})
}

// AuthMiddleware gates API routes behind the shared secret. Auth and health
// endpoints always pass; everything else needs a valid session unless no
// secret has been configured yet.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if strings.HasPrefix(r.URL.Path, "/api/auth/") ||
			r.URL.Path == "/health" ||
			r.URL.Path == "/healthz" ||
			r.URL.Path == "/livez" ||
			r.URL.Path == "/readyz" {
			next.ServeHTTP(w, r)
			return
		}

		if !h.db.HasSecret(ctx) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userIDKey, defaultUserID)))
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		session, err := h.db.GetSession(ctx, cookie.Value)
		if err != nil {
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    "",
				Path:     "/",
				Expires:  time.Unix(0, 0),
				HttpOnly: true,
			})
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userIDKey, session.UserID)))
	})
}
