package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-browser/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse is the payload for the health endpoint.
type HealthResponse struct {
	Status       string `json:"status"`
	Ready        bool   `json:"ready"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	PendingJobs  int    `json:"pendingJobs"`
	Subscribers  int    `json:"subscribers"`
	MediaRecords int    `json:"mediaRecords,omitempty"`
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports service health plus pipeline statistics.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := HealthResponse{
		Status:       statusHealthy,
		Ready:        true,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Subscribers:  h.bus.SubscriberCount(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	pending, err := h.queue.Depth(ctx)
	if err != nil {
		response.Status = statusDegraded
	} else {
		response.PendingJobs = pending
	}

	if count, err := h.db.MediaCount(ctx); err == nil {
		response.MediaRecords = count
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}

// LivenessCheck always answers 200 while the process is up.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck answers 200 once the database responds.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.MediaCount(r.Context()); err != nil {
		writeJSONError(w, "Database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSONStatus(w, "ready")
}

// GetVersion returns build metadata.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, startup.GetBuildInfo())
}
