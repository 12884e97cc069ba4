package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-gateway/internal/startup"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	ActiveJobs   int    `json:"activeJobs"`
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the gateway
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:       "healthy",
		Version:      startup.Version,
		Uptime:       time.Since(h.config.StartTime).Round(time.Second).String(),
		ActiveJobs:   h.streamer.Registry().Len(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, response)
}
