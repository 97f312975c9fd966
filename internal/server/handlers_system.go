package server

import (
	"net/http"
	"time"

	"stockpulse/internal/database"
	"stockpulse/internal/logging"
	"stockpulse/internal/version"
)

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleVersion reports the running build.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

// handleSystemVitals returns the latest sample plus the last hour of
// history from the vitals log.
func (s *Server) handleSystemVitals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	latest, err := database.GetLatestVital()
	if err != nil {
		logging.Error("Failed to load latest vitals: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load vitals")
		return
	}

	history, err := database.GetVitalsSince(time.Now().Add(-time.Hour))
	if err != nil {
		logging.Error("Failed to load vitals history: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load vitals")
		return
	}

	resp := map[string]interface{}{
		"history": history,
	}
	if latest != nil {
		resp["current"] = map[string]interface{}{
			"cpu_percent":  latest.CPUPercent,
			"mem_percent":  latest.MemoryPercent,
			"disk_percent": latest.DiskUsagePercent,
			"timestamp":    latest.Timestamp.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
