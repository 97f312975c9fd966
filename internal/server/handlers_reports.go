package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockpulse/internal/analysis"
	"stockpulse/internal/database"
	"stockpulse/internal/logging"
)

type sendAnalysisRequest struct {
	Symbol    string `json:"symbol"`
	Period    string `json:"period"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// handleSendAnalysis queues a report job for background delivery to the
// authenticated user's email.
func (s *Server) handleSendAnalysis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	user := getUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}
	if !s.mailEnabled {
		writeError(w, http.StatusServiceUnavailable, msgEmailDisabled)
		return
	}

	var req sendAnalysisRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidRequestBody)
		return
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "A symbol is required")
		return
	}
	if _, err := analysis.ParsePeriod(req.Period); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	if req.EndDate == "" {
		req.EndDate = now.Format(queryDateLayout)
	}
	if req.StartDate == "" {
		req.StartDate = now.AddDate(0, 0, -defaultLookbackDays).Format(queryDateLayout)
	}
	for _, date := range []string{req.StartDate, req.EndDate} {
		if _, err := time.Parse(queryDateLayout, date); err != nil {
			writeError(w, http.StatusBadRequest, "Dates must use the DD-MM-YYYY format")
			return
		}
	}

	job := &database.ReportJob{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Symbol:    req.Symbol,
		Recipient: user.Email,
		Period:    req.Period,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := database.CreateReportJob(job); err != nil {
		logging.Error("Failed to queue report job: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to queue report")
		return
	}

	s.reportQueue.Enqueue(job.ID)
	logging.Printf("Queued report job %s (%s for %s)", job.ID, job.Symbol, job.Recipient)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"detail": msgReportQueued,
		"job_id": job.ID,
	})
}

// handleReportStatus returns the state of a queued report job.
func (s *Server) handleReportStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	user := getUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	jobID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/reports/status/"), "/")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "A job ID is required")
		return
	}

	job, err := database.GetReportJob(jobID)
	if err != nil {
		if database.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Report job not found")
			return
		}
		logging.Error("Failed to load report job %s: %v", jobID, err)
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	// Jobs belonging to other users look like missing jobs.
	if job.UserID != user.ID {
		writeError(w, http.StatusNotFound, "Report job not found")
		return
	}

	resp := map[string]interface{}{
		"job_id":     job.ID,
		"symbol":     job.Symbol,
		"status":     job.Status,
		"created_at": job.CreatedAt.Format(time.RFC3339),
	}
	if job.ErrorMessage.Valid {
		resp["error"] = job.ErrorMessage.String
	}
	if job.CompletedAt.Valid {
		resp["completed_at"] = job.CompletedAt.Time.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}
