package database

import (
	"fmt"
	"time"
)

// CreateReportJob enqueues a report delivery job in the pending state.
func CreateReportJob(job *ReportJob) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	now := time.Now()
	job.Status = StatusPending
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := db.Exec(`
		INSERT INTO report_jobs (id, user_id, symbol, recipient, period, start_date, end_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.UserID, job.Symbol, job.Recipient, job.Period, job.StartDate, job.EndDate, job.Status, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create report job: %w", err)
	}
	return nil
}

// GetReportJob retrieves a report job by ID.
func GetReportJob(id string) (*ReportJob, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	job := &ReportJob{}
	err := db.QueryRow(`
		SELECT id, user_id, symbol, recipient, period, start_date, end_date, status, error_message, created_at, updated_at, completed_at
		FROM report_jobs WHERE id = ?
	`, id).Scan(
		&job.ID, &job.UserID, &job.Symbol, &job.Recipient, &job.Period,
		&job.StartDate, &job.EndDate, &job.Status, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListPendingReportJobs returns IDs of jobs waiting for a worker, oldest first.
func ListPendingReportJobs() ([]string, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT id FROM report_jobs
		WHERE status = ?
		ORDER BY created_at ASC
	`, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending report jobs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Cleanup, error not critical

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan report job ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateReportJobStatus transitions a job, recording an error message and the
// completion time for terminal states.
func UpdateReportJobStatus(id, status, errorMessage string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	now := time.Now()
	if status == StatusCompleted || status == StatusFailed {
		_, err := db.Exec(`
			UPDATE report_jobs
			SET status = ?, error_message = NULLIF(?, ''), updated_at = ?, completed_at = ?
			WHERE id = ?
		`, status, errorMessage, now, now, id)
		if err != nil {
			return fmt.Errorf("failed to update report job: %w", err)
		}
		return nil
	}

	_, err := db.Exec(`
		UPDATE report_jobs
		SET status = ?, error_message = NULLIF(?, ''), updated_at = ?
		WHERE id = ?
	`, status, errorMessage, now, id)
	if err != nil {
		return fmt.Errorf("failed to update report job: %w", err)
	}
	return nil
}

// RequeueStaleReportJobs moves jobs stuck in progress longer than maxAge back
// to pending so a worker can pick them up again after a crash.
func RequeueStaleReportJobs(maxAge time.Duration) (int64, error) {
	db := GetDB()
	if db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	cutoff := time.Now().Add(-maxAge)
	result, err := db.Exec(`
		UPDATE report_jobs
		SET status = ?, updated_at = ?
		WHERE status = ? AND updated_at < ?
	`, StatusPending, time.Now(), StatusInProgress, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale report jobs: %w", err)
	}
	return result.RowsAffected()
}
