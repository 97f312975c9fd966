package database

import (
	"database/sql"
	"time"
)

type User struct {
	ID             int
	Email          string
	HashedPassword string
	IsActive       bool
	CreatedAt      time.Time
	LastLogin      sql.NullTime
}

type RefreshToken struct {
	Token     string
	UserID    int
	ExpiresAt int64
	Used      bool
	CreatedAt time.Time
}

type ReportJob struct {
	ID           string
	UserID       int
	Symbol       string
	Recipient    string
	Period       string
	StartDate    string
	EndDate      string
	Status       string
	ErrorMessage sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  sql.NullTime
}

type SystemVitalLog struct {
	ID               int
	Timestamp        time.Time
	CPUPercent       float64
	MemoryPercent    float64
	DiskUsagePercent float64
}

const (
	// Report job status choices
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
