package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StoreSystemVital saves a new system vital log entry to the database.
func StoreSystemVital(cpuPercent, memoryPercent, diskUsagePercent float64) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	_, err := db.Exec(`
		INSERT INTO system_vital_logs (cpu_percent, memory_percent, disk_usage_percent)
		VALUES (?, ?, ?)
	`, cpuPercent, memoryPercent, diskUsagePercent)
	if err != nil {
		return fmt.Errorf("failed to store system vital: %w", err)
	}
	return nil
}

// GetVitalsSince retrieves system vital logs recorded after the given time,
// oldest first.
func GetVitalsSince(since time.Time) ([]SystemVitalLog, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := db.Query(`
		SELECT id, timestamp, cpu_percent, memory_percent, disk_usage_percent
		FROM system_vital_logs
		WHERE timestamp >= ?
		ORDER BY timestamp ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query vitals: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Cleanup, error not critical

	var vitals []SystemVitalLog
	for rows.Next() {
		var v SystemVitalLog
		if err := rows.Scan(&v.ID, &v.Timestamp, &v.CPUPercent, &v.MemoryPercent, &v.DiskUsagePercent); err != nil {
			return nil, fmt.Errorf("failed to scan vital: %w", err)
		}
		vitals = append(vitals, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	// No data is not an error
	if len(vitals) == 0 {
		return []SystemVitalLog{}, nil
	}
	return vitals, nil
}

// GetLatestVital retrieves the most recent system vital log entry.
// Returns nil if no vitals are recorded yet (not an error condition).
func GetLatestVital() (*SystemVitalLog, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var v SystemVitalLog
	err := db.QueryRow(`
		SELECT id, timestamp, cpu_percent, memory_percent, disk_usage_percent
		FROM system_vital_logs
		ORDER BY timestamp DESC
		LIMIT 1
	`).Scan(&v.ID, &v.Timestamp, &v.CPUPercent, &v.MemoryPercent, &v.DiskUsagePercent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest vital: %w", err)
	}

	return &v, nil
}

// PruneVitalsBefore deletes log entries older than the cutoff.
func PruneVitalsBefore(cutoff time.Time) (int64, error) {
	db := GetDB()
	if db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	result, err := db.Exec("DELETE FROM system_vital_logs WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune vitals: %w", err)
	}
	return result.RowsAffected()
}
