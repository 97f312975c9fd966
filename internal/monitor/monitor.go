// Package monitor runs scheduled background maintenance: system vitals
// sampling, vitals retention pruning, and expired refresh token cleanup.
package monitor

import (
	"time"

	"github.com/robfig/cron/v3"

	"stockpulse/internal/database"
	"stockpulse/internal/logging"
	"stockpulse/internal/system"
)

const (
	vitalsSchedule  = "@every 1m"
	pruneSchedule   = "@hourly"
	vitalsRetention = 7 * 24 * time.Hour
)

// Monitor owns the cron scheduler for background maintenance jobs.
type Monitor struct {
	cron *cron.Cron
}

// New creates a monitor with its jobs registered but not yet running.
func New() (*Monitor, error) {
	m := &Monitor{cron: cron.New()}

	if _, err := m.cron.AddFunc(vitalsSchedule, m.sampleVitals); err != nil {
		return nil, err
	}
	if _, err := m.cron.AddFunc(pruneSchedule, m.prune); err != nil {
		return nil, err
	}
	return m, nil
}

// Start begins running scheduled jobs and takes an immediate first sample
// so the vitals endpoint has data right after boot.
func (m *Monitor) Start() {
	m.sampleVitals()
	m.cron.Start()
	logging.Printf("Background monitor started (vitals %s, prune %s)", vitalsSchedule, pruneSchedule)
}

// Stop halts the scheduler. Jobs already running are allowed to finish.
func (m *Monitor) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	logging.Printf("Background monitor stopped")
}

func (m *Monitor) sampleVitals() {
	vitals, err := system.GetVitals()
	if err != nil {
		logging.Warning("Vitals sample failed: %v", err)
		return
	}
	if err := database.StoreSystemVital(vitals.CPUPercent, vitals.MemPercent, vitals.DiskPercent); err != nil {
		logging.Warning("Failed to store vitals sample: %v", err)
	}
}

func (m *Monitor) prune() {
	cutoff := time.Now().Add(-vitalsRetention)
	pruned, err := database.PruneVitalsBefore(cutoff)
	if err != nil {
		logging.Warning("Vitals prune failed: %v", err)
	} else if pruned > 0 {
		logging.Debug("Pruned %d vitals rows older than %s", pruned, cutoff.Format(time.RFC3339))
	}

	removed, err := database.DeleteExpiredRefreshTokens()
	if err != nil {
		logging.Warning("Refresh token cleanup failed: %v", err)
	} else if removed > 0 {
		logging.Debug("Removed %d expired refresh tokens", removed)
	}
}
