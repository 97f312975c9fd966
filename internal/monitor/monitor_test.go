package monitor

import (
	"path/filepath"
	"testing"
	"time"

	"stockpulse/internal/database"
	"stockpulse/internal/migrations"
)

func openTestDB(t *testing.T) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := database.Initialize(dbPath); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(func() {
		database.Close() //nolint:errcheck // Test cleanup
	})

	if err := migrations.Run(database.GetDB()); err != nil {
		t.Fatalf("migrations.Run() error = %v", err)
	}
}

func TestPruneRemovesOldVitalsAndTokens(t *testing.T) {
	openTestDB(t)

	// An old row beyond retention and a fresh one.
	if err := database.StoreSystemVital(10, 20, 30); err != nil {
		t.Fatalf("StoreSystemVital() error = %v", err)
	}
	old := time.Now().Add(-vitalsRetention - time.Hour)
	if _, err := database.GetDB().Exec(
		`UPDATE system_vital_logs SET timestamp = ? WHERE id = (SELECT MIN(id) FROM system_vital_logs)`,
		old); err != nil {
		t.Fatalf("failed to backdate vitals row: %v", err)
	}
	if err := database.StoreSystemVital(11, 21, 31); err != nil {
		t.Fatalf("StoreSystemVital() error = %v", err)
	}

	user, err := database.CreateUser("monitor@example.com", "$2a$10$fakehash")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if _, err := database.CreateRefreshToken("expired-token", user.ID, time.Now().Add(-time.Hour).Unix()); err != nil {
		t.Fatalf("CreateRefreshToken() error = %v", err)
	}
	if _, err := database.CreateRefreshToken("live-token", user.ID, time.Now().Add(time.Hour).Unix()); err != nil {
		t.Fatalf("CreateRefreshToken() error = %v", err)
	}

	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.prune()

	rows, err := database.GetVitalsSince(time.Now().Add(-vitalsRetention))
	if err != nil {
		t.Fatalf("GetVitalsSince() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 vitals row after prune, got %d", len(rows))
	}

	if _, err := database.GetRefreshToken("expired-token"); !database.IsNotFound(err) {
		t.Errorf("expected expired token removed, got err = %v", err)
	}
	if _, err := database.GetRefreshToken("live-token"); err != nil {
		t.Errorf("expected live token to survive, got err = %v", err)
	}
}

func TestSampleVitalsStoresRow(t *testing.T) {
	openTestDB(t)

	m, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	m.sampleVitals()

	latest, err := database.GetLatestVital()
	if err != nil {
		t.Fatalf("GetLatestVital() error = %v", err)
	}
	if latest == nil {
		t.Fatal("expected a stored vitals row")
	}
}
