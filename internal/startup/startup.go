// Package startup drives the boot sequence: emit diagnostics, optionally
// upgrade the database schema, then hand off to the HTTP server. The
// sequence is strictly linear; a failed migration means the server never
// starts listening.
package startup

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"stockpulse/internal/config"
	"stockpulse/internal/logging"
	"stockpulse/internal/system"
)

// State names the phase the orchestrator is in.
type State string

const (
	// StateStarting covers diagnostics before any side effects
	StateStarting State = "starting"

	// StateMigrating covers the schema upgrade
	StateMigrating State = "migrating"

	// StateServing means the listener has been handed control
	StateServing State = "serving"

	// StateFailed is terminal after any error
	StateFailed State = "failed"
)

// MigrateFunc upgrades the schema to the latest revision.
type MigrateFunc func() error

// ServeFunc starts the HTTP listener on addr with the given report worker
// count. It blocks until the server stops.
type ServeFunc func(addr string, workers int) error

// Orchestrator runs the boot sequence for one process.
type Orchestrator struct {
	config  *config.Config
	migrate MigrateFunc
	serve   ServeFunc
	state   State
}

// New creates an orchestrator. migrate may be nil when the profile never
// migrates; serve must not be nil.
func New(cfg *config.Config, migrate MigrateFunc, serve ServeFunc) *Orchestrator {
	return &Orchestrator{
		config:  cfg,
		migrate: migrate,
		serve:   serve,
		state:   StateStarting,
	}
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the boot sequence. It returns when the server stops or a
// step fails. After a migration error the serve step is never invoked.
func (o *Orchestrator) Run() error {
	o.printDiagnostics()

	if o.config.RunMigrations {
		o.state = StateMigrating
		logging.Printf("Running database migrations")
		if o.migrate == nil {
			o.state = StateFailed
			return fmt.Errorf("profile %q requires migrations but no migrate step is wired", o.config.Profile)
		}
		if err := o.migrate(); err != nil {
			o.state = StateFailed
			return fmt.Errorf("database migration failed: %w", err)
		}
		logging.Printf("Database migrations complete")
	}

	o.state = StateServing
	addr := o.config.ListenAddr()
	logging.Printf("Serving on %s with %d workers", addr, o.config.Workers)
	if err := o.serve(addr, o.config.Workers); err != nil {
		o.state = StateFailed
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

// printDiagnostics logs the environment the way operators expect to see it
// in the boot log: resolved port, working directory, runtime version and,
// for hosted deploys, the directory contents.
func (o *Orchestrator) printDiagnostics() {
	logging.Printf("Profile: %s", o.config.Profile)
	logging.Printf("Resolved port: %d", o.config.Port)

	cwd, err := os.Getwd()
	if err != nil {
		logging.Warning("Could not determine working directory: %v", err)
	} else {
		logging.Printf("Working directory: %s", cwd)
	}

	logging.Printf("Runtime: %s", runtime.Version())

	if rss, err := system.ProcessRSSMB(); err == nil {
		logging.Printf("Process memory: %.1f MB", rss)
	}

	if o.config.Profile == config.HostedProfile {
		entries, err := os.ReadDir(".")
		if err != nil {
			logging.Warning("Could not list working directory: %v", err)
			return
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		logging.Printf("Directory contents: %s", strings.Join(names, " "))
	}
}
