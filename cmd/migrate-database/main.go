// Package main provides a CLI tool to manage the StockPulse database schema.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"stockpulse/internal/migrations"
)

func main() {
	var dbPath string
	flag.StringVar(&dbPath, "db", "stockpulse.db", "Path to the database")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close() //nolint:errcheck // Cleanup, error not critical

	switch command {
	case "up":
		err = migrations.Run(db)
	case "down":
		err = migrations.RunDown(db)
	case "status":
		err = migrations.Status(db)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (expected up, down or status)\n", command)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Migration %s complete (database %s)\n", command, dbPath)
}
