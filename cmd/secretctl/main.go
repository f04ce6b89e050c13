// Command secretctl manages the shared access secret from the command line.
//
// It supports the following operations:
//   - set: Set or rotate the access secret
//   - status: Check if a secret is configured
//
// Usage:
//
//	secretctl <command>
//
// Commands:
//
//	set     Set the access secret. Works both for initial setup and for
//	        rotation. Rotating the secret invalidates all existing
//	        sessions.
//
//	status  Display whether a secret is configured. While no secret is
//	        set, the server accepts every request.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"media-browser/internal/database"

	"golang.org/x/term"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"

	minSecretLength = 6
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "browser.db")

	db, err := database.New(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	switch command {
	case "set":
		if !setSecret(ctx, db) {
			os.Exit(1)
		}
	case "status":
		showStatus(ctx, db)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing anything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Media Browser Secret Management")
	fmt.Println("")
	fmt.Println("Usage: secretctl <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  set     - Set or rotate the access secret")
	fmt.Println("  status  - Check if a secret is configured")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func setSecret(ctx context.Context, db *database.Database) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rotating := db.HasSecret(ctx)

	fmt.Print("New Secret: ")
	secret, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading secret: %v\n", err)
		return false
	}

	fmt.Print("Confirm Secret: ")
	confirm, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading secret: %v\n", err)
		return false
	}

	if !bytes.Equal(secret, confirm) {
		fmt.Fprintln(os.Stderr, "Error: Secrets do not match")
		return false
	}

	if len(secret) < minSecretLength {
		fmt.Fprintf(os.Stderr, "Error: Secret must be at least %d characters\n", minSecretLength)
		return false
	}

	if err := db.SetSecret(ctx, string(secret)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to set secret: %v\n", err)
		return false
	}

	fmt.Println("Secret updated successfully.")
	if rotating {
		fmt.Println("All existing sessions have been invalidated.")
	}
	return true
}

func showStatus(ctx context.Context, db *database.Database) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if db.HasSecret(ctx) {
		fmt.Println("Status: Secret is configured")
	} else {
		fmt.Println("Status: No secret configured (all requests pass)")
	}
}
