// Package filesystem provides filesystem operations with retry logic for
// NFS-backed media volumes.
package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"media-browser/internal/logging"
	"media-browser/internal/metrics"
)

// RetryConfig configures retry behavior for filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isStaleError checks if an error is an NFS stale file handle error (ESTALE).
func isStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// retry runs op until it succeeds, fails with a non-stale error, or exhausts
// the configured retries. Only ESTALE is retried; a stale handle clears once
// the NFS client re-resolves the path.
func retry(name string, config RetryConfig, op func() error) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s succeeded on retry %d", name, attempt)
				metrics.FilesystemRetrySuccess.WithLabelValues(name).Inc()
			}
			return nil
		}

		lastErr = err

		if !isStaleError(err) {
			return err
		}

		metrics.FilesystemStaleErrors.WithLabelValues(name).Inc()

		if attempt < config.MaxRetries {
			logging.Debug("NFS %s stale file handle, retrying in %v (attempt %d/%d)",
				name, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("NFS %s failed after %d retries: %v", name, config.MaxRetries, lastErr)
	metrics.FilesystemRetryFailures.WithLabelValues(name).Inc()
	return lastErr
}

// Stat performs os.Stat with retry logic for NFS stale file handle errors.
func Stat(path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := retry("stat", config, func() error {
		var opErr error
		info, opErr = os.Stat(path)
		return opErr
	})
	return info, err
}

// ReadDir performs os.ReadDir with retry logic for NFS stale file handle errors.
func ReadDir(path string, config RetryConfig) ([]os.DirEntry, error) {
	var entries []os.DirEntry
	err := retry("readdir", config, func() error {
		var opErr error
		entries, opErr = os.ReadDir(path)
		return opErr
	})
	return entries, err
}

// Open performs os.Open with retry logic for NFS stale file handle errors.
func Open(path string, config RetryConfig) (*os.File, error) {
	var file *os.File
	err := retry("open", config, func() error {
		var opErr error
		file, opErr = os.Open(path)
		return opErr
	})
	return file, err
}
