package sync

import (
	"errors"
	"fmt"

	"cigamsync/internal/database/models"
)

var (
	// ErrSourceUnavailable means the CIGAM adapter could not be reached
	// before any state was created.
	ErrSourceUnavailable = errors.New("cigam source is unavailable")

	ErrLogNotFound   = errors.New("sync log not found")
	ErrLogNotRunning = errors.New("sync log is not running")
)

// ConflictError is returned by InitSync when another run holds the
// slot. It carries the existing log so the caller can poll it instead
// of retrying blindly.
type ConflictError struct {
	ExistingLog *models.ProductSyncLog
}

func (e *ConflictError) Error() string {
	if e.ExistingLog != nil {
		return fmt.Sprintf("a sync is already running (log %d)", e.ExistingLog.ID)
	}
	return "a sync is already running"
}

// ValidationError rejects malformed input before any side effect.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
