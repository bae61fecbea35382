package errors

import (
	"fmt"
	"strings"
)

// StoreBusyError indicates a backing store refused an operation because
// another writer holds its lock. SQLite reports this as SQLITE_BUSY or
// "database is locked".
type StoreBusyError struct {
	Store string
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *StoreBusyError) Error() string {
	return fmt.Sprintf("%s busy during %s: %v", e.Store, e.Op, e.Err)
}

// Unwrap returns the driver error.
func (e *StoreBusyError) Unwrap() error {
	return e.Err
}

// IsBusyMessage reports whether a driver error message describes a lock
// conflict. Drivers surface these as plain strings, not typed errors.
func IsBusyMessage(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "sqlite_busy") ||
		strings.Contains(msg, "database table is locked")
}

// TimeoutError indicates an operation timed out.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}
